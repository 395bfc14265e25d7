// Package digest assembles the notification text from selected stories.
package digest

import (
	"strings"
	"time"

	"github.com/pders01/newsdigest/internal/config"
)

// Message is what gets pushed: a short title and a Markdown body.
type Message struct {
	Title string
	Body  string
	// Stories is the number of story lines in Body; 0 when Body is the fallback.
	Stories int
}

// IsFallback reports whether the body is the placeholder text.
func (m Message) IsFallback() bool {
	return m.Stories == 0
}

// Compose joins the story lines, or returns fallback when there are none.
func Compose(stories []string, fallback string) string {
	if len(stories) == 0 {
		return fallback
	}
	return strings.Join(stories, "\n")
}

// Title renders the label followed directly by the date. The label is used
// verbatim, so any separator belongs in the label itself.
func Title(label string, now time.Time, layout string) string {
	return label + now.Format(layout)
}

// New builds the message for a run at now.
func New(stories []string, now time.Time, cfg config.DigestConfig) Message {
	return Message{
		Title:   Title(cfg.TitleLabel, now, cfg.DateLayout),
		Body:    Compose(stories, cfg.Fallback),
		Stories: len(stories),
	}
}
