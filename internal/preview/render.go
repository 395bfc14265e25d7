// Package preview renders digests and run history for the terminal.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pders01/newsdigest/internal/pipeline"
	"github.com/pders01/newsdigest/internal/storage"
)

const (
	minWrap = 20
	maxWrap = 120
)

type Renderer struct {
	width int
	plain bool
	md    *glamour.TermRenderer
}

// NewRenderer creates a renderer for a terminal of the given width. plain
// disables colors and styling, for pipes and tests.
func NewRenderer(width int, plain bool) (*Renderer, error) {
	wrap := WrapWidth(width)

	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}

	md, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	return &Renderer{width: wrap, plain: plain, md: md}, nil
}

// WrapWidth picks a word-wrap width for a terminal width: 90% of it, within
// [40, 120], or width-4 on very narrow terminals.
func WrapWidth(width int) int {
	if width <= 0 {
		width = 80
	}
	wrap := (width * 9) / 10
	if wrap > maxWrap {
		wrap = maxWrap
	}
	if wrap < 40 {
		wrap = 40
	}
	if width < 50 {
		wrap = width - 4
		if wrap < minWrap {
			wrap = minWrap
		}
	}
	return wrap
}

func (r *Renderer) Markdown(md string) (string, error) {
	out, err := r.md.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// Report renders a composed (and possibly sent) digest.
func (r *Renderer) Report(rep pipeline.Report) (string, error) {
	body, err := r.Markdown("# " + rep.Message.Title + "\n\n" + rep.Message.Body + "\n")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString(Separator(r.width))
	b.WriteString("\n")

	feedMsg := fmt.Sprintf("feed %s: %d of %d entries selected", rep.Feed.Status, rep.Message.Stories, rep.Feed.Entries)
	if rep.Feed.Err != nil {
		feedMsg += " (" + rep.Feed.Err.Error() + ")"
	}
	b.WriteString(StatusLine(FeedKind(rep.Feed.Status), feedMsg))
	b.WriteString("\n")

	if rep.Sent {
		msg := "delivery " + rep.Delivery.Outcome.String()
		if rep.Delivery.Err != nil {
			msg += ": " + rep.Delivery.Err.Error()
		}
		b.WriteString(StatusLine(DeliveryKind(rep.Delivery.Outcome), msg))
	} else {
		b.WriteString(StatusLine(StatusInfo, "preview only, nothing sent"))
	}
	b.WriteString("\n")
	return b.String(), nil
}

// History renders journal entries, newest first, with ages relative to now.
func (r *Renderer) History(runs []*storage.Run, sum storage.Summary, now time.Time) string {
	if len(runs) == 0 {
		return StatusLine(StatusInfo, "no runs recorded yet") + "\n"
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%d runs, %d delivered, %d failed", sum.Runs, sum.Delivered, sum.Failed)))
	b.WriteString("\n")
	b.WriteString(Separator(r.width))
	b.WriteString("\n")

	for _, run := range runs {
		kind := StatusSuccess
		if !run.Delivered {
			kind = StatusError
		}
		when := TimeStyle.Render(fmt.Sprintf("%-16s", humanize.RelTime(run.StartedAt, now, "ago", "from now")))
		detail := fmt.Sprintf("%s  %d stories  %s", run.FeedStatus, run.Stories, run.Outcome)
		if run.Error != "" {
			detail += "  " + run.Error
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, when, " ", StatusLine(kind, detail))
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("    " + run.ID + "  " + run.StartedAt.Format(time.RFC3339)))
		b.WriteString("\n")
	}
	return b.String()
}

// Run renders every recorded field of one journal entry.
func (r *Renderer) Run(run *storage.Run, now time.Time) string {
	kind := StatusSuccess
	if !run.Delivered {
		kind = StatusError
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(run.Title))
	b.WriteString("\n")
	b.WriteString(Separator(r.width))
	b.WriteString("\n")

	rows := [][2]string{
		{"id", run.ID},
		{"started", run.StartedAt.Format(time.RFC3339) + " (" + humanize.RelTime(run.StartedAt, now, "ago", "from now") + ")"},
		{"duration", run.Duration.Round(time.Millisecond).String()},
		{"feed", run.FeedURL},
		{"feed status", run.FeedStatus},
		{"stories", fmt.Sprintf("%d of %d entries", run.Stories, run.Entries)},
	}
	if run.HTTPStatus != 0 {
		rows = append(rows, [2]string{"http status", fmt.Sprintf("%d", run.HTTPStatus)})
		rows = append(rows, [2]string{"gateway", fmt.Sprintf("code %d %s", run.Code, run.Message)})
	}
	for _, row := range rows {
		b.WriteString(KeyValue(row[0], row[1]))
		b.WriteString("\n")
	}

	outcome := run.Outcome
	if run.Error != "" {
		outcome += ": " + run.Error
	}
	b.WriteString(StatusLine(kind, outcome))
	b.WriteString("\n")
	return b.String()
}

// KeyValue renders an aligned label/value pair.
func KeyValue(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + ValueStyle.Render(value)
}
