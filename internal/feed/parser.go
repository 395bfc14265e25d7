package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one feed item as far as the digest cares.
type Entry struct {
	Title string
	Link  string
	// Published is nil when the feed gives no publication date.
	Published *time.Time
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse decodes an RSS, Atom or JSON feed, preserving item order.
func (p *Parser) Parse(reader io.Reader) ([]Entry, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, toEntry(item))
	}

	return entries, nil
}

// toEntry takes gofeed's parsed publication date; items without one have
// unknown age.
func toEntry(item *gofeed.Item) Entry {
	entry := Entry{
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}
	if item.PublishedParsed != nil {
		published := item.PublishedParsed.UTC()
		entry.Published = &published
	}
	return entry
}
