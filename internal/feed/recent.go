package feed

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
)

const ellipsis = "..."

// SelectOptions controls which entries make it into the digest.
type SelectOptions struct {
	Window         time.Duration
	TitleMaxLength int
	// MaxEntries caps the output; 0 means no cap.
	MaxEntries int
	// AssumeSorted stops at the first entry older than the cutoff. Only
	// correct for newest-first feeds.
	AssumeSorted bool
}

// OptionsFrom builds SelectOptions from the feed section of the config.
func OptionsFrom(cfg config.FeedConfig) SelectOptions {
	return SelectOptions{
		Window:         cfg.Window,
		TitleMaxLength: cfg.TitleMaxLength,
		MaxEntries:     cfg.MaxEntries,
		AssumeSorted:   cfg.AssumeSorted,
	}
}

// Selection is the outcome of scanning a feed.
type Selection struct {
	Stories []string
	// Scanned counts entries inspected, including the one that stopped the scan.
	Scanned int
	// Undated counts entries skipped for lack of a published date.
	Undated int
	// Stopped is set when the scan ended early on an entry older than the cutoff.
	Stopped bool
}

// Select keeps entries published in [now-window, now...] in feed order and
// formats them as Markdown list items.
func Select(entries []Entry, now time.Time, opts SelectOptions) Selection {
	cutoff := now.Add(-opts.Window)
	sel := Selection{Stories: []string{}}

	for _, entry := range entries {
		if opts.MaxEntries > 0 && len(sel.Stories) >= opts.MaxEntries {
			break
		}
		sel.Scanned++

		if entry.Published == nil {
			sel.Undated++
			debuglog.Debugf("skipping undated entry %q", entry.Title)
			continue
		}

		if entry.Published.Before(cutoff) {
			if opts.AssumeSorted {
				sel.Stopped = true
				debuglog.Debugf("stopping at %q published %s", entry.Title,
					humanize.RelTime(*entry.Published, now, "ago", "from now"))
				break
			}
			continue
		}

		sel.Stories = append(sel.Stories, FormatEntry(entry, opts.TitleMaxLength))
		debuglog.Debugf("including %q published %s", entry.Title,
			humanize.RelTime(*entry.Published, now, "ago", "from now"))
	}

	return sel
}

// FormatEntry renders "- [title](link)" with the title truncated.
func FormatEntry(entry Entry, maxTitle int) string {
	return fmt.Sprintf("- [%s](%s)", Truncate(entry.Title, maxTitle), entry.Link)
}

// Truncate cuts s to max characters and appends an ellipsis when it was longer.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
