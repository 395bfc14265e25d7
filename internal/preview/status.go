package preview

import (
	"github.com/pders01/newsdigest/internal/feed"
	"github.com/pders01/newsdigest/internal/notify"
)

// StatusKind indicates severity for status lines.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) icon() string {
	switch k {
	case StatusSuccess:
		return "✓"
	case StatusWarn:
		return "!"
	case StatusError:
		return "✗"
	default:
		return "•"
	}
}

// StatusLine renders msg with the icon and color for kind.
func StatusLine(kind StatusKind, msg string) string {
	text := kind.icon() + " " + msg
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render(text)
	case StatusWarn:
		return StatusWarnStyle.Render(text)
	case StatusError:
		return StatusErrorStyle.Render(text)
	default:
		return StatusInfoStyle.Render(text)
	}
}

// FeedKind maps a fetch status to a severity.
func FeedKind(s feed.Status) StatusKind {
	switch s {
	case feed.StatusStories:
		return StatusSuccess
	case feed.StatusFailed:
		return StatusWarn
	default:
		return StatusInfo
	}
}

// DeliveryKind maps a delivery outcome to a severity.
func DeliveryKind(o notify.Outcome) StatusKind {
	if o == notify.OutcomeDelivered {
		return StatusSuccess
	}
	return StatusError
}
