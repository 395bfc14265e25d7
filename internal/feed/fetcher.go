package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pders01/newsdigest/internal/config"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml, text/xml"

// Fetcher retrieves the raw feed document.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(cfg config.FeedConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch issues the GET and returns the response for a 2xx/3xx status. The
// caller closes the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, nil
}
