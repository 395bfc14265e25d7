package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pders01/newsdigest/internal/config"
)

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectBody     string
		expectError    bool
	}{
		{
			name: "successful fetch",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", r.Method)
				}
				if got := r.Header.Get("User-Agent"); got != "newsdigest-test/1.0" {
					t.Errorf("expected User-Agent newsdigest-test/1.0, got %s", got)
				}
				if r.Header.Get("Accept") == "" {
					t.Error("expected Accept header")
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<rss></rss>"))
			},
			expectBody: "<rss></rss>",
		},
		{
			name: "not found",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError: true,
		},
		{
			name: "server error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			fetcher := NewFetcher(config.TestConfig().Feed)
			resp, err := fetcher.Fetch(context.Background(), server.URL)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if resp != nil {
					t.Error("expected nil response on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.expectBody {
				t.Errorf("expected body %q, got %q", tt.expectBody, body)
			}
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := config.TestConfig().Feed
	cfg.HTTPTimeout = 50 * time.Millisecond
	fetcher := NewFetcher(cfg)

	start := time.Now()
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("fetch took %v, timeout not applied", elapsed)
	}
}

func TestFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(config.TestConfig().Feed).Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
