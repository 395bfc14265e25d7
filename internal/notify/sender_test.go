package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
	"github.com/pders01/newsdigest/internal/digest"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	form        url.Values
}

// gateway is an httptest stand-in that records every request it receives.
type gateway struct {
	server   *httptest.Server
	calls    atomic.Int32
	requests chan capturedRequest
}

func newGateway(t *testing.T, status int, body string) *gateway {
	t.Helper()
	g := &gateway{requests: make(chan capturedRequest, 8)}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))
		g.requests <- capturedRequest{
			method:      r.Method,
			path:        r.URL.EscapedPath(),
			contentType: r.Header.Get("Content-Type"),
			form:        form,
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(g.server.Close)
	return g
}

func gatewayConfig(baseURL, key string) config.GatewayConfig {
	cfg := config.TestConfig().Gateway
	cfg.BaseURL = baseURL
	cfg.SendKey = key
	return cfg
}

func testMessage() digest.Message {
	return digest.Message{Title: "Digest 2026-10-19", Body: "- [a](http://a)", Stories: 1}
}

func TestSender_MissingKeyMakesNoRequest(t *testing.T) {
	for _, key := range []string{"", "   "} {
		g := newGateway(t, http.StatusOK, `{"code":0}`)
		sender := NewSender(gatewayConfig(g.server.URL, key), "fallback")

		d := sender.Send(context.Background(), testMessage())

		assert.False(t, d.OK)
		assert.Equal(t, OutcomeMisconfigured, d.Outcome)
		assert.ErrorIs(t, d.Err, ErrMissingSendKey)
		assert.Zero(t, g.calls.Load(), "no HTTP request may be made without a key")
	}
}

func TestSender_Request(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"code":0,"message":""}`)
	sender := NewSender(gatewayConfig(g.server.URL+"/", "SCTkey123"), "fallback")

	d := sender.Send(context.Background(), testMessage())
	require.True(t, d.OK)

	req := <-g.requests
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/SCTkey123.send", req.path)
	assert.Equal(t, "application/x-www-form-urlencoded", req.contentType)
	assert.Equal(t, "Digest 2026-10-19", req.form.Get("title"))
	assert.Equal(t, "- [a](http://a)", req.form.Get("desp"))
}

func TestSender_BlankBodyUsesFallback(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"code":0}`)
	sender := NewSender(gatewayConfig(g.server.URL, "SCTkey123"), "nothing new")

	d := sender.Send(context.Background(), digest.Message{Title: "t", Body: " \n\t "})
	require.True(t, d.OK)

	req := <-g.requests
	assert.Equal(t, "nothing new", req.form.Get("desp"))
}

func TestSender_Responses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOK      bool
		wantOutcome Outcome
		wantErr     error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "accepted",
			status:      http.StatusOK,
			body:        `{"code":0,"message":"","data":{"pushid":"1"}}`,
			wantOK:      true,
			wantOutcome: OutcomeDelivered,
		},
		{
			name:        "rejected",
			status:      http.StatusOK,
			body:        `{"code":1,"message":"x"}`,
			wantOutcome: OutcomeRejected,
			wantErr:     ErrGatewayRejected,
			wantCode:    1,
			wantMessage: "x",
		},
		{
			name:        "not json",
			status:      http.StatusOK,
			body:        "<html>maintenance</html>",
			wantOutcome: OutcomeMalformedResponse,
			wantErr:     ErrMalformedResponse,
		},
		{
			name:        "json without code",
			status:      http.StatusOK,
			body:        `{"message":"ok"}`,
			wantOutcome: OutcomeMalformedResponse,
			wantErr:     ErrMalformedResponse,
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        `{"code":0}`,
			wantOutcome: OutcomeTransportFailed,
			wantErr:     ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, tt.status, tt.body)
			sender := NewSender(gatewayConfig(g.server.URL, "SCTkey123"), "fallback")

			d := sender.Send(context.Background(), testMessage())

			assert.Equal(t, tt.wantOK, d.OK)
			assert.Equal(t, tt.wantOutcome, d.Outcome)
			assert.Equal(t, tt.status, d.HTTPStatus)
			assert.Equal(t, int32(1), g.calls.Load(), "exactly one attempt, no retries")
			if tt.wantErr != nil {
				assert.ErrorIs(t, d.Err, tt.wantErr)
			} else {
				assert.NoError(t, d.Err)
			}
			assert.Equal(t, tt.wantCode, d.Code)
			assert.Equal(t, tt.wantMessage, d.Message)
		})
	}
}

func TestSender_DebugOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, debuglog.Setup(debuglog.LevelDebug))
	debuglog.SetOutput(&buf)
	t.Cleanup(func() { debuglog.Setup(debuglog.LevelInfo) })

	g := newGateway(t, http.StatusOK, `{"code":0,"message":"","data":{"pushid":"77"}}`)
	sender := NewSender(gatewayConfig(g.server.URL, "SCTsecretkey"), "fallback")

	d := sender.Send(context.Background(), testMessage())
	require.True(t, d.OK)

	out := buf.String()
	assert.Contains(t, out, `"key":"SCT***ey"`)
	assert.Contains(t, out, `"desp_length":15`)
	assert.Contains(t, out, "Digest 2026-10-19")
	assert.Contains(t, out, `pushid`, "raw gateway response is logged at debug level")
	assert.NotContains(t, out, "SCTsecretkey")
}

func TestSender_NoDebugOutputAtInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, debuglog.Setup(debuglog.LevelInfo))
	debuglog.SetOutput(&buf)
	t.Cleanup(func() { debuglog.Setup(debuglog.LevelInfo) })

	g := newGateway(t, http.StatusOK, `{"code":0,"data":{"pushid":"77"}}`)
	d := NewSender(gatewayConfig(g.server.URL, "SCTsecretkey"), "fallback").Send(context.Background(), testMessage())
	require.True(t, d.OK)

	assert.NotContains(t, buf.String(), "pushid")
	assert.NotContains(t, buf.String(), "desp_length")
}

func TestSender_TransportFailure(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"code":0}`)
	base := g.server.URL
	g.server.Close()

	d := NewSender(gatewayConfig(base, "SCTsecretkey"), "fallback").Send(context.Background(), testMessage())

	assert.False(t, d.OK)
	assert.Equal(t, OutcomeTransportFailed, d.Outcome)
	require.Error(t, d.Err)
	assert.NotContains(t, d.Err.Error(), "SCTsecretkey", "credential must not leak into errors")
}

func TestSender_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	cfg := gatewayConfig(server.URL, "SCTkey123")
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	d := NewSender(cfg, "fallback").Send(context.Background(), testMessage())

	assert.Equal(t, OutcomeTransportFailed, d.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "delivered", OutcomeDelivered.String())
	assert.Equal(t, "misconfigured", OutcomeMisconfigured.String())
	assert.Equal(t, "transport_failed", OutcomeTransportFailed.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "malformed_response", OutcomeMalformedResponse.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "****", redact("abcd"))
	assert.Equal(t, "SCT***yz", redact("SCTabcdefxyz"))
	assert.False(t, strings.Contains(scrub("post http://h/SCTabcdefxyz.send", "SCTabcdefxyz"), "SCTabcdefxyz"))
}
