// Package notify delivers a digest to a ServerChan-style push gateway:
// POST <base>/<sendkey>.send with form fields title and desp, answered by
// JSON {"code": 0, "message": "..."}.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
	"github.com/pders01/newsdigest/internal/digest"
)

const maxResponseBytes = 1 << 20

var (
	ErrMissingSendKey    = errors.New("gateway send key is not configured")
	ErrUnexpectedStatus  = errors.New("gateway returned non-2xx status")
	ErrGatewayRejected   = errors.New("gateway rejected the message")
	ErrMalformedResponse = errors.New("gateway response is not valid JSON")
)

// Outcome classifies how a delivery attempt ended.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	// OutcomeMisconfigured: no credential, nothing was sent.
	OutcomeMisconfigured
	// OutcomeTransportFailed: timeout, connection error or non-2xx status.
	OutcomeTransportFailed
	// OutcomeRejected: valid JSON with a non-zero code.
	OutcomeRejected
	// OutcomeMalformedResponse: 2xx with a body that is not the expected JSON.
	OutcomeMalformedResponse
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeMisconfigured:
		return "misconfigured"
	case OutcomeTransportFailed:
		return "transport_failed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Delivery is the result of one Send.
type Delivery struct {
	OK      bool
	Outcome Outcome
	// HTTPStatus is 0 when no response was received.
	HTTPStatus int
	// Code and Message are the gateway's own status fields.
	Code    int
	Message string
	Err     error
}

type gatewayResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// Sender performs a single, retry-less POST per Send.
type Sender struct {
	client   *http.Client
	baseURL  string
	sendKey  string
	fallback string
}

// NewSender builds a sender. fallback replaces empty message bodies.
func NewSender(cfg config.GatewayConfig, fallback string) *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		sendKey:  strings.TrimSpace(cfg.SendKey),
		fallback: fallback,
	}
}

func (s *Sender) endpoint() string {
	return s.baseURL + "/" + url.PathEscape(s.sendKey) + ".send"
}

func (s *Sender) Send(ctx context.Context, msg digest.Message) Delivery {
	log := debuglog.WithFields(map[string]any{
		"gateway": s.baseURL,
		"key":     redact(s.sendKey),
	})

	if s.sendKey == "" {
		log.Errorf("not sending: %v (set %s or %s)", ErrMissingSendKey, config.SendKeyEnv, config.LegacySendKeyEnv)
		return Delivery{Outcome: OutcomeMisconfigured, Err: ErrMissingSendKey}
	}

	body := msg.Body
	if strings.TrimSpace(body) == "" {
		body = s.fallback
	}

	form := url.Values{}
	form.Set("title", msg.Title)
	form.Set("desp", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return Delivery{Outcome: OutcomeTransportFailed, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	log.With("desp_length", len(body)).Debugf("posting digest %q", msg.Title)

	resp, err := s.client.Do(req)
	if err != nil {
		// The client error embeds the URL, which carries the key.
		err = fmt.Errorf("posting to gateway: %s", scrub(err.Error(), s.sendKey))
		log.Errorf("%v", err)
		return Delivery{Outcome: OutcomeTransportFailed, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Errorf("reading gateway response: %v", err)
		return Delivery{Outcome: OutcomeTransportFailed, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if debuglog.GetLevel() <= debuglog.LevelDebug {
		log.With("status", resp.StatusCode).Debugf("gateway response: %s", scrub(string(raw), s.sendKey))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		log.With("status", resp.StatusCode).Errorf("%v", err)
		return Delivery{Outcome: OutcomeTransportFailed, HTTPStatus: resp.StatusCode, Err: err}
	}

	return interpret(resp.StatusCode, raw, log)
}

func interpret(status int, raw []byte, log *debuglog.FieldLogger) Delivery {
	var gr gatewayResponse
	if err := json.Unmarshal(raw, &gr); err != nil || gr.Code == nil {
		if err == nil {
			err = errors.New(`missing "code" field`)
		}
		log.With("status", status).Errorf("%v: %v", ErrMalformedResponse, err)
		return Delivery{
			Outcome:    OutcomeMalformedResponse,
			HTTPStatus: status,
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}

	d := Delivery{HTTPStatus: status, Code: *gr.Code, Message: gr.Message}
	if *gr.Code != 0 {
		d.Outcome = OutcomeRejected
		d.Err = fmt.Errorf("%w: code %d: %s", ErrGatewayRejected, *gr.Code, gr.Message)
		log.With("code", *gr.Code).Errorf("gateway rejected digest: %s", gr.Message)
		return d
	}

	d.OK = true
	d.Outcome = OutcomeDelivered
	log.Infof("digest accepted by gateway")
	return d
}

// redact keeps enough of the key to tell keys apart in logs.
func redact(key string) string {
	if len(key) <= 6 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "***" + key[len(key)-2:]
}

func scrub(text, key string) string {
	if key == "" {
		return text
	}
	text = strings.ReplaceAll(text, url.PathEscape(key), redact(key))
	return strings.ReplaceAll(text, key, redact(key))
}
