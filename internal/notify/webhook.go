package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-trek/internal/events"
)

// WebhookNotifier POSTs published events to the configured partner endpoints.
// It sits on the event bus next to the email notifier; delivery failures are
// logged by the bus and never fail the publish.
type WebhookNotifier struct {
	Endpoints []string
	Secret    string
	Enabled   bool
	Client    *http.Client
	Log       zerolog.Logger
	Now       func() time.Time
}

type webhookPayload struct {
	EventID    string          `json:"eventId"`
	Topic      string          `json:"topic"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Notify implements events.Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, ev events.Event) error {
	if !n.Enabled || len(n.Endpoints) == 0 {
		return nil
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode webhook data: %w", err)
	}
	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}
	eventID := uuid.NewString()
	body, err := json.Marshal(webhookPayload{
		EventID:    eventID,
		Topic:      ev.Topic,
		Data:       data,
		OccurredAt: now,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	ts := now.Unix()
	sig := ComputeSignature(n.Secret, ts, eventID, body)

	var joined error
	for _, endpoint := range n.Endpoints {
		if err := n.deliver(ctx, endpoint, eventID, ts, sig, body); err != nil {
			joined = errors.Join(joined, fmt.Errorf("deliver to %s: %w", endpoint, err))
			continue
		}
		n.Log.Debug().Str("topic", ev.Topic).Str("event_id", eventID).Str("endpoint", endpoint).Msg("webhook delivered")
	}
	return joined
}

func (n *WebhookNotifier) deliver(ctx context.Context, endpoint, eventID string, ts int64, sig string, body []byte) error {
	if err := validateURL(endpoint); err != nil {
		return err
	}
	client := n.Client
	if client == nil {
		client = HTTPClient(5 * time.Second)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trek-api-webhooks/1.0")
	req.Header.Set("X-Event-ID", eventID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Idempotency-Key", eventID)
	req.Header.Set("X-Signature", sig)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// ComputeSignature calculates the webhook signature for the given payload:
// HMAC-SHA256 over "<ts>.<eventID>.<body>" using the shared secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns a trace-instrumented client for webhook delivery.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(&http.Transport{}),
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	return nil
}
