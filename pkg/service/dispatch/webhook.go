package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/safe"
)

// DefaultTimeout bounds one webhook round trip.
const DefaultTimeout = 10 * time.Second

// ErrWebhookStatus is returned when a webhook answers with a non-2xx status.
var ErrWebhookStatus = goerr.New("webhook returned error status")

// maxResponseSize caps the recognizer response that is decoded.
const maxResponseSize = 1 << 20

// Option configures a webhook client.
type Option func(*webhook)

// WithHTTPClient replaces the HTTP client used to call the webhook.
func WithHTTPClient(client *http.Client) Option {
	return func(w *webhook) {
		w.client = client
	}
}

type webhook struct {
	url    string
	client *http.Client
}

func newWebhook(url string, opts ...Option) webhook {
	w := webhook{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

type request struct {
	SessionKey string `json:"session_key"`
	Event      any    `json:"event"`
}

// post sends body as JSON and returns the response body of a 2xx answer.
func (w webhook) post(ctx context.Context, body request) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal webhook request")
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create webhook request", goerr.V("url", w.url))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call webhook",
			goerr.V("url", w.url), goerr.V("request_id", requestID))
	}
	defer safe.DrainClose(ctx, resp.Body)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read webhook response",
			goerr.V("url", w.url), goerr.V("request_id", requestID))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.Wrap(ErrWebhookStatus, "webhook rejected request",
			goerr.V("url", w.url),
			goerr.V("request_id", requestID),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)))
	}
	return respBody, nil
}

// WebhookRecognizer classifies events by POSTing them to an external service.
// The service answers with a JSON object carrying intent, confidence and
// optional parameters.
type WebhookRecognizer struct {
	webhook
}

func NewWebhookRecognizer(url string, opts ...Option) *WebhookRecognizer {
	return &WebhookRecognizer{webhook: newWebhook(url, opts...)}
}

func (r *WebhookRecognizer) Recognize(ctx context.Context, sessionKey string, event *model.ConversationalEvent) (*model.RecognizedEvent, error) {
	body, err := r.post(ctx, request{SessionKey: sessionKey, Event: event})
	if err != nil {
		return nil, err
	}

	var recognized model.RecognizedEvent
	if err := json.Unmarshal(body, &recognized); err != nil {
		return nil, goerr.Wrap(err, "failed to decode recognizer response",
			goerr.V("session_key", sessionKey))
	}
	if recognized.Intent == "" {
		recognized.Intent = model.FallbackIntent
	}
	recognized.Event = event
	return &recognized, nil
}

// WebhookDeliverer hands recognized events to an external bot runtime.
type WebhookDeliverer struct {
	webhook
}

func NewWebhookDeliverer(url string, opts ...Option) *WebhookDeliverer {
	return &WebhookDeliverer{webhook: newWebhook(url, opts...)}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, sessionKey string, event *model.RecognizedEvent) error {
	_, err := d.post(ctx, request{SessionKey: sessionKey, Event: event})
	return err
}
