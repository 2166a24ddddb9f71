package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/service/dispatch"
)

type capturedRequest struct {
	SessionKey string          `json:"session_key"`
	Event      json.RawMessage `json:"event"`
}

func newEvent() *model.ConversationalEvent {
	return &model.ConversationalEvent{
		SessionKey: "T1@C1",
		Text:       "hi",
		Channel:    "C1",
		Username:   "alice",
		UserID:     "U9",
		TeamID:     "T1",
		MessageTS:  "1700000000.000100",
	}
}

func TestWebhookRecognizer(t *testing.T) {
	var got capturedRequest
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got)).Required()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"intent":"Greetings","confidence":0.9,"parameters":{"name":"alice"}}`))
	}))
	defer srv.Close()

	recognizer := dispatch.NewWebhookRecognizer(srv.URL, dispatch.WithHTTPClient(srv.Client()))
	event := newEvent()

	recognized, err := recognizer.Recognize(context.Background(), "T1@C1", event)
	gt.NoError(t, err).Required()
	gt.Value(t, recognized.Intent).Equal("Greetings")
	gt.Value(t, recognized.Confidence).Equal(0.9)
	gt.Value(t, recognized.Parameters["name"]).Equal("alice")
	gt.Value(t, recognized.Event).Equal(event)
	gt.Bool(t, recognized.IsFallback()).False()

	gt.Value(t, got.SessionKey).Equal("T1@C1")
	var sent model.ConversationalEvent
	gt.NoError(t, json.Unmarshal(got.Event, &sent)).Required()
	gt.Value(t, sent.Text).Equal("hi")
	gt.Value(t, sent.UserID).Equal("U9")
	gt.String(t, requestID).NotEqual("")
}

func TestWebhookRecognizerEmptyIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	recognizer := dispatch.NewWebhookRecognizer(srv.URL)
	recognized, err := recognizer.Recognize(context.Background(), "T1@C1", newEvent())
	gt.NoError(t, err).Required()
	gt.Bool(t, recognized.IsFallback()).True()
}

func TestWebhookRecognizerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	recognizer := dispatch.NewWebhookRecognizer(srv.URL)
	_, err := recognizer.Recognize(context.Background(), "T1@C1", newEvent())
	gt.Error(t, err).Is(dispatch.ErrWebhookStatus)
}

func TestWebhookRecognizerInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	recognizer := dispatch.NewWebhookRecognizer(srv.URL)
	_, err := recognizer.Recognize(context.Background(), "T1@C1", newEvent())
	gt.Value(t, err).NotNil()
}

func TestWebhookDeliverer(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got)).Required()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	deliverer := dispatch.NewWebhookDeliverer(srv.URL)
	err := deliverer.Deliver(context.Background(), "T1@C1", &model.RecognizedEvent{
		Intent: "Greetings",
		Event:  newEvent(),
	})
	gt.NoError(t, err).Required()
	gt.Value(t, got.SessionKey).Equal("T1@C1")

	var sent model.RecognizedEvent
	gt.NoError(t, json.Unmarshal(got.Event, &sent)).Required()
	gt.Value(t, sent.Intent).Equal("Greetings")
	gt.Value(t, sent.Event.Channel).Equal("C1")
}

func TestWebhookDelivererErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	deliverer := dispatch.NewWebhookDeliverer(srv.URL)
	err := deliverer.Deliver(context.Background(), "T1@C1", &model.RecognizedEvent{Intent: "x", Event: newEvent()})
	gt.Error(t, err).Is(dispatch.ErrWebhookStatus)
}

func TestLogger(t *testing.T) {
	l := dispatch.NewLogger()
	event := newEvent()

	recognized, err := l.Recognize(context.Background(), "T1@C1", event)
	gt.NoError(t, err).Required()
	gt.Bool(t, recognized.IsFallback()).True()
	gt.Value(t, recognized.Event).Equal(event)

	gt.NoError(t, l.Deliver(context.Background(), "T1@C1", recognized))
}
