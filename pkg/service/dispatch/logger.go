package dispatch

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// Logger is the dispatcher used when no webhook is configured. It classifies
// every event as the fallback intent and logs deliveries.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Recognize(ctx context.Context, sessionKey string, event *model.ConversationalEvent) (*model.RecognizedEvent, error) {
	return &model.RecognizedEvent{
		Intent: model.FallbackIntent,
		Event:  event,
	}, nil
}

func (l *Logger) Deliver(ctx context.Context, sessionKey string, event *model.RecognizedEvent) error {
	logging.From(ctx).Info("event received",
		"session_key", sessionKey,
		"intent", event.Intent,
		"event", event.Event)
	return nil
}
