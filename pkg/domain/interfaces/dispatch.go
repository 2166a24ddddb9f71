package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
)

// Recognizer classifies a normalized event into an intent.
type Recognizer interface {
	Recognize(ctx context.Context, sessionKey string, event *model.ConversationalEvent) (*model.RecognizedEvent, error)
}

// Deliverer hands a recognized event to the session of the bot runtime.
type Deliverer interface {
	Deliver(ctx context.Context, sessionKey string, event *model.RecognizedEvent) error
}
