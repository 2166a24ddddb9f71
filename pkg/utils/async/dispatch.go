package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine and returns a channel closed when it finishes.
// Panics are recovered and logged so one workspace cannot take the process down.
// The handler receives ctx as is; cancel it to stop the goroutine.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(ctx); err != nil {
			logging.From(ctx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()

	return done
}

// Detach returns a context carrying the values of ctx, including its logger,
// that is never cancelled with ctx. Use it for work shared by several callers
// or that must outlive the request that started it.
func Detach(ctx context.Context) context.Context {
	return logging.With(context.WithoutCancel(ctx), logging.From(ctx))
}
