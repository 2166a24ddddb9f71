package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// Close closes closer and logs a failure under the given name. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.String("target", name), slog.Any("error", err))
	}
}

// DrainClose discards what is left of an HTTP response body before closing it,
// so the underlying connection can be reused.
func DrainClose(ctx context.Context, body io.ReadCloser) {
	if body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(body, 1<<20)); err != nil {
		logging.From(ctx).Debug("failed to drain body", slog.Any("error", err))
	}
	Close(ctx, body, "response body")
}

// Write writes data to w and logs a failure. Used after the response header is committed.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write", slog.Any("error", err))
	}
}
