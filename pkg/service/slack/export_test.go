package slack

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
)

// DialRealtime is exported for testing the transport without rtm.connect
func DialRealtime(ctx context.Context, wsURL string, pingInterval time.Duration) (interfaces.RealtimeConnection, error) {
	return dialRealtime(ctx, websocket.DefaultDialer, wsURL, pingInterval)
}
