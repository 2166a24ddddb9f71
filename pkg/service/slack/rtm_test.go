package slack_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/service/slack"
)

// newEchoServer accepts one websocket and forwards every client frame to received.
func newEchoServer(t *testing.T) (string, <-chan string) {
	t.Helper()
	received := make(chan string, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), received
}

func TestRealtime_IntentionalClose(t *testing.T) {
	wsURL, _ := newEchoServer(t)

	conn, err := slack.DialRealtime(context.Background(), wsURL, 0)
	gt.NoError(t, err).Required()

	gt.NoError(t, conn.Close())
	// second close is a no-op
	gt.NoError(t, conn.Close())

	for range conn.Messages() {
	}

	select {
	case reason := <-conn.Closed():
		gt.Bool(t, reason.Intentional).True()
		gt.Bool(t, reason.Abnormal()).False()
	case <-time.After(3 * time.Second):
		t.Fatal("close reason was not published")
	}
}

func TestRealtime_ServerDropIsAbnormal(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`))
		// drop the TCP connection without a close frame
		_ = conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	conn, err := slack.DialRealtime(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), 0)
	gt.NoError(t, err).Required()

	var frames int
	for range conn.Messages() {
		frames++
	}
	gt.Number(t, frames).Equal(1)

	reason := <-conn.Closed()
	gt.Bool(t, reason.Abnormal()).True()
	gt.Number(t, reason.Code).Equal(websocket.CloseAbnormalClosure)
	gt.Value(t, reason.Err).NotNil()
}

func TestRealtime_Ping(t *testing.T) {
	wsURL, received := newEchoServer(t)

	conn, err := slack.DialRealtime(context.Background(), wsURL, 20*time.Millisecond)
	gt.NoError(t, err).Required()
	defer conn.Close()

	select {
	case frame := <-received:
		gt.String(t, frame).Contains(`"type":"ping"`)
	case <-time.After(3 * time.Second):
		t.Fatal("no ping frame received")
	}
}

func TestRealtime_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := slack.DialRealtime(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), 0)
	gt.Value(t, err).NotNil()
}
