package slack

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

const (
	messageBuffer  = 64
	closeWriteWait = time.Second
	// a connection that stays silent for this many ping intervals is considered dead
	deadlineFactor = 3
)

// rtmConn is a realtime websocket connection. A single reader goroutine owns
// ReadMessage and a single pinger owns WriteMessage, as gorilla requires.
type rtmConn struct {
	id           string
	ws           *websocket.Conn
	pingInterval time.Duration

	messages chan []byte
	closed   chan model.CloseReason
	done     chan struct{}

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	pingSeq   atomic.Int64
}

func dialRealtime(ctx context.Context, dialer *websocket.Dialer, wsURL string, pingInterval time.Duration) (*rtmConn, error) {
	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dial realtime websocket")
	}

	c := &rtmConn{
		id:           uuid.NewString(),
		ws:           ws,
		pingInterval: pingInterval,
		messages:     make(chan []byte, messageBuffer),
		closed:       make(chan model.CloseReason, 1),
		done:         make(chan struct{}),
	}
	c.extendDeadline()

	go c.readLoop()
	if pingInterval > 0 {
		go c.pingLoop()
	}

	return c, nil
}

func (c *rtmConn) ID() string                       { return c.id }
func (c *rtmConn) Messages() <-chan []byte          { return c.messages }
func (c *rtmConn) Closed() <-chan model.CloseReason { return c.closed }

// Close sends a normal close frame and tears the socket down. Safe to call more than once.
func (c *rtmConn) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		if err := c.ws.Close(); err != nil {
			c.closeErr = goerr.Wrap(err, "failed to close realtime websocket", goerr.V("conn_id", c.id))
		}
	})
	return c.closeErr
}

func (c *rtmConn) readLoop() {
	var reason model.CloseReason

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			reason = c.closeReason(err)
			break
		}
		c.extendDeadline()
		c.messages <- data
	}

	// all frames are delivered before the reason is published
	close(c.messages)
	c.closed <- reason
	close(c.done)
	_ = c.ws.Close()
}

func (c *rtmConn) closeReason(err error) model.CloseReason {
	reason := model.CloseReason{
		Intentional: c.closing.Load(),
		Err:         err,
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		reason.Code = ce.Code
	}
	return reason
}

func (c *rtmConn) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			id := c.pingSeq.Add(1)
			frame := []byte(`{"id":` + strconv.FormatInt(id, 10) + `,"type":"ping"}`)
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				// the reader observes the broken socket and reports an abnormal close
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (c *rtmConn) extendDeadline() {
	if c.pingInterval <= 0 {
		return
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(deadlineFactor * c.pingInterval))
}
