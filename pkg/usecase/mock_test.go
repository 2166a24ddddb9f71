package usecase_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/model/slack"
)

var errUpstream = goerr.New("upstream is down")

// mockSlackAPI is a mock implementation of interfaces.SlackAPI for testing
type mockSlackAPI struct {
	authTestFn          func(ctx context.Context) (*slack.BotIdentity, error)
	listConversationsFn func(ctx context.Context) ([]*slack.Conversation, error)
	getUserFn           func(ctx context.Context, userID string) (*slack.User, error)
	getPresenceFn       func(ctx context.Context, userID string) (bool, error)
	connectRealtimeFn   func(ctx context.Context) (interfaces.RealtimeConnection, error)
	sendFn              func(ctx context.Context, channelID string, payload slack.Payload) (string, error)

	listCalls    atomic.Int32
	getUserCalls atomic.Int32
	connectCalls atomic.Int32

	// conns receives every connection opened by the default ConnectRealtime
	conns chan *mockConn
}

func newMockSlackAPI() *mockSlackAPI {
	return &mockSlackAPI{conns: make(chan *mockConn, 16)}
}

func (m *mockSlackAPI) AuthTest(ctx context.Context) (*slack.BotIdentity, error) {
	if m.authTestFn != nil {
		return m.authTestFn(ctx)
	}
	return &slack.BotIdentity{TeamID: "T1", TeamName: "Team One", BotUserID: "B1"}, nil
}

func (m *mockSlackAPI) ListConversations(ctx context.Context) ([]*slack.Conversation, error) {
	m.listCalls.Add(1)
	if m.listConversationsFn != nil {
		return m.listConversationsFn(ctx)
	}
	return []*slack.Conversation{
		{ID: "C1", Name: "general"},
		{ID: "C2", Name: "random"},
		{ID: "D1", IsIM: true, PeerUserID: "U9"},
	}, nil
}

func (m *mockSlackAPI) GetUser(ctx context.Context, userID string) (*slack.User, error) {
	m.getUserCalls.Add(1)
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return &slack.User{
		ID:          userID,
		Name:        "alice",
		RealName:    "Alice Liddell",
		DisplayName: "ally",
		Email:       "alice@example.com",
	}, nil
}

func (m *mockSlackAPI) GetPresence(ctx context.Context, userID string) (bool, error) {
	if m.getPresenceFn != nil {
		return m.getPresenceFn(ctx, userID)
	}
	return true, nil
}

func (m *mockSlackAPI) ConnectRealtime(ctx context.Context) (interfaces.RealtimeConnection, error) {
	n := m.connectCalls.Add(1)
	if m.connectRealtimeFn != nil {
		return m.connectRealtimeFn(ctx)
	}
	conn := newMockConn("conn-" + strconv.Itoa(int(n)))
	m.conns <- conn
	return conn, nil
}

func (m *mockSlackAPI) Send(ctx context.Context, channelID string, payload slack.Payload) (string, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, channelID, payload)
	}
	return "1700000000.000100", nil
}

// mockFactory hands out one mockSlackAPI per token
type mockFactory struct {
	mu         sync.Mutex
	apis       map[string]*mockSlackAPI
	newCalls   int
	exchangeFn func(ctx context.Context, code string) (*model.WorkspaceInstallation, error)
}

func newMockFactory() *mockFactory {
	return &mockFactory{apis: make(map[string]*mockSlackAPI)}
}

// api returns the client of token, creating it on first use.
func (f *mockFactory) api(token string) *mockSlackAPI {
	f.mu.Lock()
	defer f.mu.Unlock()

	if api, ok := f.apis[token]; ok {
		return api
	}
	api := newMockSlackAPI()
	f.apis[token] = api
	return api
}

func (f *mockFactory) New(token string) (interfaces.SlackAPI, error) {
	f.mu.Lock()
	f.newCalls++
	f.mu.Unlock()
	return f.api(token), nil
}

func (f *mockFactory) ExchangeOAuthCode(ctx context.Context, code string) (*model.WorkspaceInstallation, error) {
	if f.exchangeFn != nil {
		return f.exchangeFn(ctx, code)
	}
	return &model.WorkspaceInstallation{TeamID: "T" + code, Token: "tok-" + code}, nil
}

// mockConn is a realtime connection driven by the test
type mockConn struct {
	id       string
	messages chan []byte
	closed   chan model.CloseReason
	once     sync.Once
	closes   atomic.Int32
}

func newMockConn(id string) *mockConn {
	return &mockConn{
		id:       id,
		messages: make(chan []byte, 16),
		closed:   make(chan model.CloseReason, 1),
	}
}

func (c *mockConn) ID() string                       { return c.id }
func (c *mockConn) Messages() <-chan []byte          { return c.messages }
func (c *mockConn) Closed() <-chan model.CloseReason { return c.closed }

func (c *mockConn) Close() error {
	c.closes.Add(1)
	c.finish(model.CloseReason{Intentional: true, Code: 1000})
	return nil
}

// push delivers a frame as if received from the socket.
func (c *mockConn) push(frame string) {
	c.messages <- []byte(frame)
}

// drop terminates the connection abnormally.
func (c *mockConn) drop() {
	c.finish(model.CloseReason{Code: 1006, Err: goerr.New("connection reset")})
}

func (c *mockConn) finish(reason model.CloseReason) {
	c.once.Do(func() {
		close(c.messages)
		c.closed <- reason
	})
}

// mockRecognizer is a mock implementation of interfaces.Recognizer for testing
type mockRecognizer struct {
	recognizeFn func(ctx context.Context, sessionKey string, event *model.ConversationalEvent) (*model.RecognizedEvent, error)
}

func (m *mockRecognizer) Recognize(ctx context.Context, sessionKey string, event *model.ConversationalEvent) (*model.RecognizedEvent, error) {
	if m.recognizeFn != nil {
		return m.recognizeFn(ctx, sessionKey, event)
	}
	return &model.RecognizedEvent{Intent: "Greetings", Confidence: 1, Event: event}, nil
}

// mockDeliverer records every delivered event
type mockDeliverer struct {
	mu        sync.Mutex
	delivered []*model.RecognizedEvent
	keys      []string
	deliverFn func(ctx context.Context, sessionKey string, event *model.RecognizedEvent) error
	notify    chan struct{}
}

func newMockDeliverer() *mockDeliverer {
	return &mockDeliverer{notify: make(chan struct{}, 64)}
}

func (m *mockDeliverer) Deliver(ctx context.Context, sessionKey string, event *model.RecognizedEvent) error {
	if m.deliverFn != nil {
		if err := m.deliverFn(ctx, sessionKey, event); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.delivered = append(m.delivered, event)
	m.keys = append(m.keys, sessionKey)
	m.mu.Unlock()

	m.notify <- struct{}{}
	return nil
}

func (m *mockDeliverer) events() []*model.RecognizedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.RecognizedEvent(nil), m.delivered...)
}
