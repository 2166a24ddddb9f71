package usecase

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/async"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/metrics"
)

// DefaultReconnectBaseDelay is the unit of the linear reconnect backoff.
const DefaultReconnectBaseDelay = 2 * time.Second

// FrameHandler consumes the realtime frames of one workspace in arrival order.
type FrameHandler interface {
	Handle(ctx context.Context, session model.WorkspaceSession, frame []byte)
}

type waitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffDelay is the wait before the next reopen after failed consecutive failures.
// The first reopen after an abnormal close also waits one base delay.
func backoffDelay(base time.Duration, failed int) time.Duration {
	return time.Duration(max(failed, 1)) * base
}

// ConnectionSupervisor owns one realtime connection per workspace. Each
// workspace runs in its own goroutine: frames are handled sequentially, and an
// abnormal close is followed by reopen attempts with linear backoff until one
// succeeds or the supervisor is closed.
type ConnectionSupervisor struct {
	clients   *workspaceClients
	handler   FrameHandler
	baseDelay time.Duration
	wait      waitFunc

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	workers map[string]*workspaceWorker
	closed  bool
}

func newConnectionSupervisor(clients *workspaceClients, handler FrameHandler, baseDelay time.Duration) *ConnectionSupervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionSupervisor{
		clients:   clients,
		handler:   handler,
		baseDelay: baseDelay,
		wait:      sleepContext,
		baseCtx:   ctx,
		cancel:    cancel,
		workers:   make(map[string]*workspaceWorker),
	}
}

// Start opens the realtime connection of teamID and supervises it in the
// background. A failure of this first connect is returned and leaves the
// workspace Closed. An existing connection of teamID is closed first.
func (s *ConnectionSupervisor) Start(ctx context.Context, teamID string) error {
	w := newWorkspaceWorker(teamID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return goerr.Wrap(ErrSupervisorClosed, "cannot start workspace", goerr.V(model.TeamIDKey, teamID))
	}
	old := s.workers[teamID]
	s.workers[teamID] = w
	s.mu.Unlock()

	logger := logging.From(ctx).With("team_id", teamID)
	if old != nil {
		logger.Info("replacing realtime connection of re-installed workspace")
		old.stop(ctx)
	}

	conn, session, err := s.open(ctx, teamID)
	if err != nil {
		w.setState(model.ConnectionClosed)
		return goerr.Wrap(model.ErrUpstreamUnavailable, "failed to open realtime connection",
			goerr.V(model.TeamIDKey, teamID), goerr.V("cause", err.Error()))
	}

	wctx, cancel := context.WithCancel(s.baseCtx)
	wctx = logging.With(wctx, logger)

	started := w.launch(conn, cancel, func() <-chan struct{} {
		return async.Dispatch(wctx, func(ctx context.Context) error {
			return s.run(ctx, w, conn, session)
		})
	})
	if !started {
		cancel()
		closeConnection(ctx, conn)
		return goerr.Wrap(ErrSupervisorClosed, "workspace was stopped while connecting",
			goerr.V(model.TeamIDKey, teamID))
	}

	logger.Info("realtime connection established",
		model.ConnIDKey, session.ConnectionID,
		"bot_user_id", session.BotUserID)
	return nil
}

// Close disconnects every workspace and cancels pending reconnect waits.
// A failing disconnect is logged and does not stop the others.
func (s *ConnectionSupervisor) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	workers := make([]*workspaceWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Go(func() { w.stop(ctx) })
	}
	wg.Wait()
	s.cancel()
}

// State returns the connection status of teamID.
func (s *ConnectionSupervisor) State(teamID string) (model.ConnectionStatus, bool) {
	s.mu.Lock()
	w, ok := s.workers[teamID]
	s.mu.Unlock()
	if !ok {
		return model.ConnectionStatus{}, false
	}
	return w.status(), true
}

// States returns the status of every workspace ordered by team ID.
func (s *ConnectionSupervisor) States() []model.ConnectionStatus {
	s.mu.Lock()
	result := make([]model.ConnectionStatus, 0, len(s.workers))
	for _, w := range s.workers {
		result = append(result, w.status())
	}
	s.mu.Unlock()

	slices.SortFunc(result, func(a, b model.ConnectionStatus) int {
		return strings.Compare(a.TeamID, b.TeamID)
	})
	return result
}

func (s *ConnectionSupervisor) open(ctx context.Context, teamID string) (interfaces.RealtimeConnection, model.WorkspaceSession, error) {
	// the token is read on every attempt so a re-installation takes effect
	api, err := s.clients.For(teamID)
	if err != nil {
		return nil, model.WorkspaceSession{}, err
	}

	ident, err := api.AuthTest(ctx)
	if err != nil {
		return nil, model.WorkspaceSession{}, err
	}
	if ident.TeamID != "" && ident.TeamID != teamID {
		logging.From(ctx).Warn("token belongs to another team",
			"team_id", teamID, "auth_team_id", ident.TeamID)
	}

	conn, err := api.ConnectRealtime(ctx)
	if err != nil {
		return nil, model.WorkspaceSession{}, err
	}

	return conn, model.WorkspaceSession{
		TeamID:       teamID,
		BotUserID:    ident.BotUserID,
		ConnectionID: conn.ID(),
	}, nil
}

func (s *ConnectionSupervisor) run(ctx context.Context, w *workspaceWorker, conn interfaces.RealtimeConnection, session model.WorkspaceSession) error {
	for {
		for frame := range conn.Messages() {
			s.handler.Handle(ctx, session, frame)
		}

		reason := <-conn.Closed()
		logger := logging.From(ctx).With(model.ConnIDKey, session.ConnectionID)
		if !reason.Abnormal() || ctx.Err() != nil {
			logger.Info("realtime connection closed")
			w.setState(model.ConnectionClosed)
			return nil
		}

		logger.Warn("realtime connection closed abnormally",
			"code", reason.Code,
			"error", reason.Err)

		var err error
		conn, session, err = s.reconnect(ctx, w)
		if err != nil {
			w.setState(model.ConnectionClosed)
			return nil
		}

		logging.From(ctx).Info("realtime connection re-established", model.ConnIDKey, session.ConnectionID)
	}
}

// reconnect retries until a connection opens or ctx is cancelled.
func (s *ConnectionSupervisor) reconnect(ctx context.Context, w *workspaceWorker) (interfaces.RealtimeConnection, model.WorkspaceSession, error) {
	logger := logging.From(ctx)
	w.setState(model.ConnectionReconnectBackoff)

	for {
		delay := backoffDelay(s.baseDelay, w.status().ReconnectAttempts)
		if err := s.wait(ctx, delay); err != nil {
			return nil, model.WorkspaceSession{}, err
		}

		conn, session, err := s.open(ctx, w.teamID)
		if err == nil {
			if !w.attach(conn) {
				closeConnection(ctx, conn)
				return nil, model.WorkspaceSession{}, ErrSupervisorClosed
			}
			return conn, session, nil
		}
		if ctx.Err() != nil {
			return nil, model.WorkspaceSession{}, ctx.Err()
		}

		attempts := w.failed()
		metrics.ReconnectAttempts.WithLabelValues(w.teamID).Inc()
		logger.Warn("failed to reopen realtime connection",
			model.AttemptKey, attempts,
			"next_delay", backoffDelay(s.baseDelay, attempts).String(),
			"error", err)
	}
}

func closeConnection(ctx context.Context, conn interfaces.RealtimeConnection) {
	if err := conn.Close(); err != nil {
		logging.From(ctx).Warn("failed to close realtime connection",
			model.ConnIDKey, conn.ID(), "error", err)
	}
}

// workspaceWorker is the mutable state of one supervised workspace.
type workspaceWorker struct {
	teamID string

	mu       sync.Mutex
	state    model.ConnectionState
	attempts int
	conn     interfaces.RealtimeConnection
	cancel   context.CancelFunc
	done     <-chan struct{}
	stopped  bool
}

func newWorkspaceWorker(teamID string) *workspaceWorker {
	w := &workspaceWorker{teamID: teamID}
	w.setState(model.ConnectionConnecting)
	return w
}

// launch records the first connection and starts the run goroutine.
// It reports false when the worker was stopped in the meantime.
func (w *workspaceWorker) launch(conn interfaces.RealtimeConnection, cancel context.CancelFunc, start func() <-chan struct{}) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	w.conn = conn
	w.cancel = cancel
	w.attempts = 0
	w.setStateLocked(model.ConnectionConnected)
	w.done = start()
	return true
}

// attach records a reopened connection.
func (w *workspaceWorker) attach(conn interfaces.RealtimeConnection) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	w.conn = conn
	w.attempts = 0
	w.setStateLocked(model.ConnectionConnected)
	return true
}

func (w *workspaceWorker) failed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++
	return w.attempts
}

// stop closes the live connection intentionally and waits for the run goroutine.
func (w *workspaceWorker) stop(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	conn, cancel, done := w.conn, w.cancel, w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		closeConnection(ctx, conn)
	}
	if done != nil {
		<-done
	}
	w.setState(model.ConnectionClosed)
}

func (w *workspaceWorker) setState(state model.ConnectionState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setStateLocked(state)
}

func (w *workspaceWorker) setStateLocked(state model.ConnectionState) {
	w.state = state
	metrics.SetConnectionState(w.teamID, string(state), model.AllConnectionStates())
}

func (w *workspaceWorker) status() model.ConnectionStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := model.ConnectionStatus{
		TeamID:            w.teamID,
		State:             w.state,
		ReconnectAttempts: w.attempts,
	}
	if w.conn != nil && w.state == model.ConnectionConnected {
		st.ConnectionID = w.conn.ID()
	}
	return st
}
