package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/metrics"
	"github.com/secmon-lab/briareos/pkg/utils/safe"
)

// StatusProvider reports the realtime connection of every workspace.
type StatusProvider interface {
	States() []model.ConnectionStatus
}

// Installer completes an OAuth installation.
type Installer interface {
	Install(ctx context.Context, code string) (*model.WorkspaceInstallation, error)
}

type Server struct {
	router    *chi.Mux
	status    StatusProvider
	installer Installer
}

type Options func(*Server)

// WithInstaller mounts the OAuth redirect endpoint. Only set it in dynamic mode.
func WithInstaller(installer Installer) Options {
	return func(s *Server) {
		s.installer = installer
	}
}

func New(status StatusProvider, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		status: status,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.status))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if s.installer != nil {
		r.Get("/slack/oauth/redirect", oauthRedirectHandler(s.installer))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewHTTPServer wraps handler with the server timeouts used by serve.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}
}

// healthHandler returns a handler that serves the connection states as JSON
func healthHandler(status StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := status.States()
		if states == nil {
			states = []model.ConnectionStatus{}
		}

		data, err := json.Marshal(states)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal health response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		safe.Write(r.Context(), w, data)
	}
}
