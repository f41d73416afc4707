package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "budgetsync/internal/log"
	"budgetsync/internal/middleware/ratelimit"
	"budgetsync/internal/middleware/security"
	"budgetsync/internal/middleware/trace"
	"budgetsync/internal/services"
	"budgetsync/internal/storage"
)

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context, req services.RunRequest) services.RunResult
}

// RunLister reads run history.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]storage.Run, error)
	GetRun(ctx context.Context, id string) (storage.Run, error)
}

// ReadyCheck reports whether dependencies are reachable.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	http.Server
	reconciler Reconciler
	runs       RunLister
	ready      ReadyCheck
	logger     *applog.Logger
	tracer     *trace.Middleware
	limiter    *ratelimit.Limiter

	// Reconcile runs are serialized; a run owns the whole ledger.
	runMu sync.Mutex

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadyCheck sets the check behind /readyz.
func WithReadyCheck(check ReadyCheck) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit limits POST /api/reconcile per client.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limiter = ratelimit.NewLimiter(cfg) }
}

// NewServer configures routes, returning a ready-to-run server. runs may be
// nil when history is disabled.
func NewServer(addr string, reconciler Reconciler, runs RunLister, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		reconciler: reconciler,
		runs:       runs,
		tracer:     trace.NewMiddleware(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig())
	}

	var reconcile http.Handler = http.HandlerFunc(s.handleReconcile)
	if s.limiter != nil {
		reconcile = s.limiter.Middleware(ratelimit.ClientIP)(reconcile)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("POST /api/reconcile", reconcile)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(s.logger, trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
