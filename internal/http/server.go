// Package http serves the ledger JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"coinjar/internal/cache"
	"coinjar/internal/core"
	"coinjar/internal/history"
	"coinjar/internal/ledger"
	"coinjar/internal/log"
	"coinjar/internal/middleware/ratelimit"
	"coinjar/internal/middleware/security"
	"coinjar/internal/middleware/trace"
)

// Ledger is what the handlers need from the ledger service.
type Ledger interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) (ledger.Deletion, error)

	AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.Account, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, core.Account, error)
	ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error)

	AccountHistory(ctx context.Context, id uuid.UUID, w history.Window) (core.Account, []history.Point, error)
	NetWorth(ctx context.Context) (core.NetWorth, error)
	NetWorthHistory(ctx context.Context, w history.Window) ([]history.Point, error)
	Today() civil.Date
	CacheStats() cache.Stats
}

// Options configures the API server. Zero values pick defaults.
type Options struct {
	Logger            *log.Logger
	CORSOrigins       []string
	HistoryMaxDays    int
	Version           string
	RequestsPerMinute int
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	ledger Ledger
	opts   Options
	logger *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, l Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		ledger:   l,
		opts:     opts,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: security.NewDetector(opts.Logger),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(log.Middleware(s.opts.Logger))
	r.Use(log.ComponentMiddleware(log.ComponentHTTP))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string { return chimw.GetReqID(r.Context()) }))
	r.Use(s.tracer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, true, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/account", s.handleListAccounts)
		r.Post("/account", s.handleCreateAccount)
		r.Get("/account/{id}", s.handleGetAccount)
		r.Delete("/account/{id}", s.handleDeleteAccount)
		r.Get("/account/{id}/history", s.handleAccountHistory)

		r.Get("/transaction", s.handleListTransactions)
		r.Post("/transaction/add", s.handleAddTransaction)
		r.Delete("/transaction/delete/{id}", s.handleDeleteTransaction)

		r.Get("/networth", s.handleNetWorth)
		r.Get("/networth/history", s.handleNetWorthHistory)
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
