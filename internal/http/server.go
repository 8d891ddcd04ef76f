// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pennywise/internal/cache"
	"pennywise/internal/core"
	"pennywise/internal/middleware/ratelimit"
	"pennywise/internal/middleware/security"
	"pennywise/internal/middleware/trace"
	"pennywise/internal/services"
)

// Services bundles the application services the server dispatches to.
type Services struct {
	Auth      *services.AuthService
	Ledger    *services.Ledger
	Budgets   *services.BudgetService
	Projects  *services.ProjectService
	Summaries *services.Aggregator
}

// Options tunes the server-side protections.
type Options struct {
	RateLimitPerMinute int
	SummaryCacheSize   int
	SummaryCacheTTL    time.Duration
}

// DefaultOptions returns the values used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		RateLimitPerMinute: 120,
		SummaryCacheSize:   256,
		SummaryCacheTTL:    30 * time.Second,
	}
}

type Server struct {
	http.Server

	auth      *services.AuthService
	ledger    *services.Ledger
	budgets   *services.BudgetService
	projects  *services.ProjectService
	summaries *services.Aggregator

	summaryCache *cache.LRUCache[core.WindowSummary]
	limiter      *ratelimit.Limiter
	extractIP    func(*http.Request) string

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Services, opts Options) *Server {
	defaults := DefaultOptions()
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = defaults.SummaryCacheSize
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = defaults.SummaryCacheTTL
	}

	extractor := security.NewClientIPExtractor()

	s := &Server{
		auth:      deps.Auth,
		ledger:    deps.Ledger,
		budgets:   deps.Budgets,
		projects:  deps.Projects,
		summaries: deps.Summaries,

		summaryCache: cache.NewLRUCache[core.WindowSummary](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		extractIP:        extractor.ExtractClientIP,
		stopCacheCleanup: make(chan struct{}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.requireUser(s.handleLogout))
	mux.HandleFunc("GET /api/me", s.requireUser(s.handleMe))

	mux.HandleFunc("POST /api/budgets", s.requireUser(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.requireUser(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/current", s.requireUser(s.handleCurrentBudget))
	mux.HandleFunc("GET /api/budgets/{id}", s.requireUser(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.requireUser(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.requireUser(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/{id}/expenses", s.requireUser(s.handleListBudgetExpenses))

	mux.HandleFunc("POST /api/projects", s.requireUser(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects", s.requireUser(s.handleListProjects))
	mux.HandleFunc("GET /api/projects/{id}", s.requireUser(s.handleGetProject))
	mux.HandleFunc("PUT /api/projects/{id}", s.requireUser(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.requireUser(s.handleDeleteProject))
	mux.HandleFunc("GET /api/projects/{id}/expenses", s.requireUser(s.handleListProjectExpenses))
	mux.HandleFunc("GET /api/projects/{id}/summary", s.requireUser(s.handleProjectSummary))

	mux.HandleFunc("POST /api/expenses", s.requireUser(s.handleRecordExpense))
	mux.HandleFunc("GET /api/expenses", s.requireUser(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/summary", s.requireUser(s.handleUserSummary))
	mux.HandleFunc("GET /api/expenses/{id}", s.requireUser(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.requireUser(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireUser(s.handleDeleteExpense))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.extractIP)
	limited := s.limiter.Middleware(s.extractIP, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(tracer.Middleware(limited(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go s.startCacheCleanup()

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.summaryCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
