// Package http serves the JSON API for the tracker.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

// Pinger is the readiness-check surface of the repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries everything the server needs to handle requests.
type Dependencies struct {
	Transactions  *services.TransactionService
	Subscriptions *services.SubscriptionService
	Stats         *services.StatsService
	Catalog       *core.Catalog
	DB            Pinger
}

// Server is the HTTP front of the tracker. Requests flow through security
// headers, tracing and rate limiting before reaching the handlers.
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	deps       Dependencies
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(detector.ExtractClientIP)
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	s := &Server{limiter: limiter, deps: deps}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux
	handler = limiter.Middleware(detector.ExtractClientIP, nil)(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = suspicionLogger(detector)(handler)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("POST /api/subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.handleUpdateSubscription)
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.handleDeleteSubscription)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)

	mux.HandleFunc("GET /api/stats/income", s.handleIncomeStats)
	mux.HandleFunc("GET /api/stats/expense", s.handleExpenseStats)
	mux.HandleFunc("GET /api/stats/summary", s.handleSummaryStats)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
}

// suspicionLogger flags requests matching known attack patterns. They are
// logged and counted, not blocked; the rate limiter handles volume.
func suspicionLogger(detector *security.Detector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if detector.DetectSuspiciousRequest(r) {
				slog.WarnContext(r.Context(), "Suspicious request detected",
					"method", r.Method,
					"path", r.URL.Path,
					"client_ip", detector.ExtractClientIP(r))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, envelope{Error: "database unavailable"})
			return
		}
	}
	writeData(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
