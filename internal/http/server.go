// Package http exposes the recommendation engine as a JSON API. Every
// mutating endpoint operates on the caller's session overlay and answers
// with the full recomputed metrics record, so clients never assemble state
// from partial responses.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/engine"
	"finpulse/internal/log"
	"finpulse/internal/middleware/ratelimit"
	"finpulse/internal/middleware/security"
	"finpulse/internal/middleware/trace"
)

// MetricsAPI is the service surface the handlers call into.
type MetricsAPI interface {
	Dashboard(ctx context.Context, userID string) (core.MetricsRecord, error)
	ApplyPayment(ctx context.Context, userID, obligationID string, amount core.Money) (core.MetricsRecord, error)
	SetBankEnabled(ctx context.Context, userID, bankID string, enabled bool) (core.MetricsRecord, error)
	RecordSpend(ctx context.Context, userID string, amount core.Money) (core.MetricsRecord, error)
	UpdateSettings(ctx context.Context, userID string, settings engine.Settings) (core.MetricsRecord, error)
	Refinance(ctx context.Context, userID string) (*core.RefinanceInsight, error)
	RequestRefresh(ctx context.Context, userID string) error
	ResetSession(userID string)
}

type Server struct {
	http.Server

	api          MetricsAPI
	logger       *log.Logger
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, api MetricsAPI, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		api:         api,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/refinance", s.handleRefinance)
	mux.HandleFunc("POST /api/v1/payments", s.handleApplyPayment)
	mux.HandleFunc("POST /api/v1/banks/{bankID}/enabled", s.handleSetBankEnabled)
	mux.HandleFunc("POST /api/v1/spend", s.handleRecordSpend)
	mux.HandleFunc("PUT /api/v1/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRequestRefresh)
	mux.HandleFunc("POST /api/v1/session/reset", s.handleResetSession)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)
	ctxLogger := log.Middleware(s.logger)
	withRequestID := log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})

	s.Handler = headers.Middleware(tracer.Middleware(ctxLogger(withRequestID(limited(mux)))))
	return s
}

// Shutdown stops the server and its background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
