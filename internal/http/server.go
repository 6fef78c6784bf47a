package http

import (
	"context"
	"net/http"

	"gofinances/internal/middleware/ratelimit"
	"gofinances/internal/middleware/security"
	"gofinances/internal/middleware/trace"
	"gofinances/internal/services"
)

// Options configures the HTTP surface around the handlers.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64

	// RateLimitPerMinute caps requests per client IP. Zero disables limiting.
	RateLimitPerMinute int
}

// Server exposes the ledger as a JSON API.
type Server struct {
	http.Server
	transactions   *services.TransactionService
	deletions      *services.DeletionService
	imports        *services.ImportService
	limiter        *ratelimit.Limiter
	uploadDir      string
	maxUploadBytes int64
}

// NewServer configures routes and middleware and returns a ready-to-run server.
func NewServer(addr string, transactions *services.TransactionService, deletions *services.DeletionService, imports *services.ImportService, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		transactions:   transactions,
		deletions:      deletions,
		imports:        imports,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /transactions/import", s.handleImportTransactions)

	var handler http.Handler = mux
	handler = trace.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		handler = s.limiter.Middleware(ratelimit.ClientIP)(handler)
	}

	s.Server.Addr = addr
	s.Server.Handler = handler

	return s
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
