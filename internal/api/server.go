package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zombor/billed/internal/logger"
)

// Options configures the server middleware
type Options struct {
	// RateLimit is the number of requests per second allowed; zero disables limiting
	RateLimit float64
	RateBurst int
}

// Server handles HTTP requests for the bill store
type Server struct {
	service *Service
	mux     *http.ServeMux
	limiter *rate.Limiter
	log     *zap.Logger
	handler http.Handler
	http    *http.Server
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, opts Options, log *zap.Logger) *Server {
	return NewServerWithMux(service, opts, log, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, opts Options, log *zap.Logger, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		mux:     mux,
		log:     logger.OrNop(log),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	s.registerRoutes()
	s.handler = s.logRequests(s.corsMiddleware(s.rateLimit(s.mux)))
	return s
}

// corsMiddleware adds CORS headers to responses and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects requests beyond the configured rate with 429
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.Warn("Rate limit exceeded", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /bills", s.handleListBills)
	s.mux.HandleFunc("POST /bills", s.handleCreateBill)
	s.mux.HandleFunc("PATCH /bills/{id}", s.handleUpdateBill)

	s.mux.HandleFunc("POST /files", s.handleUploadFile)
	s.mux.HandleFunc("GET /files/{key}", s.handleGetFile)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("Starting server", zap.String("address", addr))
	s.http = &http.Server{Addr: addr, Handler: s.handler}
	return s.http.ListenAndServe()
}

// Shutdown stops a server started with Start
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// ServeHTTP implements http.Handler with the full middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
