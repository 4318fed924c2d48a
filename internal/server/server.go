package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	router       *chi.Mux
	processor    *pipeline.Processor
	validator    *validation.Validator
	threshold    float64
	strategyOpts strategy.Options
	apiKeys      []string
	limiter      *RateLimiter
	corsOrigins  []string
	mcpHandler   http.Handler
	version      string
	maxBodyBytes int64
	startTime    time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithValidator sets the LLM validator used when a detect request asks for
// it, and the default review threshold.
func WithValidator(v *validation.Validator, threshold float64) Option {
	return func(s *Server) {
		s.validator = v
		s.threshold = threshold
	}
}

// WithStrategyOptions sets the parameters used to build strategies per request.
func WithStrategyOptions(o strategy.Options) Option {
	return func(s *Server) { s.strategyOpts = o }
}

// WithAPIKeys enables API key authentication. Empty disables it.
func WithAPIKeys(keys []string) Option {
	return func(s *Server) { s.apiKeys = keys }
}

// WithRateLimiter sets the request rate limiter (nil disables).
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"]).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) { s.mcpHandler = h }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer builds a Server around processor. The processor supplies the
// detector set and normalization; strategies and validation are chosen per
// request.
func NewServer(processor *pipeline.Processor, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		processor:    processor,
		threshold:    validation.DefaultThreshold,
		corsOrigins:  []string{"*"},
		version:      "dev",
		maxBodyBytes: defaultMaxBodyBytes,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler (chi router with all middleware and routes).
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(psotel.Middleware())
	r.Use(requestLogger)
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKeys))
		r.Use(RateLimitMiddleware(s.limiter))

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.Timeout(defaultTimeout))
			r.Get("/strategies", s.handleStrategies)
			r.Post("/detect", s.handleDetect)
			r.Post("/anonymize", s.handleAnonymize)
			r.Post("/process", s.handleProcess)
		})

		if s.mcpHandler != nil {
			r.Handle("/mcp", s.mcpHandler)
		}
	})

	return r
}

// requestLogger logs one line per request and reports the handling time
// in X-Process-Time-Ms.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(&timingWriter{ResponseWriter: ww, start: start}, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Func(psotel.LogTraceFields(r.Context())).
			Msg("http_request")
	})
}

// timingWriter stamps X-Process-Time-Ms just before the header is sent.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (t *timingWriter) WriteHeader(code int) {
	if !t.wroteHeader {
		t.wroteHeader = true
		ms := float64(time.Since(t.start).Microseconds()) / 1000
		t.Header().Set("X-Process-Time-Ms", strconv.FormatFloat(ms, 'f', 2, 64))
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

func (t *timingWriter) Flush() {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (t *timingWriter) Unwrap() http.ResponseWriter { return t.ResponseWriter }
