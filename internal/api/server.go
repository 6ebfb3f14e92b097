package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/api/middleware"
	"github.com/khanhnv2901/seca-recon/internal/gateway"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"go.uber.org/zap"
)

// ProbeGateway runs a probe request through authentication, rate limiting
// and validation before executing it.
type ProbeGateway interface {
	Handle(ctx context.Context, req gateway.Request) (any, error)
}

type Config struct {
	Gateway           ProbeGateway
	Logger            *zap.Logger
	CORSOrigins       []string     // Allowed CORS origins ("*" = allow all)
	Metrics           http.Handler // Served on /metrics when non-nil
	Version           string
	TrustProxyHeaders bool  // Use X-Forwarded-For for client identity
	MaxBodyBytes      int64 // POST body cap (0 = default 1 MiB)
	Now               func() time.Time
}

type Server struct {
	cfg     Config
	mux     *http.ServeMux
	handler http.Handler
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = consts.MaxRequestBodyBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	srv := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	srv.routes()

	// RequestID -> Recover -> Logging -> SecurityHeaders -> CORS -> JSON gate -> mux
	srv.handler = middleware.RequestID(
		middleware.Recover(cfg.Logger)(
			srv.withLogging(
				middleware.SecurityHeaders(
					srv.withCORS(
						middleware.RequireJSON(cfg.MaxBodyBytes)(srv.mux),
					),
				),
			),
		),
	)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	website := s.handleProbe(gateway.OpWebsite)
	port := s.handleProbe(gateway.OpPort)
	banner := s.handleProbe(gateway.OpBanner)

	for _, prefix := range []string{"", "/api/v1"} {
		s.mux.HandleFunc(prefix+"/health", s.handleHealth)
		s.mux.Handle(prefix+"/check_website", website)
		s.mux.Handle(prefix+"/check_port", port)
		s.mux.Handle(prefix+"/banner_grab", banner)
		if s.cfg.Metrics != nil {
			s.mux.Handle(prefix+"/metrics", s.handleMetrics())
		}
	}

	// Catch-all: the info document on the roots, JSON 404 elsewhere.
	s.mux.HandleFunc("/", s.handleRoot)
}

// withCORS echoes allowed origins. Preflight requests are answered directly.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := ""
		for _, allowed := range s.cfg.CORSOrigins {
			if allowed == "*" {
				allowOrigin = "*"
				break
			}
			if origin != "" && strings.EqualFold(allowed, origin) {
				allowOrigin = origin
				break
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
			if allowOrigin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.cfg.Logger.Info("http_request",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes", lrw.bytesWritten),
		)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sharederrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, sharederrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, sharederrors.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = middleware.GenericErrorMessage
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	w.Header().Set("Allow", allow)
	s.requestLogger(r).Warn("method_not_allowed")
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

// clientIdentity is the host part of the peer address, or the first
// X-Forwarded-For entry when proxy headers are trusted.
func (s *Server) clientIdentity(r *http.Request) string {
	if s.cfg.TrustProxyHeaders {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
