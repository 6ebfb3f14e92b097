package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/api/middleware"
	"github.com/khanhnv2901/seca-recon/internal/gateway"
	"go.uber.org/zap"
)

// APIKeyHeader carries the shared secret on probe requests.
const APIKeyHeader = "X-API-Key"

// Info is the document served on the API roots.
type Info struct {
	Message        string            `json:"message"`
	Version        string            `json:"version"`
	Endpoints      map[string]string `json:"endpoints"`
	Authentication string            `json:"authentication"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/", "/api/v1", "/api/v1/":
	default:
		s.requestLogger(r).Warn("endpoint_not_found", zap.String("remote_addr", r.RemoteAddr))
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.methodNotAllowed(w, r, "GET")
		return
	}

	endpoints := map[string]string{
		"/check_website": "POST - Check website accessibility",
		"/check_port":    "POST - Check port status",
		"/banner_grab":   "POST - Grab banner information",
		"/health":        "GET - Service health",
	}
	if s.cfg.Metrics != nil {
		endpoints["/metrics"] = "GET - Prometheus metrics"
	}

	writeJSON(w, http.StatusOK, Info{
		Message:        "SECA recon API is running.",
		Version:        s.cfg.Version,
		Endpoints:      endpoints,
		Authentication: "Requires " + APIKeyHeader + " header",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.methodNotAllowed(w, r, "GET")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: s.cfg.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.methodNotAllowed(w, r, "GET")
			return
		}
		s.cfg.Metrics.ServeHTTP(w, r)
	})
}

// handleProbe decodes the JSON body for op, hands it to the gateway and maps
// the outcome onto a response. Probe-level failures are part of a 200 body.
func (s *Server) handleProbe(op gateway.Operation) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.methodNotAllowed(w, r, "POST")
			return
		}

		body, ok := s.decodeBody(w, r)
		if !ok {
			return
		}

		req := gateway.Request{
			Operation: op,
			APIKey:    r.Header.Get(APIKeyHeader),
			ClientID:  s.clientIdentity(r),
		}
		switch op {
		case gateway.OpWebsite:
			req.URL = stringField(body, "url")
		default:
			req.Host = stringField(body, "host")
			req.Port = body["port"]
		}

		result, err := s.cfg.Gateway.Handle(r.Context(), req)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}

		s.requestLogger(r).Debug("probe_served", zap.String("operation", string(op)))
		writeJSON(w, http.StatusOK, result)
	})
}

// decodeBody parses a JSON object, keeping numbers as json.Number so port
// values are checked without float rounding.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unable to read request body"})
		return nil, false
	}

	dec := json.NewDecoder(&buf)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		s.requestLogger(r).Warn("invalid_json", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return nil, false
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": middleware.MsgEmptyBody})
		return nil, false
	}
	return body, true
}

// stringField returns body[key] when it is a string. Any other type reads as
// absent, which the validators report as a missing field.
func stringField(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}
