package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"buddy-mcp/tools"
)

// maxBodyBytes bounds a POST envelope; file writes travel inline.
const maxBodyBytes = 10 << 20

// Handler returns the HTTP surface: the MCP endpoint on "/" and
// "/api/mcp", plus "/metrics" when metrics are enabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/{$}", s)
	mux.Handle("/api/mcp", s)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return s.withRequestLog(mux)
}

// ServeHTTP serves the MCP endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if acceptsEventStream(r) {
			s.serveEvents(w, r)
			return
		}
		s.serveStatus(w)
	case http.MethodPost:
		s.servePost(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func acceptsEventStream(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(v, "text/event-stream") {
			return true
		}
	}
	return false
}

// StatusPayload is returned by a plain GET.
type StatusPayload struct {
	Status          string `json:"status"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocolVersion"`
	Tools           int    `json:"tools"`
}

func (s *Server) serveStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, StatusPayload{
		Status:          "ok",
		Name:            ServerName,
		Version:         s.version,
		ProtocolVersion: ProtocolVersion,
		Tools:           len(tools.Catalog()),
	})
}

func (s *Server) servePost(w http.ResponseWriter, r *http.Request) {
	var req Request
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Str("method", req.Method).Msg("request handler panicked")
			writeJSON(w, http.StatusInternalServerError, errInternal(req.ID, fmt.Sprint(rec)))
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errInternal(nil, fmt.Sprintf("read request body: %v", err)))
		return
	}
	// null, arrays and scalars would otherwise decode into an empty request.
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		writeJSON(w, http.StatusInternalServerError, errInternal(nil, "invalid request body: expected a JSON object"))
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errInternal(nil, fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, s.Handle(r.Context(), &req))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response status for logging. It forwards
// Flush so that event streams keep working behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		l := s.log.With().Str("request_id", id).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(l.WithContext(r.Context())))
		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
