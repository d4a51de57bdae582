package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// serveEvents writes one server/initialized event and then a keepalive
// comment every keepAlive interval until the client goes away or the
// request context is cancelled.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	event, err := json.Marshal(Notification{
		JSONRPC: "2.0",
		Method:  "server/initialized",
		Params:  s.initializeResult(),
	})
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event); err != nil {
		return
	}
	flusher.Flush()

	s.metrics.streamOpened()
	defer s.metrics.streamClosed()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
