package github

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"buddy-mcp/logger"
)

func TestLoggingTransport(t *testing.T) {
	var buf bytes.Buffer
	logger.EnableDebugWithWriter(&buf)
	t.Cleanup(func() { logger.SetOutput(io.Discard, zerolog.InfoLevel) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := &http.Client{Transport: &loggingTransport{transport: http.DefaultTransport}}
	resp, err := client.Get(srv.URL + "/repos/octo/demo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if !strings.Contains(buf.String(), "API: GET "+srv.URL+"/repos/octo/demo") {
		t.Fatalf("request not logged: %q", buf.String())
	}
}
