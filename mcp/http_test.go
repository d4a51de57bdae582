package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buddy-mcp/tools"
)

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
}

func TestHTTPToolsCallQuery(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := post(t, h, "/", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"supabase_query","arguments":{"table":"users","filters":{"id":5}}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assertCORS(t, rec.Header())

	var got struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, 2, got.ID)
	require.Len(t, got.Result.Content, 1)
	assert.Equal(t, "text", got.Result.Content[0].Type)
	assert.Equal(t, `[{"id":5,"name":"a"}]`, got.Result.Content[0].Text)
}

func TestHTTPInitializeOnAPIPath(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := post(t, h, "/api/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"jsonrpc":"2.0",
		"id":1,
		"result":{
			"protocolVersion":"2024-11-05",
			"capabilities":{"tools":{}},
			"serverInfo":{"name":"buddy-mcp-server","version":"1.0.0"}
		}
	}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHTTPToolErrorsAreStatusOK(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := post(t, h, "/", `{"jsonrpc":"2.0","id":"x","method":"tools/call","params":{"name":"does_not_exist","arguments":{}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.JSONEq(t, `"x"`, string(got.ID))
	assert.Nil(t, got.Result)
	require.NotNil(t, got.Error)
	assert.Equal(t, -32603, got.Error.Code)
	assert.Contains(t, got.Error.Message, "does_not_exist")
	assert.Equal(t, map[string]any{"kind": string(tools.UnknownOperation)}, got.Error.Data)
}

func TestHTTPUnknownMethodAndMissingID(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := post(t, h, "/", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{}}`, rec.Body.String())
}

func TestHTTPMalformedBody(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	for _, body := range []string{`{not json`, `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, ``, `null`, ` null `, `"initialize"`, `5`} {
		rec := post(t, h, "/", body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, body)

		var got Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "2.0", got.JSONRPC)
		require.NotNil(t, got.Error)
		assert.Equal(t, CodeInternalError, got.Error.Code)
		assert.NotEmpty(t, got.Error.Message)
	}
}

func TestHTTPNullBodyIsRejected(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := post(t, h, "/", `null`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"invalid request body: expected a JSON object"}}`, rec.Body.String())
}

func TestHTTPOptions(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec.Header())
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
		assertCORS(t, rec.Header())
	}
}

func TestHTTPStatus(t *testing.T) {
	h := newTestServer(t, Options{Version: "0.9.0"}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusPayload{
		Status:          "ok",
		Name:            ServerName,
		Version:         "0.9.0",
		ProtocolVersion: ProtocolVersion,
		Tools:           11,
	}, got)
}

func TestHTTPRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestHTTPMetrics(t *testing.T) {
	h := newTestServer(t, Options{Metrics: NewMetrics()}).Handler()

	post(t, h, "/", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"supabase_query","arguments":{"table":"users"}}}`)
	post(t, h, "/", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `buddy_mcp_tool_calls_total{outcome="ok",tool="supabase_query"} 1`)
	assert.Contains(t, body, `buddy_mcp_tool_calls_total{outcome="unknown_operation",tool="unknown"} 1`)
	assert.Contains(t, body, `buddy_mcp_rpc_requests_total{method="tools/call"} 2`)
}

func TestHTTPMetricsDisabled(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPEventStream(t *testing.T) {
	s := newTestServer(t, Options{KeepAlive: 20 * time.Millisecond, Metrics: NewMetrics()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	r := bufio.NewReader(resp.Body)
	first, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first, "data: "), first)

	var event struct {
		JSONRPC string           `json:"jsonrpc"`
		Method  string           `json:"method"`
		Params  InitializeResult `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(first), "data: ")), &event))
	assert.Equal(t, "2.0", event.JSONRPC)
	assert.Equal(t, "server/initialized", event.Method)
	assert.Equal(t, ProtocolVersion, event.Params.ProtocolVersion)
	assert.Equal(t, ServerName, event.Params.ServerInfo.Name)

	blank, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\n", blank)

	for i := 0; i < 2; i++ {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, ": keepalive\n", line)
		blank, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "\n", blank)
	}

	cancel()
	_, err = io.Copy(io.Discard, resp.Body)
	assert.Error(t, err)
}

func TestHTTPEventStreamStopsWithServerContext(t *testing.T) {
	s := newTestServer(t, Options{KeepAlive: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not stop after cancellation")
	}
	assert.True(t, strings.HasPrefix(rec.Body.String(), "data: "))
}
