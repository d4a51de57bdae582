package vercel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buddy-mcp/config"
)

type call struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func newFakeVercel(t *testing.T, teamID string, handler func(w http.ResponseWriter, r *http.Request)) (*Client, func() []call) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&c.Body)
		}
		mu.Lock()
		calls = append(calls, c)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	get := func() []call {
		mu.Lock()
		defer mu.Unlock()
		return append([]call(nil), calls...)
	}
	return New(config.Vercel{Token: "vtoken", TeamID: teamID, BaseURL: srv.URL}, false), get
}

func TestDeploy(t *testing.T) {
	c, calls := newFakeVercel(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"dpl_1","url":"app-abc.vercel.app","readyState":"QUEUED","name":"app"}`))
	})

	out, err := c.Deploy(context.Background(), "prj_1", map[string]any{"type": "github", "ref": "main"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"dpl_1","url":"app-abc.vercel.app","state":"QUEUED"}`, out)

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].Method)
	assert.Equal(t, "/v13/deployments", got[0].Path)
	assert.Equal(t, "Bearer vtoken", got[0].Auth)
	assert.Equal(t, "prj_1", got[0].Body["projectId"])
	assert.Equal(t, "production", got[0].Body["target"])
	assert.Equal(t, map[string]any{"type": "github", "ref": "main"}, got[0].Body["gitSource"])
}

func TestDeployWithoutGitSource(t *testing.T) {
	c, calls := newFakeVercel(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"dpl_2"}`))
	})
	_, err := c.Deploy(context.Background(), "prj_1", nil)
	require.NoError(t, err)
	_, ok := calls()[0].Body["gitSource"]
	assert.False(t, ok)
}

func TestDeployForwardsEmptyGitSource(t *testing.T) {
	c, calls := newFakeVercel(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"dpl_3"}`))
	})
	_, err := c.Deploy(context.Background(), "prj_1", map[string]any{})
	require.NoError(t, err)
	got, ok := calls()[0].Body["gitSource"]
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, got)
}

func TestGetDeployment(t *testing.T) {
	c, calls := newFakeVercel(t, "team_9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"dpl_1","url":"u","readyState":"READY","createdAt":1,"buildingAt":2,"ready":3}`))
	})

	out, err := c.GetDeployment(context.Background(), "dpl_1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"dpl_1","url":"u","state":"READY","createdAt":1,"buildingAt":2,"ready":3}`, out)
	assert.Equal(t, "/v13/deployments/dpl_1", calls()[0].Path)
	assert.Equal(t, "teamId=team_9", calls()[0].Query)
}

func TestListProjects(t *testing.T) {
	c, calls := newFakeVercel(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"projects":[{"id":"p1","name":"web","framework":"nextjs","updatedAt":10,"extra":true},{"id":"p2","name":"api","framework":null,"updatedAt":11}]}`))
	})

	out, err := c.ListProjects(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1","name":"web","framework":"nextjs","updatedAt":10},{"id":"p2","name":"api","framework":null,"updatedAt":11}]`, out)
	assert.Equal(t, "limit=20", calls()[0].Query)

	_, err = c.ListProjects(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "limit=5", calls()[1].Query)
}

func TestAPIErrorIncludesBody(t *testing.T) {
	c, _ := newFakeVercel(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"forbidden","message":"Not authorized"}}`))
	})

	_, err := c.GetDeployment(context.Background(), "dpl_1")
	require.Error(t, err)
	assert.Equal(t, `vercel get deployment: vercel api error: {"error":{"code":"forbidden","message":"Not authorized"}}`, err.Error())
}

func TestNotConfigured(t *testing.T) {
	c := New(config.Vercel{}, false)
	_, err := c.ListProjects(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotConfigured), "got %v", err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
