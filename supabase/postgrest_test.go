package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buddy-mcp/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   string
}

func newFakePostgREST(t *testing.T, status int, response string) (*PostgREST, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		reqs = append(reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	recorded := func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
	return NewPostgREST(config.Supabase{URL: srv.URL + "/", ServiceRoleKey: "service-key", Schema: "public"}, false), recorded
}

func TestPostgRESTQuery(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[ {"id": 5, "name": "a"} ]`)

	out, err := p.Query(context.Background(), "items", "", Filters{"id": json.Number("5")}, 0)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":5,"name":"a"}]`, out)

	require.Len(t, reqs(), 1)
	req := reqs()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/items", req.Path)
	assert.Equal(t, []string{"*"}, req.Query["select"])
	assert.Equal(t, []string{"eq.5"}, req.Query["id"])
	assert.Equal(t, "service-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", req.Header.Get("Authorization"))
	assert.Equal(t, "public", req.Header.Get("Accept-Profile"))
}

func TestPostgRESTQueryWithoutFilters(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[]`)

	out, err := p.Query(context.Background(), "items", "id,name", nil, 3)
	require.NoError(t, err)
	assert.Equal(t, `[]`, out)

	req := reqs()[0]
	assert.Equal(t, []string{"id,name"}, req.Query["select"])
	assert.Equal(t, []string{"3"}, req.Query["limit"])
	assert.Len(t, req.Query, 2)
}

func TestPostgRESTQueryPassesSelectAndTableThrough(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[{"title":"hi","author":{"name":"ann"}}]`)

	out, err := p.Query(context.Background(), "user-profiles", "title:name,*,author(name),id::text", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"hi","author":{"name":"ann"}}]`, out)

	req := reqs()[0]
	assert.Equal(t, "/rest/v1/user-profiles", req.Path)
	assert.Equal(t, []string{"title:name,*,author(name),id::text"}, req.Query["select"])
}

func TestPostgRESTNullFilter(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[]`)
	_, err := p.Query(context.Background(), "items", "", Filters{"deleted_at": nil, "active": true}, 0)
	require.NoError(t, err)
	req := reqs()[0]
	assert.Equal(t, []string{"is.null"}, req.Query["deleted_at"])
	assert.Equal(t, []string{"eq.true"}, req.Query["active"])
}

func TestPostgRESTInsert(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusCreated, `[{"id":1,"name":"x"}]`)

	out, err := p.Insert(context.Background(), "items", []Row{{"name": "x"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"name":"x"}]`, out)

	req := reqs()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
	assert.JSONEq(t, `[{"name":"x"}]`, req.Body)
}

func TestPostgRESTUpdateAndDelete(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[{"id":2}]`)
	ctx := context.Background()

	_, err := p.Update(ctx, "items", Filters{"id": json.Number("2")}, Row{"name": "y"})
	require.NoError(t, err)
	_, err = p.Delete(ctx, "items", Filters{"id": json.Number("2")})
	require.NoError(t, err)

	require.Len(t, reqs(), 2)
	assert.Equal(t, http.MethodPatch, reqs()[0].Method)
	assert.JSONEq(t, `{"name":"y"}`, reqs()[0].Body)
	assert.Equal(t, []string{"eq.2"}, reqs()[0].Query["id"])
	assert.Equal(t, http.MethodDelete, reqs()[1].Method)
	assert.Equal(t, []string{"eq.2"}, reqs()[1].Query["id"])
}

func TestPostgRESTErrorPropagatesMessage(t *testing.T) {
	p, _ := newFakePostgREST(t, http.StatusNotFound, `{"code":"42P01","message":"relation \"public.nope\" does not exist"}`)

	_, err := p.Query(context.Background(), "nope", "", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `(42P01) relation "public.nope" does not exist`)
}

func TestPostgRESTNotConfigured(t *testing.T) {
	p := NewPostgREST(config.Supabase{}, false)
	_, err := p.Query(context.Background(), "items", "", nil, 0)
	assert.True(t, errors.Is(err, ErrNotConfigured), "got %v", err)

	p = NewPostgREST(config.Supabase{URL: "https://x.supabase.co"}, false)
	_, err = p.Delete(context.Background(), "items", Filters{"id": "1"})
	assert.True(t, errors.Is(err, ErrNotConfigured), "got %v", err)
}

func TestPostgRESTHonoursContext(t *testing.T) {
	p, reqs := newFakePostgREST(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Query(ctx, "items", "", nil, 0)
	require.Error(t, err)
	assert.Empty(t, reqs())
}
