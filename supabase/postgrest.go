package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"buddy-mcp/config"
	"buddy-mcp/logger"
)

// PostgREST talks to the Supabase REST API at <url>/rest/v1 using the
// service role key. A fresh postgrest-go client is built per call because
// that client records errors on itself.
type PostgREST struct {
	url    string
	key    string
	schema string
	debug  bool
}

// NewPostgREST returns a PostgREST store. Missing credentials are reported
// when a method is called.
func NewPostgREST(cfg config.Supabase, debug bool) *PostgREST {
	return &PostgREST{
		url:    strings.TrimSuffix(cfg.URL, "/"),
		key:    cfg.ServiceRoleKey,
		schema: cfg.Schema,
		debug:  debug,
	}
}

// requestTransport binds outgoing requests to the caller's context, which
// postgrest-go does not accept itself.
type requestTransport struct {
	ctx   context.Context
	debug bool
}

func (t *requestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.debug {
		logger.Debugf("PostgREST: %s %s", req.Method, req.URL)
	}
	return http.DefaultTransport.RoundTrip(req.WithContext(t.ctx))
}

func (p *PostgREST) client(ctx context.Context) (*postgrest.Client, error) {
	if p.url == "" {
		return nil, fmt.Errorf("%w: SUPABASE_URL is not set", ErrNotConfigured)
	}
	if p.key == "" {
		return nil, fmt.Errorf("%w: SUPABASE_SERVICE_ROLE_KEY is not set", ErrNotConfigured)
	}
	c := postgrest.NewClient(p.url+"/rest/v1", p.schema, nil)
	if c.ClientError != nil {
		return nil, fmt.Errorf("invalid supabase url %q: %w", p.url, c.ClientError)
	}
	c.SetApiKey(p.key).SetAuthToken(p.key)
	c.Transport.Parent = &requestTransport{ctx: ctx, debug: p.debug}
	return c, nil
}

// Query passes sel to PostgREST unchanged, so embeds, aliases and casts
// work as they do against the REST API.
func (p *PostgREST) Query(ctx context.Context, table, sel string, filters Filters, limit int) (string, error) {
	c, err := p.client(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sel) == "" {
		sel = "*"
	}
	fb := c.From(table).Select(sel, "", false)
	if err := applyFilters(fb, filters); err != nil {
		return "", err
	}
	if limit > 0 {
		fb = fb.Limit(limit, "")
	}
	body, _, err := fb.Execute()
	if err != nil {
		return "", fmt.Errorf("supabase query %s: %w", table, err)
	}
	return compact(body)
}

// Insert inserts rows and returns the stored representation.
func (p *PostgREST) Insert(ctx context.Context, table string, rows []Row) (string, error) {
	c, err := p.client(ctx)
	if err != nil {
		return "", err
	}
	body, _, err := c.From(table).Insert(rows, false, "", "representation", "").Execute()
	if err != nil {
		return "", fmt.Errorf("supabase insert %s: %w", table, err)
	}
	return compact(body)
}

// Update sets values on the rows matching filters.
func (p *PostgREST) Update(ctx context.Context, table string, filters Filters, values Row) (string, error) {
	c, err := p.client(ctx)
	if err != nil {
		return "", err
	}
	fb := c.From(table).Update(values, "representation", "")
	if err := applyFilters(fb, filters); err != nil {
		return "", err
	}
	body, _, err := fb.Execute()
	if err != nil {
		return "", fmt.Errorf("supabase update %s: %w", table, err)
	}
	return compact(body)
}

// Delete removes the rows matching filters.
func (p *PostgREST) Delete(ctx context.Context, table string, filters Filters) (string, error) {
	c, err := p.client(ctx)
	if err != nil {
		return "", err
	}
	fb := c.From(table).Delete("representation", "")
	if err := applyFilters(fb, filters); err != nil {
		return "", err
	}
	body, _, err := fb.Execute()
	if err != nil {
		return "", fmt.Errorf("supabase delete %s: %w", table, err)
	}
	return compact(body)
}

func applyFilters(fb *postgrest.FilterBuilder, filters Filters) error {
	for _, col := range filters.keys() {
		v, isNull, err := formatFilter(col, filters[col])
		if err != nil {
			return err
		}
		if isNull {
			fb.Is(col, "null")
			continue
		}
		fb.Eq(col, v)
	}
	return nil
}

func compact(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return "", fmt.Errorf("supabase returned invalid JSON: %w", err)
	}
	return buf.String(), nil
}
