package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"buddy-mcp/config"
	"buddy-mcp/logger"
)

// loggingTransport wraps an http.RoundTripper to log requests.
type loggingTransport struct {
	transport http.RoundTripper
}

// RoundTrip logs the request and delegates to the wrapped transport.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logger.Debugf("API: %s %s", req.Method, req.URL)
	return t.transport.RoundTrip(req)
}

// Client performs source-hosting operations against the GitHub REST API.
// The underlying API client is built on first use so that credential
// problems surface on the invocation that needs them.
type Client struct {
	cfg   config.GitHub
	debug bool

	once sync.Once
	api  *github.Client
	err  error
}

// New returns a Client for cfg. It never contacts GitHub.
func New(cfg config.GitHub, debug bool) *Client {
	return &Client{cfg: cfg, debug: debug}
}

func (c *Client) client() (*github.Client, error) {
	c.once.Do(func() {
		c.api, c.err = initClient(c.cfg, c.debug)
	})
	return c.api, c.err
}

// initClient builds a go-github client. GitHub App credentials take
// precedence over a personal access token; with neither the client is
// unauthenticated and limited to public repositories.
func initClient(cfg config.GitHub, debug bool) (*github.Client, error) {
	var transport http.RoundTripper = http.DefaultTransport

	switch {
	case cfg.App.Configured():
		tr, err := ghinstallation.New(http.DefaultTransport, cfg.App.AppID, cfg.App.InstallationID, []byte(cfg.App.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create github app transport: %w", err)
		}
		if cfg.BaseURL != "" {
			tr.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}
		transport = tr
	case cfg.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		transport = &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	}
	if debug {
		transport = &loggingTransport{transport: transport}
	}

	client := github.NewClient(&http.Client{Transport: transport})
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base_url %q: %w", cfg.BaseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}
	return client, nil
}

// FormatScopePermission renders the permission headers GitHub returns so
// that authorization failures say what the token is missing.
func FormatScopePermission(resp *github.Response) string {
	scopePermission := "ResponseHeaderScopePermission:undef"
	if resp != nil && resp.Header != nil {
		scopePermission = fmt.Sprintf("X-Accepted-OAuth-Scopes:%s, X-Accepted-GitHub-Permissions:%s",
			resp.Header.Get("X-Accepted-OAuth-Scopes"), resp.Header.Get("X-Accepted-GitHub-Permissions"))
	}
	return scopePermission
}

func wrapErr(op string, resp *github.Response, err error) error {
	if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized) {
		return fmt.Errorf("github %s: %w, Required permission scope: %s", op, err, FormatScopePermission(resp))
	}
	return fmt.Errorf("github %s: %w", op, err)
}
