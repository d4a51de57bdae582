package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"buddy-mcp/config"
	"buddy-mcp/logger"
)

// DefaultBaseURL is the public Vercel REST API.
const DefaultBaseURL = "https://api.vercel.com"

// DefaultProjectLimit is the page size used when no limit is given.
const DefaultProjectLimit = 20

// ErrNotConfigured is returned when no token is configured.
var ErrNotConfigured = errors.New("vercel is not configured: VERCEL_TOKEN is not set")

// Client calls the Vercel REST API with a bearer token.
type Client struct {
	baseURL string
	token   string
	teamID  string
	debug   bool
	http    *http.Client
}

// New returns a Client for cfg. It never contacts Vercel.
func New(cfg config.Vercel, debug bool) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		teamID:  cfg.TeamID,
		debug:   debug,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Deployment is the summary returned by Deploy.
type Deployment struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	State string `json:"state"`
}

// DeploymentStatus is the summary returned by GetDeployment.
type DeploymentStatus struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	State      string `json:"state"`
	CreatedAt  *int64 `json:"createdAt,omitempty"`
	BuildingAt *int64 `json:"buildingAt,omitempty"`
	Ready      *int64 `json:"ready,omitempty"`
}

// Project is one entry of ListProjects.
type Project struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Framework *string `json:"framework"`
	UpdatedAt int64   `json:"updatedAt"`
}

type apiDeployment struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	ReadyState string `json:"readyState"`
	CreatedAt  *int64 `json:"createdAt"`
	BuildingAt *int64 `json:"buildingAt"`
	Ready      *int64 `json:"ready"`
}

// Deploy triggers a production deployment of projectID. gitSource, when
// non-nil, is forwarded unchanged.
func (c *Client) Deploy(ctx context.Context, projectID string, gitSource map[string]any) (string, error) {
	body := map[string]any{
		"projectId": projectID,
		"target":    "production",
	}
	if gitSource != nil {
		body["gitSource"] = gitSource
	}
	var d apiDeployment
	if err := c.do(ctx, http.MethodPost, "/v13/deployments", nil, body, &d); err != nil {
		return "", fmt.Errorf("vercel deploy: %w", err)
	}
	return marshal(Deployment{ID: d.ID, URL: d.URL, State: d.ReadyState})
}

// GetDeployment fetches the status of one deployment.
func (c *Client) GetDeployment(ctx context.Context, deploymentID string) (string, error) {
	var d apiDeployment
	if err := c.do(ctx, http.MethodGet, "/v13/deployments/"+url.PathEscape(deploymentID), nil, nil, &d); err != nil {
		return "", fmt.Errorf("vercel get deployment: %w", err)
	}
	return marshal(DeploymentStatus{
		ID:         d.ID,
		URL:        d.URL,
		State:      d.ReadyState,
		CreatedAt:  d.CreatedAt,
		BuildingAt: d.BuildingAt,
		Ready:      d.Ready,
	})
}

// ListProjects returns the first page of projects.
func (c *Client) ListProjects(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultProjectLimit
	}
	var resp struct {
		Projects []Project `json:"projects"`
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.do(ctx, http.MethodGet, "/v9/projects", q, nil, &resp); err != nil {
		return "", fmt.Errorf("vercel list projects: %w", err)
	}
	if resp.Projects == nil {
		resp.Projects = []Project{}
	}
	return marshal(resp.Projects)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.token == "" {
		return ErrNotConfigured
	}
	if c.teamID != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("teamId", c.teamID)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.debug {
		logger.Debugf("API: %s %s", method, u)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("vercel api error: %s", strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
