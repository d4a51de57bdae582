package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"buddy-mcp/supabase"
	v "buddy-mcp/validate"
)

// ReadFileParams are the arguments of github_read_file.
type ReadFileParams struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
	Ref   string `json:"ref,omitempty"`
}

func (p *ReadFileParams) Validate() error {
	if err := validateRepo(p.Owner, p.Repo); err != nil {
		return err
	}
	if err := v.Required("path", p.Path); err != nil {
		return err
	}
	if err := v.ValidatePath(p.Path); err != nil {
		return err
	}
	return validateOptionalRef(p.Ref)
}

// WriteFileParams are the arguments of github_write_file.
type WriteFileParams struct {
	Owner   string  `json:"owner"`
	Repo    string  `json:"repo"`
	Path    string  `json:"path"`
	Content *string `json:"content"`
	Message string  `json:"message"`
	Branch  string  `json:"branch"`
	SHA     string  `json:"sha,omitempty"`
}

func (p *WriteFileParams) Validate() error {
	if err := validateRepo(p.Owner, p.Repo); err != nil {
		return err
	}
	if err := v.Required("path", p.Path); err != nil {
		return err
	}
	if err := v.ValidatePath(p.Path); err != nil {
		return err
	}
	// An empty body is a valid file; an absent one is not.
	if p.Content == nil {
		return fmt.Errorf("%w: content", v.ErrRequired)
	}
	if err := v.Required("message", p.Message); err != nil {
		return err
	}
	if err := v.Required("branch", p.Branch); err != nil {
		return err
	}
	return v.ValidateRef(p.Branch)
}

// ListFilesParams are the arguments of github_list_files.
type ListFilesParams struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

func (p *ListFilesParams) Validate() error {
	if err := validateRepo(p.Owner, p.Repo); err != nil {
		return err
	}
	if err := v.ValidatePath(p.Path); err != nil {
		return err
	}
	return validateOptionalRef(p.Ref)
}

// CreatePRParams are the arguments of github_create_pr.
type CreatePRParams struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
}

func (p *CreatePRParams) Validate() error {
	if err := validateRepo(p.Owner, p.Repo); err != nil {
		return err
	}
	if err := v.Required("title", p.Title); err != nil {
		return err
	}
	if err := v.Required("head", p.Head); err != nil {
		return err
	}
	head := p.Head
	// Cross-repository heads are written owner:branch.
	if owner, branch, ok := strings.Cut(head, ":"); ok {
		if err := v.ValidateOwner(owner); err != nil {
			return fmt.Errorf("head: %w", err)
		}
		head = branch
	}
	if err := v.ValidateRef(head); err != nil {
		return fmt.Errorf("head: %w", err)
	}
	if err := v.Required("base", p.Base); err != nil {
		return err
	}
	if err := v.ValidateRef(p.Base); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	return nil
}

// QueryParams are the arguments of supabase_query.
type QueryParams struct {
	Table   string           `json:"table"`
	Select  string           `json:"select,omitempty"`
	Filters supabase.Filters `json:"filters,omitempty"`
	Limit   *int             `json:"limit,omitempty"`
}

func (p *QueryParams) Validate() error {
	if err := validateTable(p.Table); err != nil {
		return err
	}
	return validateFilters(p.Filters, false)
}

// limit returns the row limit, zero meaning none.
func (p *QueryParams) limit() int {
	if p.Limit == nil || *p.Limit < 0 {
		return 0
	}
	return *p.Limit
}

// InsertParams are the arguments of supabase_insert. Data holds a single
// row object or an array of row objects.
type InsertParams struct {
	Table string          `json:"table"`
	Data  json.RawMessage `json:"data"`

	rows []supabase.Row
}

func (p *InsertParams) Validate() error {
	if err := validateTable(p.Table); err != nil {
		return err
	}
	data := bytes.TrimSpace(p.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: data", v.ErrRequired)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	switch data[0] {
	case '{':
		var row supabase.Row
		if err := dec.Decode(&row); err != nil {
			return fmt.Errorf("data: %w", err)
		}
		p.rows = []supabase.Row{row}
	case '[':
		var rows []supabase.Row
		if err := dec.Decode(&rows); err != nil {
			return fmt.Errorf("data: must be an object or an array of objects: %w", err)
		}
		if len(rows) == 0 {
			return errors.New("data: at least one row is required")
		}
		for i, row := range rows {
			if row == nil {
				return fmt.Errorf("data[%d]: must be an object", i)
			}
		}
		p.rows = rows
	default:
		return errors.New("data: must be an object or an array of objects")
	}
	return nil
}

// UpdateParams are the arguments of supabase_update.
type UpdateParams struct {
	Table   string           `json:"table"`
	Filters supabase.Filters `json:"filters"`
	Data    supabase.Row     `json:"data"`
}

func (p *UpdateParams) Validate() error {
	if err := validateTable(p.Table); err != nil {
		return err
	}
	if err := validateFilters(p.Filters, true); err != nil {
		return err
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: data", v.ErrRequired)
	}
	return nil
}

// DeleteParams are the arguments of supabase_delete.
type DeleteParams struct {
	Table   string           `json:"table"`
	Filters supabase.Filters `json:"filters"`
}

func (p *DeleteParams) Validate() error {
	if err := validateTable(p.Table); err != nil {
		return err
	}
	return validateFilters(p.Filters, true)
}

// DeployParams are the arguments of vercel_deploy.
type DeployParams struct {
	ProjectID string         `json:"projectId"`
	GitSource map[string]any `json:"gitSource,omitempty"`
}

func (p *DeployParams) Validate() error {
	if err := v.Required("projectId", p.ProjectID); err != nil {
		return err
	}
	return v.ValidateVercelID(p.ProjectID)
}

// GetDeploymentParams are the arguments of vercel_get_deployment.
type GetDeploymentParams struct {
	DeploymentID string `json:"deploymentId"`
}

func (p *GetDeploymentParams) Validate() error {
	if err := v.Required("deploymentId", p.DeploymentID); err != nil {
		return err
	}
	return v.ValidateVercelID(p.DeploymentID)
}

// ListProjectsParams are the arguments of vercel_list_projects.
type ListProjectsParams struct {
	Limit *int `json:"limit,omitempty"`
}

func (p *ListProjectsParams) Validate() error {
	if p.Limit == nil {
		return nil
	}
	return v.ValidateLimit(*p.Limit, v.ListLimitMax)
}

func (p *ListProjectsParams) limit() int {
	if p.Limit == nil {
		return 0
	}
	return *p.Limit
}

func validateRepo(owner, repo string) error {
	if err := v.Required("owner", owner); err != nil {
		return err
	}
	if err := v.ValidateOwner(owner); err != nil {
		return err
	}
	if err := v.Required("repo", repo); err != nil {
		return err
	}
	return v.ValidateRepoName(repo)
}

func validateOptionalRef(ref string) error {
	if ref == "" {
		return nil
	}
	return v.ValidateRef(ref)
}

// validateTable only requires a name. Naming rules belong to the store:
// PostgREST accepts any quoted Postgres name, SQLite checks its own.
func validateTable(table string) error {
	return v.Required("table", table)
}

// validateFilters checks that every value is a scalar.
// Update and delete require at least one filter so that a missing argument
// never touches every row.
func validateFilters(f supabase.Filters, required bool) error {
	if required && len(f) == 0 {
		return fmt.Errorf("%w: filters (at least one equality filter)", v.ErrRequired)
	}
	for col, val := range f {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: filters (empty column name)", v.ErrRequired)
		}
		switch val.(type) {
		case nil, string, bool, json.Number:
		default:
			return fmt.Errorf("filters: value for %q must be a string, number, boolean or null", col)
		}
	}
	return nil
}
