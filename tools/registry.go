package tools

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	v "buddy-mcp/validate"
)

// Tool names, in catalog order.
const (
	GitHubReadFile      = "github_read_file"
	GitHubWriteFile     = "github_write_file"
	GitHubListFiles     = "github_list_files"
	GitHubCreatePR      = "github_create_pr"
	SupabaseQuery       = "supabase_query"
	SupabaseInsert      = "supabase_insert"
	SupabaseUpdate      = "supabase_update"
	SupabaseDelete      = "supabase_delete"
	VercelDeploy        = "vercel_deploy"
	VercelGetDeployment = "vercel_get_deployment"
	VercelListProjects  = "vercel_list_projects"
)

// Descriptor describes one tool as published by tools/list.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

var catalog = buildCatalog()

// Catalog returns the eleven published tools in a fixed order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func ownerSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Repository owner (user or organization).",
		MinLength:   intPtr(v.OwnerMin),
		MaxLength:   intPtr(v.OwnerMax),
		Pattern:     v.OwnerPattern,
	}
}

func repoSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Repository name.",
		MinLength:   intPtr(v.RepoNameMin),
		MaxLength:   intPtr(v.RepoNameMax),
		Pattern:     v.RepoNamePattern,
	}
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func buildCatalog() []Descriptor {
	filters := &jsonschema.Schema{
		Type:        "object",
		Description: "Equality filters as {column: value}. A null value matches NULL.",
	}
	return []Descriptor{
		{
			Name:        GitHubReadFile,
			Description: "Read a file from a GitHub repository.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"owner": ownerSchema(),
				"repo":  repoSchema(),
				"path":  str("File path within the repository."),
				"ref":   str("Branch, tag or commit (default branch when omitted)."),
			}, "owner", "repo", "path"),
		},
		{
			Name:        GitHubWriteFile,
			Description: "Create or update a file in a GitHub repository.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"owner":   ownerSchema(),
				"repo":    repoSchema(),
				"path":    str("File path within the repository."),
				"content": str("New file content (plain text)."),
				"message": str("Commit message."),
				"branch":  str("Branch to commit to."),
				"sha":     str("Blob SHA of the file being replaced. Required when updating an existing file."),
			}, "owner", "repo", "path", "content", "message", "branch"),
		},
		{
			Name:        GitHubListFiles,
			Description: "List files in a GitHub repository directory.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"owner": ownerSchema(),
				"repo":  repoSchema(),
				"path": {
					Type:        "string",
					Description: "Directory path (repository root when empty).",
					Default:     json.RawMessage(`""`),
				},
				"ref": str("Branch, tag or commit (default branch when omitted)."),
			}, "owner", "repo"),
		},
		{
			Name:        GitHubCreatePR,
			Description: "Create a pull request in a GitHub repository.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"owner": ownerSchema(),
				"repo":  repoSchema(),
				"title": str("Pull request title."),
				"head":  str("Branch containing the changes (owner:branch for forks)."),
				"base":  str("Branch to merge into."),
				"body":  str("Pull request description."),
			}, "owner", "repo", "title", "head", "base"),
		},
		{
			Name:        SupabaseQuery,
			Description: "Query rows from a Supabase table.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"table": str("Table name."),
				"select": {
					Type:        "string",
					Description: "PostgREST select list: columns, aliases (alias:col), casts (col::text) or embedded resources (author(name)).",
					Default:     json.RawMessage(`"*"`),
				},
				"filters": filters,
				"limit": {
					Type:        "integer",
					Description: "Maximum number of rows (0 or omitted for no limit).",
					Minimum:     floatPtr(0),
				},
			}, "table"),
		},
		{
			Name:        SupabaseInsert,
			Description: "Insert one or more rows into a Supabase table.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"table": str("Table name."),
				"data": {
					Types:       []string{"object", "array"},
					Description: "Row object or array of row objects.",
				},
			}, "table", "data"),
		},
		{
			Name:        SupabaseUpdate,
			Description: "Update rows in a Supabase table matching the filters.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"table":   str("Table name."),
				"filters": filters,
				"data": {
					Type:        "object",
					Description: "Column values to set.",
				},
			}, "table", "filters", "data"),
		},
		{
			Name:        SupabaseDelete,
			Description: "Delete rows from a Supabase table matching the filters.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"table":   str("Table name."),
				"filters": filters,
			}, "table", "filters"),
		},
		{
			Name:        VercelDeploy,
			Description: "Trigger a production deployment of a Vercel project.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"projectId": str("Vercel project id or name."),
				"gitSource": {
					Type:        "object",
					Description: "Optional git source, e.g. {\"type\":\"github\",\"ref\":\"main\",\"repoId\":123}.",
				},
			}, "projectId"),
		},
		{
			Name:        VercelGetDeployment,
			Description: "Get the status of a Vercel deployment.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"deploymentId": str("Deployment id or URL host."),
			}, "deploymentId"),
		},
		{
			Name:        VercelListProjects,
			Description: "List Vercel projects.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"limit": {
					Type:        "integer",
					Description: "Maximum number of projects.",
					Minimum:     floatPtr(1),
					Maximum:     floatPtr(v.ListLimitMax),
					Default:     json.RawMessage(`20`),
				},
			}),
		},
	}
}
