package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"buddy-mcp/tools"
)

const (
	docsMIMEType    = "text/markdown"
	docsOverviewURI = "resource://buddy-mcp/mcp-overview"
	docsToolsURI    = "resource://buddy-mcp/mcp-tools"
	docsSafetyURI   = "resource://buddy-mcp/mcp-safety"
)

type docsResource struct {
	uri, name, title, description, body string
}

var docsResources = []docsResource{
	{
		uri:         docsOverviewURI,
		name:        "mcp-overview",
		title:       "buddy-mcp Overview",
		description: "How the server is configured and which backends each tool family needs.",
		body:        mcpOverviewMarkdown,
	},
	{
		uri:         docsToolsURI,
		name:        "mcp-tools",
		title:       "buddy-mcp Tools",
		description: "Reference for every published tool with sample JSON inputs.",
		body:        toolsMarkdown(),
	},
	{
		uri:         docsSafetyURI,
		name:        "mcp-safety",
		title:       "buddy-mcp Safety Notes",
		description: "Guidance for write operations against repositories, tables and production deployments.",
		body:        mcpSafetyMarkdown,
	},
}

func registerDocsResources(srv *sdk.Server) {
	for _, res := range docsResources {
		srv.AddResource(&sdk.Resource{
			URI:         res.uri,
			Name:        res.name,
			Title:       res.title,
			Description: res.description,
			MIMEType:    docsMIMEType,
		}, staticMarkdownResource(res.uri, res.body))
	}
}

func staticMarkdownResource(uri, body string) sdk.ResourceHandler {
	return func(_ context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
		if req != nil && req.Params != nil {
			target := req.Params.URI
			if idx := strings.IndexByte(target, '#'); idx >= 0 {
				target = target[:idx]
			}
			if target != "" && target != uri {
				return nil, sdk.ResourceNotFoundError(target)
			}
		}
		return &sdk.ReadResourceResult{
			Contents: []*sdk.ResourceContents{
				{
					URI:      uri,
					MIMEType: docsMIMEType,
					Text:     body,
				},
			},
		}, nil
	}
}

var sampleInputs = map[string]string{
	tools.GitHubReadFile:      `{"owner":"octocat","repo":"hello-world","path":"README.md"}`,
	tools.GitHubWriteFile:     `{"owner":"octocat","repo":"hello-world","path":"notes/today.md","content":"hello","message":"add notes","branch":"main"}`,
	tools.GitHubListFiles:     `{"owner":"octocat","repo":"hello-world","path":"docs"}`,
	tools.GitHubCreatePR:      `{"owner":"octocat","repo":"hello-world","title":"Add notes","head":"feature/notes","base":"main"}`,
	tools.SupabaseQuery:       `{"table":"users","select":"id,name","filters":{"id":5},"limit":10}`,
	tools.SupabaseInsert:      `{"table":"users","data":[{"name":"a"},{"name":"b"}]}`,
	tools.SupabaseUpdate:      `{"table":"users","filters":{"id":5},"data":{"name":"renamed"}}`,
	tools.SupabaseDelete:      `{"table":"users","filters":{"id":5}}`,
	tools.VercelDeploy:        `{"projectId":"prj_123","gitSource":{"type":"github","ref":"main","repoId":42}}`,
	tools.VercelGetDeployment: `{"deploymentId":"dpl_123"}`,
	tools.VercelListProjects:  `{"limit":20}`,
}

// toolsMarkdown renders the catalog so the reference never drifts from
// what tools/list publishes.
func toolsMarkdown() string {
	var b strings.Builder
	b.WriteString("# buddy-mcp Tools\n\n")
	b.WriteString("Every tool returns one text content block. Results from Supabase and Vercel are compact JSON; ")
	b.WriteString("github_read_file returns the raw file text.\n")

	for _, d := range tools.Catalog() {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n\n", d.Name, d.Description)
		b.WriteString("| Argument | Type | Required | Description |\n| --- | --- | --- | --- |\n")
		required := map[string]bool{}
		for _, r := range d.InputSchema.Required {
			required[r] = true
		}
		names := make([]string, 0, len(d.InputSchema.Properties))
		for name := range d.InputSchema.Properties {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if required[names[i]] != required[names[j]] {
				return required[names[i]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			prop := d.InputSchema.Properties[name]
			typ := prop.Type
			if typ == "" {
				typ = strings.Join(prop.Types, " or ")
			}
			yes := "no"
			if required[name] {
				yes = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, typ, yes, prop.Description)
		}
		if sample, ok := sampleInputs[d.Name]; ok {
			fmt.Fprintf(&b, "\nSample input: `%s`\n", sample)
		}
	}
	return b.String()
}

const mcpOverviewMarkdown = `# buddy-mcp Overview

buddy-mcp publishes eleven tools over MCP, grouped by backend. Credentials are read once at
start-up and checked only when a tool that needs them is called.

## Launch checklist
1. Export GITHUB_TOKEN (or the GitHub App trio GITHUB_APP_ID, GITHUB_INSTALLATION_ID, GITHUB_PRIVATE_KEY).
2. Export SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY, or set supabase.driver: sqlite for a local database.
3. Export VERCEL_TOKEN (and VERCEL_TEAM_ID for team projects).
4. Start the HTTP server with: buddy-mcp serve, or the stdio server with: buddy-mcp stdio.
5. In your MCP client, call tools/list and resources/list.

## Tool families
| Prefix | Backend | Needs |
| --- | --- | --- |
| github_ | GitHub REST API | token or GitHub App; public repositories work without either |
| supabase_ | Supabase PostgREST (or local SQLite) | project URL and service role key |
| vercel_ | Vercel REST API | token |

## Errors
Failed calls carry a kind: invalid_arguments (fix the input), unknown_operation (check the
name against tools/list) or upstream_failure (the backend rejected the call; the message is
the backend's own).

## Resource catalog
| URI | Summary |
| --- | --- |
| resource://buddy-mcp/mcp-overview | You are here: configuration and tool families. |
| resource://buddy-mcp/mcp-tools | Arguments and sample input for every tool. |
| resource://buddy-mcp/mcp-safety | Guardrails for writes and deployments. |

Use anchors such as resource://buddy-mcp/mcp-tools#supabase_query to deep-link to individual tools.
`

const mcpSafetyMarkdown = `# buddy-mcp Safety Notes

## Repository writes
- github_write_file commits directly to the given branch. Prefer a feature branch and open a pull request with github_create_pr.
- Updating an existing file requires its current blob sha; read the directory with github_list_files or the file metadata first.

## Table writes
- supabase_update and supabase_delete refuse to run without at least one filter.
- Filters are equality only. Run supabase_query with the same filters first to see which rows will change.
- The service role key bypasses row level security. Scope the key to a project you are allowed to modify.

## Deployments
- vercel_deploy always targets production. Check the project with vercel_list_projects before triggering it.
- Poll vercel_get_deployment until state is READY or ERROR; the server does not wait for builds.

## Operational tips
1. Run with --debug to log every outbound API request to stderr.
2. Each call makes exactly one backend request; retries are up to the client.
`
