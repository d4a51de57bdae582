package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"buddy-mcp/github"
	"buddy-mcp/supabase"
)

// Handler executes one named operation. Implementations decode and validate
// their own arguments.
type Handler interface {
	Name() string
	Execute(ctx context.Context, args json.RawMessage) ([]Content, error)
}

// GitHubBackend is the source-hosting client used by the github_* tools.
type GitHubBackend interface {
	ReadFile(ctx context.Context, owner, repo, path, ref string) (string, error)
	WriteFile(ctx context.Context, w github.FileWrite) (string, error)
	ListFiles(ctx context.Context, owner, repo, path, ref string) (string, error)
	CreatePullRequest(ctx context.Context, pr github.PullRequest) (string, error)
}

// VercelBackend is the deployment client used by the vercel_* tools.
type VercelBackend interface {
	Deploy(ctx context.Context, projectID string, gitSource map[string]any) (string, error)
	GetDeployment(ctx context.Context, deploymentID string) (string, error)
	ListProjects(ctx context.Context, limit int) (string, error)
}

// Backends holds the clients the handlers call.
type Backends struct {
	GitHub   GitHubBackend
	Supabase supabase.Store
	Vercel   VercelBackend
}

var (
	errNoGitHub   = errors.New("github backend is not configured")
	errNoSupabase = errors.New("supabase backend is not configured")
	errNoVercel   = errors.New("vercel backend is not configured")
)

type validator interface {
	Validate() error
}

// handler adapts a typed function to Handler. PP is the pointer type of the
// parameter struct P.
type handler[P any, PP interface {
	*P
	validator
}] struct {
	name string
	run  func(ctx context.Context, p PP) (string, error)
}

func newHandler[P any, PP interface {
	*P
	validator
}](name string, run func(context.Context, PP) (string, error)) Handler {
	return &handler[P, PP]{name: name, run: run}
}

func (h *handler[P, PP]) Name() string { return h.name }

func (h *handler[P, PP]) Execute(ctx context.Context, args json.RawMessage) ([]Content, error) {
	p := PP(new(P))
	if err := decodeArgs(args, p); err != nil {
		return nil, invalidArguments(h.name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, invalidArguments(h.name, err)
	}
	text, err := h.run(ctx, p)
	if err != nil {
		return nil, upstreamFailure(err)
	}
	return Text(text), nil
}

func decodeArgs(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	if raw[0] != '{' {
		return errors.New("arguments must be a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

// Handlers returns one handler per catalog entry, in catalog order.
func Handlers(b Backends) []Handler {
	return []Handler{
		newHandler[ReadFileParams](GitHubReadFile, func(ctx context.Context, p *ReadFileParams) (string, error) {
			if b.GitHub == nil {
				return "", errNoGitHub
			}
			return b.GitHub.ReadFile(ctx, p.Owner, p.Repo, p.Path, p.Ref)
		}),
		newHandler[WriteFileParams](GitHubWriteFile, func(ctx context.Context, p *WriteFileParams) (string, error) {
			if b.GitHub == nil {
				return "", errNoGitHub
			}
			return b.GitHub.WriteFile(ctx, github.FileWrite{
				Owner:   p.Owner,
				Repo:    p.Repo,
				Path:    p.Path,
				Content: *p.Content,
				Message: p.Message,
				Branch:  p.Branch,
				SHA:     p.SHA,
			})
		}),
		newHandler[ListFilesParams](GitHubListFiles, func(ctx context.Context, p *ListFilesParams) (string, error) {
			if b.GitHub == nil {
				return "", errNoGitHub
			}
			return b.GitHub.ListFiles(ctx, p.Owner, p.Repo, p.Path, p.Ref)
		}),
		newHandler[CreatePRParams](GitHubCreatePR, func(ctx context.Context, p *CreatePRParams) (string, error) {
			if b.GitHub == nil {
				return "", errNoGitHub
			}
			return b.GitHub.CreatePullRequest(ctx, github.PullRequest{
				Owner: p.Owner,
				Repo:  p.Repo,
				Title: p.Title,
				Head:  p.Head,
				Base:  p.Base,
				Body:  p.Body,
			})
		}),
		newHandler[QueryParams](SupabaseQuery, func(ctx context.Context, p *QueryParams) (string, error) {
			if b.Supabase == nil {
				return "", errNoSupabase
			}
			return b.Supabase.Query(ctx, p.Table, p.Select, p.Filters, p.limit())
		}),
		newHandler[InsertParams](SupabaseInsert, func(ctx context.Context, p *InsertParams) (string, error) {
			if b.Supabase == nil {
				return "", errNoSupabase
			}
			return b.Supabase.Insert(ctx, p.Table, p.rows)
		}),
		newHandler[UpdateParams](SupabaseUpdate, func(ctx context.Context, p *UpdateParams) (string, error) {
			if b.Supabase == nil {
				return "", errNoSupabase
			}
			return b.Supabase.Update(ctx, p.Table, p.Filters, p.Data)
		}),
		newHandler[DeleteParams](SupabaseDelete, func(ctx context.Context, p *DeleteParams) (string, error) {
			if b.Supabase == nil {
				return "", errNoSupabase
			}
			return b.Supabase.Delete(ctx, p.Table, p.Filters)
		}),
		newHandler[DeployParams](VercelDeploy, func(ctx context.Context, p *DeployParams) (string, error) {
			if b.Vercel == nil {
				return "", errNoVercel
			}
			return b.Vercel.Deploy(ctx, p.ProjectID, p.GitSource)
		}),
		newHandler[GetDeploymentParams](VercelGetDeployment, func(ctx context.Context, p *GetDeploymentParams) (string, error) {
			if b.Vercel == nil {
				return "", errNoVercel
			}
			return b.Vercel.GetDeployment(ctx, p.DeploymentID)
		}),
		newHandler[ListProjectsParams](VercelListProjects, func(ctx context.Context, p *ListProjectsParams) (string, error) {
			if b.Vercel == nil {
				return "", errNoVercel
			}
			return b.Vercel.ListProjects(ctx, p.limit())
		}),
	}
}
