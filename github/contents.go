package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/go-github/v55/github"
)

// NotFoundText is returned by ReadFile when the path is missing or names a
// directory.
const NotFoundText = "File not found or is a directory"

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// FileWrite describes a create-or-update of a single file.
type FileWrite struct {
	Owner   string
	Repo    string
	Path    string
	Content string
	Message string
	Branch  string
	// SHA is the blob sha of the file being replaced; empty creates the file.
	SHA string
}

// ReadFile returns the decoded content of path at ref (default branch when
// ref is empty).
func (c *Client) ReadFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	file, _, resp, err := api.Repositories.GetContents(ctx, owner, repo, path, contentOptions(ref))
	if err != nil {
		if isNotFound(err) {
			return NotFoundText, nil
		}
		return "", wrapErr("read file", resp, err)
	}
	if file == nil {
		return NotFoundText, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return "", wrapErr("read file", resp, err)
	}
	return content, nil
}

// WriteFile creates or updates a file on a branch and returns the provider
// response as JSON.
func (c *Client) WriteFile(ctx context.Context, w FileWrite) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		Content: []byte(w.Content),
		Branch:  github.String(w.Branch),
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
	)
	if w.SHA != "" {
		opts.SHA = github.String(w.SHA)
		res, resp, err = api.Repositories.UpdateFile(ctx, w.Owner, w.Repo, w.Path, opts)
	} else {
		res, resp, err = api.Repositories.CreateFile(ctx, w.Owner, w.Repo, w.Path, opts)
	}
	if err != nil {
		return "", wrapErr("write file", resp, err)
	}
	return marshal(res)
}

// ListFiles lists the directory at path. A path naming a single file yields
// a one-element list.
func (c *Client) ListFiles(ctx context.Context, owner, repo, path, ref string) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	file, dir, resp, err := api.Repositories.GetContents(ctx, owner, repo, path, contentOptions(ref))
	if err != nil {
		return "", wrapErr("list files", resp, err)
	}
	if file != nil {
		dir = []*github.RepositoryContent{file}
	}
	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, Entry{
			Name: item.GetName(),
			Path: item.GetPath(),
			Type: item.GetType(),
			Size: item.GetSize(),
		})
	}
	return marshal(entries)
}

func contentOptions(ref string) *github.RepositoryContentGetOptions {
	if ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: ref}
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
