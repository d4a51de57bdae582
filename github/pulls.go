package github

import (
	"context"

	"github.com/google/go-github/v55/github"
)

// PullRequest describes a pull request to open from Head into Base.
type PullRequest struct {
	Owner string
	Repo  string
	Title string
	Head  string
	Base  string
	Body  string
}

// CreatedPullRequest is the summary returned after opening a pull request.
type CreatedPullRequest struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
	State  string `json:"state"`
}

// CreatePullRequest opens a pull request and returns its summary as JSON.
func (c *Client) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	req := &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
	}
	if pr.Body != "" {
		req.Body = github.String(pr.Body)
	}
	created, resp, err := api.PullRequests.Create(ctx, pr.Owner, pr.Repo, req)
	if err != nil {
		return "", wrapErr("create pull request", resp, err)
	}
	return marshal(CreatedPullRequest{
		ID:     created.GetID(),
		Number: created.GetNumber(),
		URL:    created.GetHTMLURL(),
		State:  created.GetState(),
	})
}
