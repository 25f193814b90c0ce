package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// CreatePullRequest creates a new pull request
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, newPR *NewPullRequest) (*PRInfo, error) {
	gh, err := c.GitHubClient()
	if err != nil {
		return nil, err
	}

	req := &github.NewPullRequest{
		Title:               github.Ptr(newPR.Title),
		Head:                github.Ptr(newPR.Head),
		Base:                github.Ptr(newPR.Base),
		MaintainerCanModify: github.Ptr(newPR.MaintainerCanModify),
	}
	if newPR.Body != "" {
		req.Body = github.Ptr(newPR.Body)
	}

	pr, _, err := gh.PullRequests.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request %s -> %s in %s/%s: %w", newPR.Head, newPR.Base, owner, repo, err)
	}
	return convertFromGitHubPR(pr), nil
}

// convertFromGitHubPR converts a github.PullRequest to our PRInfo type
func convertFromGitHubPR(pr *github.PullRequest) *PRInfo {
	info := &PRInfo{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		URL:       pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
	}

	if base := pr.GetBase(); base != nil {
		info.BaseRef = base.GetRef()
		info.BaseSHA = base.GetSHA()
		if base.GetRepo() != nil {
			info.Repository = base.GetRepo().GetFullName()
		}
	}
	if head := pr.GetHead(); head != nil {
		info.HeadRef = head.GetRef()
		info.HeadSHA = head.GetSHA()
	}
	if user := pr.GetUser(); user != nil {
		info.Author = user.GetLogin()
	}

	return info
}
