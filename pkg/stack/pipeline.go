// Package stack turns the commit at HEAD into a stacked pull request.
//
// A run derives two branches from the commit, {user}-stack-{sha}-base at its
// parent and {user}-stack-{sha}-pr at the commit itself, pushes both and
// opens a pull request from the second into the first. Steps run strictly
// in order; a failure stops the run and leaves earlier side effects in place.
package stack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coneko/stack/pkg/changeset"
	"github.com/coneko/stack/pkg/config"
	"github.com/coneko/stack/pkg/credential"
	"github.com/coneko/stack/pkg/env"
	"github.com/coneko/stack/pkg/git"
	"github.com/coneko/stack/pkg/github"
	"github.com/coneko/stack/pkg/log"
)

// Pipeline holds the collaborators of a run. NewPipeline wires the
// production ones; tests replace any of them.
type Pipeline struct {
	// Env supplies USER, HOME and the GitHub token.
	Env env.Env

	// Dir is where repository discovery starts.
	Dir string

	Config *config.ProjectConfig

	Discover func(path string) (Repository, error)

	Changesets ChangesetSource

	// PullRequests builds the forge client once the token is known.
	PullRequests func(token string) (PullRequestService, error)

	// Credentials returns a fresh provider for one push to url.
	Credentials func(ctx context.Context, repo Repository, url string) git.CredentialsProvider

	Now func() time.Time
}

// NewPipeline returns a pipeline for dir using the real environment,
// go-git, the user's editor and the GitHub API.
func NewPipeline(cfg *config.ProjectConfig, dir string) *Pipeline {
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}
	p := &Pipeline{
		Env:      env.OS{},
		Dir:      dir,
		Config:   cfg,
		Discover: DiscoverRepository,
		Now:      time.Now,
	}
	p.Changesets = changeset.NewSource(cfg.Editor)
	p.PullRequests = func(token string) (PullRequestService, error) {
		return github.NewClient(token, github.WithBaseURL(cfg.GitHub.BaseURL)), nil
	}
	p.Credentials = func(ctx context.Context, repo Repository, url string) git.CredentialsProvider {
		r := credential.NewResolver(p.Env, git.NewClient(repo.Root()).CredentialHelper(), repo.CredentialUsername(ctx, url))
		r.IdentityFile = cfg.ResolveIdentityFile()
		return r
	}
	return p
}

// Run builds and uploads the stack for HEAD. The returned Result is never
// nil and lists every side effect that happened, even when err is set.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	cfg := p.Config
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}

	user, ok := env.First(p.Env, env.User)
	if !ok {
		return result, ErrMissingUser
	}
	log.Debug("resolved branch prefix", "prefix", BranchPrefix(user))

	repo, err := p.Discover(p.Dir)
	if err != nil {
		return result, err
	}
	log.Debug("discovered repository", "root", repo.Root())

	remoteName := cfg.ResolveRemote()
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return result, err
	}
	url, ok := remote.URL()
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrNoRemoteURL, remoteName)
	}
	owner, repoName, err := ParseRemoteURL(url)
	if err != nil {
		return result, err
	}
	result.Owner, result.Repo = owner, repoName
	log.Debug("resolved remote", "remote", remoteName, "owner", owner, "repo", repoName)

	head, err := repo.Head()
	if err != nil {
		return result, err
	}
	if err := checkParents(head); err != nil {
		return result, err
	}
	log.Debug("resolved HEAD", "commit", head.ID, "parent", head.Parents[0])

	// Fail on a missing token before the user spends time in the editor.
	token, err := github.TokenFromEnv(p.Env)
	if err != nil {
		return result, err
	}
	prs, err := p.PullRequests(token)
	if err != nil {
		return result, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	cs, err := p.changeset(ctx, cfg, owner, repoName, head)
	if err != nil {
		return result, err
	}
	logChangeset(cs, owner, repoName)

	branches := NewBranchPair(user, head)
	result.Branches = branches

	if err := p.createAndPush(ctx, repo, remote, url, result, branches.Base, branches.BaseTarget); err != nil {
		return result, err
	}
	if err := p.createAndPush(ctx, repo, remote, url, result, branches.Head, branches.HeadTarget); err != nil {
		return result, err
	}

	title, body := pullRequestContent(cs, head)
	pr, err := prs.CreatePullRequest(ctx, owner, repoName, &github.NewPullRequest{
		Title: title,
		Head:  branches.Head,
		Base:  branches.Base,
		Body:  body,
	})
	if err != nil {
		return result, err
	}
	log.Info("created pull request", "number", pr.Number, "url", pr.URL)

	action := NewAction(ActionCreatedPR, fmt.Sprintf("created pull request #%d", pr.Number))
	action.AddMetadata("number", fmt.Sprintf("%d", pr.Number))
	action.AddMetadata("url", pr.URL)
	action.AddMetadata("head", branches.Head)
	action.AddMetadata("base", branches.Base)
	result.record(action)

	result.PullRequest = &PullRequest{Number: pr.Number, URL: pr.URL}
	result.Success = true
	if p.Now != nil {
		result.CompletedAt = p.Now()
	}
	return result, nil
}

func (p *Pipeline) changeset(ctx context.Context, cfg *config.ProjectConfig, owner, repo string, head *git.Commit) (*changeset.Changeset, error) {
	if cfg.ResolveDescription() == config.DescriptionCommit {
		log.Debug("reading changeset from commit message", "commit", head.ID)
		cs, err := changeset.Parse(head.Message, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to parse commit %s message: %w", head.ShortID(), err)
		}
		return cs, nil
	}

	log.Debug("opening editor for changeset")
	cs, err := p.Changesets.FromEditor(ctx, owner, repo, changeset.Template(head.Message))
	if err != nil {
		var editorErr *changeset.EditorError
		if errors.As(err, &editorErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read changeset: %w", err)
	}
	return cs, nil
}

func logChangeset(cs *changeset.Changeset, owner, repo string) {
	log.Debug("parsed changeset", "title", cs.Title, "has_message", cs.HasMessage())
	if cs.Branch != "" {
		log.Warn("ignoring branch name from changeset; stack branch names are derived from the commit", "branch", cs.Branch)
	}
	if cs.PullRequest != nil {
		log.Info("changeset references pull request", "pull_request", cs.PullRequest.URL(owner, repo))
	}
	if len(cs.Dependencies) > 0 {
		log.Info("changeset depends on pull requests", "depends_on", dependencyList(cs.Dependencies))
	}
}

func (p *Pipeline) createAndPush(ctx context.Context, repo Repository, remote Remote, url string, result *Result, name, target string) error {
	ref, err := repo.CreateBranch(name, target, false)
	if err != nil {
		return err
	}
	log.Info("created branch", "branch", name, "commit", target)
	created := NewAction(ActionCreatedBranch, fmt.Sprintf("created branch %s", name))
	created.AddMetadata("branch", name)
	created.AddMetadata("commit", target)
	result.record(created)

	if err := remote.Push(ctx, []string{ref}, p.Credentials(ctx, repo, url)); err != nil {
		return fmt.Errorf("%w (local branch %s was left in place)", err, name)
	}
	log.Info("pushed branch", "branch", name, "url", url)
	pushed := NewAction(ActionPushedBranch, fmt.Sprintf("pushed branch %s", name))
	pushed.AddMetadata("branch", name)
	pushed.AddMetadata("ref", ref)
	result.record(pushed)
	return nil
}

// pullRequestContent returns the pull request title and body. The HEAD
// commit message stands in for a changeset without a title.
func pullRequestContent(cs *changeset.Changeset, head *git.Commit) (string, string) {
	var title, body string
	if cs != nil && cs.Title != "" {
		title, body = cs.Title, cs.Message
	} else {
		title, body = splitCommitMessage(head.Message)
	}

	if cs != nil && len(cs.Dependencies) > 0 {
		if body != "" {
			body += "\n\n"
		}
		body += changeset.DependsOnLabel + " " + dependencyList(cs.Dependencies)
	}
	return title, body
}

func splitCommitMessage(message string) (string, string) {
	message = strings.TrimSpace(message)
	title, body, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}

func dependencyList(ids []changeset.PullRequestID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
