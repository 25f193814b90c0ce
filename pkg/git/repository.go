package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/coneko/stack/pkg/log"
)

var (
	// ErrNotARepository is returned when no repository encloses the path.
	ErrNotARepository = errors.New("not a git repository (or any of the parent directories)")

	// ErrRemoteNotFound is returned when the named remote is not configured.
	ErrRemoteNotFound = errors.New("remote not found")

	// ErrNoRemoteURL is returned when a remote has no URL.
	ErrNoRemoteURL = errors.New("remote has no url")

	// ErrNoHead is returned when HEAD does not resolve to a commit.
	ErrNoHead = errors.New("HEAD does not point to a commit")

	// ErrBranchExists is returned by CreateBranch when overwrite is false.
	ErrBranchExists = errors.New("branch already exists")
)

// Commit is the subset of a commit object the stack needs.
type Commit struct {
	ID      string
	Message string
	Parents []string
}

// ShortID returns the abbreviated commit id.
func (c *Commit) ShortID() string {
	if len(c.ID) > 7 {
		return c.ID[:7]
	}
	return c.ID
}

// Repository is a local git repository opened through go-git.
type Repository struct {
	repo *gogit.Repository
	root string
	git  *Client
}

// Discover opens the repository enclosing path, walking up parent directories.
func Discover(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotARepository
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repository{repo: repo, root: root, git: NewClient(root)}, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// Remote looks up a configured remote.
func (r *Repository) Remote(name string) (*Remote, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRemoteNotFound, name)
		}
		return nil, fmt.Errorf("failed to get remote '%s': %w", name, err)
	}
	return &Remote{name: name, remote: remote}, nil
}

// Head resolves HEAD to its commit.
func (r *Repository) Head() (*Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, ErrNoHead
		}
		return nil, fmt.Errorf("%w: %v", ErrNoHead, err)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoHead, ref.Hash(), err)
	}

	parents := make([]string, 0, len(commit.ParentHashes))
	for _, p := range commit.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		ID:      commit.Hash.String(),
		Message: commit.Message,
		Parents: parents,
	}, nil
}

// CreateBranch points refs/heads/name at target and returns the full ref name.
// Unless overwrite is set an existing branch is left alone and ErrBranchExists
// is returned.
func (r *Repository) CreateBranch(name, target string, overwrite bool) (string, error) {
	refName := plumbing.NewBranchReferenceName(name)
	if err := refName.Validate(); err != nil {
		return "", fmt.Errorf("invalid branch name '%s': %w", name, err)
	}

	if !overwrite {
		_, err := r.repo.Reference(refName, false)
		if err == nil {
			return "", fmt.Errorf("%w: %s", ErrBranchExists, name)
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("failed to look up branch %s: %w", name, err)
		}
	}

	hash := plumbing.NewHash(target)
	if _, err := r.repo.CommitObject(hash); err != nil {
		return "", fmt.Errorf("failed to create branch %s: target %s: %w", name, target, err)
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return "", fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return refName.String(), nil
}

// CredentialUsername returns the credential.username git config sets for
// url. git resolves `credential.<url>.username` entries itself, so the most
// specific match wins over a plain `credential.username`. scp-style remotes
// are matched as ssh:// URLs.
func (r *Repository) CredentialUsername(ctx context.Context, url string) string {
	if ep, err := transport.NewEndpoint(url); err == nil {
		url = ep.String()
	}
	user, err := r.git.ConfigGetURLMatch(ctx, "credential.username", url)
	if err != nil {
		log.Debug("could not read credential.username", "url", url, "error", err)
		return ""
	}
	return user
}
