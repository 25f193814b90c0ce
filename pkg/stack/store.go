package stack

import (
	"context"

	"github.com/coneko/stack/pkg/changeset"
	"github.com/coneko/stack/pkg/git"
	"github.com/coneko/stack/pkg/github"
)

// Repository is the local repository a stack is built in.
type Repository interface {
	Root() string
	Remote(name string) (Remote, error)
	Head() (*git.Commit, error)
	CreateBranch(name, target string, overwrite bool) (string, error)
	CredentialUsername(ctx context.Context, url string) string
}

// Remote is where stack branches are pushed.
type Remote interface {
	URL() (string, bool)
	Push(ctx context.Context, refs []string, creds git.CredentialsProvider) error
}

// ChangesetSource asks the user to describe the stacked change.
type ChangesetSource interface {
	FromEditor(ctx context.Context, owner, repo, initial string) (*changeset.Changeset, error)
}

// PullRequestService opens pull requests on the forge.
type PullRequestService interface {
	CreatePullRequest(ctx context.Context, owner, repo string, newPR *github.NewPullRequest) (*github.PRInfo, error)
}

// DiscoverRepository opens the repository enclosing path with go-git.
func DiscoverRepository(path string) (Repository, error) {
	repo, err := git.Discover(path)
	if err != nil {
		return nil, err
	}
	return gitRepository{repo}, nil
}

type gitRepository struct {
	*git.Repository
}

func (r gitRepository) Remote(name string) (Remote, error) {
	remote, err := r.Repository.Remote(name)
	if err != nil {
		return nil, err
	}
	return remote, nil
}
