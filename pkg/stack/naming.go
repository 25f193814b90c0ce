package stack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coneko/stack/pkg/git"
)

const (
	baseSuffix = "-base"
	headSuffix = "-pr"
)

var remoteURLPattern = regexp.MustCompile(`^git@github\.com:(?P<owner>[^/]+)/(?P<repo>.+)\.git$`)

// ParseRemoteURL extracts owner and repository from an SSH GitHub url
// such as git@github.com:alice/widgets.git.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	m := remoteURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("%w: '%s' (expected git@github.com:<owner>/<repo>.git)", ErrUnrecognizedRemoteURL, url)
	}
	return m[remoteURLPattern.SubexpIndex("owner")], m[remoteURLPattern.SubexpIndex("repo")], nil
}

// BranchPrefix is prepended to every branch a user's stacks create.
func BranchPrefix(user string) string {
	return user + "-stack-"
}

// BranchPair names the two branches backing one stacked pull request.
type BranchPair struct {
	// Base points at the parent of the stacked commit; the pull request targets it.
	Base string `json:"base"`
	// Head points at the stacked commit; the pull request merges it.
	Head string `json:"head"`
	// BaseTarget and HeadTarget are the commits the branches are created at.
	BaseTarget string `json:"base_target"`
	HeadTarget string `json:"head_target"`
}

// NewBranchPair derives the branch names for head, which must have exactly
// one parent.
func NewBranchPair(user string, head *git.Commit) BranchPair {
	stem := BranchPrefix(user) + head.ID
	return BranchPair{
		Base:       stem + baseSuffix,
		Head:       stem + headSuffix,
		BaseTarget: head.Parents[0],
		HeadTarget: head.ID,
	}
}

// checkParents verifies HEAD is a single-parent commit.
func checkParents(head *git.Commit) error {
	switch n := len(head.Parents); {
	case n == 0:
		return fmt.Errorf("%w: %s", ErrNoParent, head.ID)
	case n > 1:
		return fmt.Errorf("%w: %s has %d parents (%s)", ErrMultipleParents, head.ID, n, strings.Join(head.Parents, ", "))
	}
	return nil
}
