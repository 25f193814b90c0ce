package changeset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PullRequestID is a pull request number within a repository.
type PullRequestID uint64

// String returns the "#n" shorthand.
func (id PullRequestID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// URL returns the canonical web URL of the pull request.
func (id PullRequestID) URL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, repo, uint64(id))
}

// pullRequestPattern matches "n", "#n" and http(s) pull request URLs of
// exactly owner/repo.
func pullRequestPattern(owner, repo string) *regexp.Regexp {
	prefix := regexp.QuoteMeta("github.com/" + owner + "/" + repo + "/pull/")
	return regexp.MustCompile(`^(?:https?://` + prefix + `|#)?([0-9]+)$`)
}

// ResolvePullRequest parses a single reference to a pull request of
// owner/repo. Accepted forms, after trimming surrounding whitespace:
//
//	42
//	#42
//	https://github.com/owner/repo/pull/42
//	http://github.com/owner/repo/pull/42
func ResolvePullRequest(token, owner, repo string) (PullRequestID, error) {
	return resolve(pullRequestPattern(owner, repo), token)
}

// ResolvePullRequests parses a comma-separated list of references. Either
// every element resolves or the call fails.
func ResolvePullRequests(list, owner, repo string) ([]PullRequestID, error) {
	re := pullRequestPattern(owner, repo)
	parts := strings.Split(list, ",")
	ids := make([]PullRequestID, 0, len(parts))
	for _, part := range parts {
		id, err := resolve(re, part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolve(re *regexp.Regexp, token string) (PullRequestID, error) {
	trimmed := strings.TrimSpace(token)
	m := re.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, &ReferenceError{Token: trimmed, Err: ErrNoMatch}
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ReferenceError{Token: trimmed, Err: ErrNumberOverflow}
		}
		return 0, &ReferenceError{Token: trimmed, Err: err}
	}
	return PullRequestID(n), nil
}
