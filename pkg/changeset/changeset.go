// Package changeset turns the free-form description a user writes for a
// stacked change into a structured Changeset.
//
// The description format is line based:
//
//	# lines starting with '#' and blank lines are ignored everywhere
//	Title of the pull request
//	Body line one
//	Body line two
//	Pull request: #12
//	Depends on: #10, https://github.com/owner/repo/pull/11
//	Branch name: my-branch
//
// The first line that is not blank, a comment or a labeled field is the
// title; every later such line is appended to the body.
package changeset

import (
	"strings"
)

const (
	// PullRequestLabel introduces the existing pull request this change amends.
	PullRequestLabel = "Pull request:"

	// DependsOnLabel introduces pull requests this change depends on. It may repeat.
	DependsOnLabel = "Depends on:"

	// BranchLabel introduces an explicit branch name override.
	BranchLabel = "Branch name:"
)

// Changeset is the parsed description of one stacked change.
type Changeset struct {
	// Title is the first free-text line. Never empty.
	Title string

	// Message is the remaining free-text lines joined by "\n". Empty when
	// the description had no body lines.
	Message string

	// PullRequest is the existing pull request this change amends, if any.
	PullRequest *PullRequestID

	// Branch is the "Branch name:" override, if any.
	Branch string

	// Dependencies lists pull requests this change depends on, in order of
	// appearance. Duplicates are kept.
	Dependencies []PullRequestID
}

// HasMessage reports whether the description had body lines.
func (c *Changeset) HasMessage() bool {
	return c.Message != ""
}

// FromString parses text as a changeset description for owner/repo.
func FromString(text, owner, repo string) (*Changeset, error) {
	return Parse(text, owner, repo)
}

// Parse parses a changeset description. Pull request references in labeled
// fields must point at owner/repo.
func Parse(text, owner, repo string) (*Changeset, error) {
	var (
		cs       Changeset
		title    string
		hasTitle bool
		body     []string
		hasPR    bool
		hasBr    bool
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.TrimSpace(line) == "":
			continue

		case strings.HasPrefix(line, "#"):
			continue

		case strings.HasPrefix(line, BranchLabel):
			if hasBr {
				return nil, &ParseError{Kind: ErrDuplicateField, Field: fieldName(BranchLabel), Line: line, Text: text}
			}
			hasBr = true
			cs.Branch = strings.TrimSpace(line[len(BranchLabel):])

		case strings.HasPrefix(line, PullRequestLabel):
			if hasPR {
				return nil, &ParseError{Kind: ErrDuplicateField, Field: fieldName(PullRequestLabel), Line: line, Text: text}
			}
			hasPR = true
			ids, err := ResolvePullRequests(line[len(PullRequestLabel):], owner, repo)
			if err != nil {
				return nil, &ParseError{Kind: ErrInvalidField, Field: fieldName(PullRequestLabel), Line: line, Text: text, Err: err}
			}
			if len(ids) != 1 {
				return nil, &ParseError{Kind: ErrMultipleValues, Field: fieldName(PullRequestLabel), Line: line, Text: text}
			}
			id := ids[0]
			cs.PullRequest = &id

		case strings.HasPrefix(line, DependsOnLabel):
			ids, err := ResolvePullRequests(line[len(DependsOnLabel):], owner, repo)
			if err != nil {
				return nil, &ParseError{Kind: ErrInvalidField, Field: fieldName(DependsOnLabel), Line: line, Text: text, Err: err}
			}
			cs.Dependencies = append(cs.Dependencies, ids...)

		case !hasTitle:
			title = line
			hasTitle = true

		default:
			body = append(body, line)
		}
	}

	if !hasTitle {
		return nil, &ParseError{Kind: ErrMissingTitle, Text: text}
	}

	cs.Title = title
	cs.Message = strings.Join(body, "\n")
	return &cs, nil
}

// fieldName strips the trailing colon from a label.
func fieldName(label string) string {
	return strings.TrimSuffix(label, ":")
}
