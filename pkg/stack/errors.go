package stack

import (
	"errors"

	"github.com/coneko/stack/pkg/git"
	"github.com/coneko/stack/pkg/github"
)

var (
	// ErrMissingUser is returned when USER is unset or empty.
	ErrMissingUser = errors.New("USER environment variable is not set")

	// ErrNotARepository is returned when the working directory is outside any repository.
	ErrNotARepository = git.ErrNotARepository

	// ErrNoOriginRemote is returned when the configured remote (origin by default) does not exist.
	ErrNoOriginRemote = git.ErrRemoteNotFound

	// ErrNoRemoteURL is returned when the remote has no url.
	ErrNoRemoteURL = git.ErrNoRemoteURL

	// ErrUnrecognizedRemoteURL is returned when the remote url is not git@github.com:owner/repo.git.
	ErrUnrecognizedRemoteURL = errors.New("unrecognized remote url")

	// ErrNoHead is returned when HEAD does not resolve to a commit.
	ErrNoHead = git.ErrNoHead

	// ErrNoParent is returned for a root commit.
	ErrNoParent = errors.New("HEAD commit has no parent")

	// ErrMultipleParents is returned for a merge commit.
	ErrMultipleParents = errors.New("HEAD commit has multiple parents")

	// ErrBranchAlreadyExists is returned when a stack branch name is taken.
	ErrBranchAlreadyExists = git.ErrBranchExists

	// ErrMissingToken is returned when no GitHub token is available.
	ErrMissingToken = github.ErrMissingToken
)
