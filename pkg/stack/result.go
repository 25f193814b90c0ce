package stack

import "time"

// Action types recorded in a Result.
const (
	ActionCreatedBranch = "created_branch"
	ActionPushedBranch  = "pushed_branch"
	ActionCreatedPR     = "created_pr"
)

// Action represents a single side effect of a run.
type Action struct {
	// Type is one of the Action* constants
	Type string `json:"type"`

	// Description provides human-readable details about the action
	Description string `json:"description"`

	// Metadata contains additional action-specific information
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewAction creates an Action.
func NewAction(actionType, description string) Action {
	return Action{
		Type:        actionType,
		Description: description,
		Metadata:    make(map[string]string),
	}
}

// AddMetadata adds metadata to an action.
func (a *Action) AddMetadata(key, value string) {
	if a.Metadata == nil {
		a.Metadata = make(map[string]string)
	}
	a.Metadata[key] = value
}

// PullRequest is the handle of the pull request a run opened.
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Result describes what a run did. It is returned alongside errors so
// callers can report branches left behind by a partial run.
type Result struct {
	Owner    string     `json:"owner,omitempty"`
	Repo     string     `json:"repo,omitempty"`
	Branches BranchPair `json:"branches"`

	// Actions is the list of side effects in the order they happened
	Actions []Action `json:"actions"`

	// PullRequest is set once the pull request is created
	PullRequest *PullRequest `json:"pull_request,omitempty"`

	// Success indicates whether every step completed
	Success bool `json:"success"`

	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// HasAction reports whether an action of the given type was recorded.
func (r *Result) HasAction(actionType string) bool {
	for _, a := range r.Actions {
		if a.Type == actionType {
			return true
		}
	}
	return false
}

func (r *Result) record(a Action) {
	r.Actions = append(r.Actions, a)
}
