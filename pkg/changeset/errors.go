package changeset

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when a token is not a recognised pull request reference.
	ErrNoMatch = errors.New("not a pull request reference")

	// ErrNumberOverflow is returned when a pull request number does not fit in 64 bits.
	ErrNumberOverflow = errors.New("pull request number out of range")

	// ErrDuplicateField is returned when a single-valued field appears twice.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrMultipleValues is returned when a single-valued field lists more than one reference.
	ErrMultipleValues = errors.New("field accepts exactly one pull request")

	// ErrInvalidField is returned when a labeled field cannot be parsed.
	ErrInvalidField = errors.New("invalid field")

	// ErrMissingTitle is returned when the description has no title line.
	ErrMissingTitle = errors.New("missing title")

	// ErrEditorAborted is returned when the editor exits unsuccessfully.
	ErrEditorAborted = errors.New("editor aborted")
)

// ReferenceError describes a token that could not be resolved to a pull request.
type ReferenceError struct {
	Token string
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("could not resolve pull request reference %q: %v", e.Token, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// ParseError is returned by Parse. It echoes the offending line and the
// complete description so the user can find the mistake after the editor
// has closed.
type ParseError struct {
	// Kind is one of the Err* sentinels.
	Kind error
	// Field is the label of the offending field, if any.
	Field string
	// Line is the offending line, if any.
	Line string
	// Text is the complete description.
	Text string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ParseError) Error() string {
	var msg string
	switch {
	case errors.Is(e.Kind, ErrDuplicateField):
		msg = fmt.Sprintf("multiple '%s' fields found in changeset description: '%s'", e.Field, e.Line)
	case errors.Is(e.Kind, ErrMultipleValues):
		msg = fmt.Sprintf("'%s' field must reference exactly one pull request: '%s'", e.Field, e.Line)
	case errors.Is(e.Kind, ErrMissingTitle):
		msg = "could not parse title from changeset description"
	default:
		msg = fmt.Sprintf("could not parse '%s' field: '%s'", e.Field, e.Line)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	}
	return msg + ":\n" + e.Text
}

func (e *ParseError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// EditorError reports an editor that did not exit successfully.
type EditorError struct {
	Editor string
	Path   string
	Status ExitStatus
}

func (e *EditorError) Error() string {
	if e.Status.Signaled {
		return fmt.Sprintf("editor '%s' terminated by signal after opening temporary file '%s'", e.Editor, e.Path)
	}
	return fmt.Sprintf("editor '%s' exited with code '%d' after opening temporary file '%s'", e.Editor, e.Status.Code, e.Path)
}

func (e *EditorError) Unwrap() error {
	return ErrEditorAborted
}
