package changeset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/coneko/stack/pkg/env"
	"github.com/coneko/stack/pkg/log"
	"github.com/mattn/go-shellwords"
)

// DefaultEditor is used when neither VISUAL, EDITOR nor the project config
// name an editor.
const DefaultEditor = "vi"

// ExitStatus is how an editor process ended.
type ExitStatus struct {
	// Code is the exit code. Meaningless when Signaled is set.
	Code int
	// Signaled is set when the process was terminated by a signal.
	Signaled bool
}

// Success reports a zero exit code.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

// Launcher runs an editor command against a file and waits for it to exit.
type Launcher interface {
	// Launch runs command with path appended as the last argument. A
	// process that started and exited is reported through ExitStatus;
	// the error is reserved for processes that could not be started.
	Launch(ctx context.Context, command []string, path string) (ExitStatus, error)
}

// ExecLauncher launches editors as child processes attached to the
// terminal.
type ExecLauncher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecLauncher returns a launcher wired to the process's standard streams.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch implements Launcher. It blocks until the editor exits.
func (l *ExecLauncher) Launch(ctx context.Context, command []string, path string) (ExitStatus, error) {
	if len(command) == 0 {
		return ExitStatus{}, fmt.Errorf("empty editor command")
	}
	args := append(append([]string{}, command[1:]...), path)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	err := cmd.Run()
	if err == nil {
		return ExitStatus{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return ExitStatus{Code: code, Signaled: code == -1}, nil
	}
	return ExitStatus{}, err
}

// Source obtains changeset descriptions from the user.
type Source struct {
	// Env supplies VISUAL and EDITOR.
	Env env.Env

	// Launcher runs the editor.
	Launcher Launcher

	// Editor is the configured editor, consulted after VISUAL and EDITOR.
	Editor string

	// TempDir is where the scratch file is created. Empty means os.TempDir().
	TempDir string
}

// NewSource returns a Source reading the real environment and launching
// editors on the terminal.
func NewSource(configuredEditor string) *Source {
	return &Source{
		Env:      env.OS{},
		Launcher: NewExecLauncher(),
		Editor:   configuredEditor,
	}
}

// EditorCommand returns the editor command line split into arguments.
// Precedence: VISUAL > EDITOR > configured editor > "vi".
func (s *Source) EditorCommand() ([]string, error) {
	raw, ok := env.First(s.Env, env.Visual, env.Editor)
	if !ok {
		raw = s.Editor
	}
	if strings.TrimSpace(raw) == "" {
		raw = DefaultEditor
	}
	args, err := shellwords.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse editor command %q: %w", raw, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("editor command %q is empty", raw)
	}
	return args, nil
}

// FromString parses text for owner/repo without involving an editor.
func (s *Source) FromString(text, owner, repo string) (*Changeset, error) {
	return Parse(text, owner, repo)
}

// FromEditor writes initial to a scratch file, opens it in the user's
// editor and parses what was saved. The scratch file is removed before
// FromEditor returns. Nothing is parsed when the editor fails.
func (s *Source) FromEditor(ctx context.Context, owner, repo, initial string) (*Changeset, error) {
	command, err := s.EditorCommand()
	if err != nil {
		return nil, err
	}
	editor := strings.Join(command, " ")

	tmpfile, err := os.CreateTemp(s.TempDir, "stack-changeset-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	path := tmpfile.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temporary file", "path", path, "error", err)
		}
	}()

	if _, err := tmpfile.WriteString(initial); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("failed to write temporary file '%s': %w", path, err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary file '%s': %w", path, err)
	}

	log.Debug("launching editor", "editor", editor, "path", path)
	status, err := s.Launcher.Launch(ctx, command, path)
	if err != nil {
		return nil, fmt.Errorf("could not open temporary file '%s' with editor '%s': %w", path, editor, err)
	}
	if !status.Success() {
		return nil, &EditorError{Editor: editor, Path: path, Status: status}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read contents of temporary file '%s' opened with editor '%s': %w", path, editor, err)
	}

	return Parse(string(data), owner, repo)
}

// Template returns the initial editor content for a commit: its message
// followed by commented help on the recognised fields.
func Template(commitMessage string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(commitMessage, "\n"))
	b.WriteString("\n\n")
	b.WriteString(`# Describe the pull request for this commit. Lines starting with '#' and
# blank lines are ignored. The first remaining line is the title, the
# following lines are the body.
#
# Optional fields, one per line:
#   Pull request: <existing pull request this change amends>
#   Depends on: <comma-separated pull requests this change depends on>
#   Branch name: <recorded but not used; branch names derive from the commit>
#
# Pull requests may be written as 12, #12 or a full pull request URL.
# An editor exiting with a non-zero status aborts the upload.
`)
	return b.String()
}
