// Package git provides the repository layer used to build stacks.
//
// Object store reads, branch creation and pushes go through go-git
// (Repository, Remote). The few operations go-git does not implement, such
// as talking to git's credential helpers, run the system git binary through
// Client.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs the system git binary against a repository.
type Client struct {
	// Dir is the working directory of the git repository.
	Dir string

	// Options provides optional git configuration.
	Options *ClientOptions
}

// ClientOptions holds configuration for git operations.
type ClientOptions struct {
	// Binary is the git executable to run.
	Binary string
}

// DefaultClientOptions returns the default client options.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Binary: "git",
	}
}

// NewClient creates a new git client for the given directory.
func NewClient(dir string) *Client {
	return &Client{
		Dir:     dir,
		Options: DefaultClientOptions(),
	}
}

func (c *Client) binary() string {
	if c.Options != nil && c.Options.Binary != "" {
		return c.Options.Binary
	}
	return "git"
}

// execCommand executes a git command with proper error handling.
func (c *Client) execCommand(ctx context.Context, args ...string) ([]byte, error) {
	return c.execCommandWithInput(ctx, nil, args...)
}

// execCommandWithInput executes a git command feeding input on stdin.
// Only stdout is returned; stderr is folded into the error.
func (c *Client) execCommandWithInput(ctx context.Context, input []byte, args ...string) ([]byte, error) {
	cmdArgs := []string{}
	if c.Dir != "" {
		cmdArgs = append(cmdArgs, "-C", c.Dir)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, c.binary(), cmdArgs...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// ConfigGetURLMatch returns the value git uses for key when talking to url,
// so `<section>.<url>.<name>` entries take part. An unset key yields "".
func (c *Client) ConfigGetURLMatch(ctx context.Context, key, url string) (string, error) {
	output, err := c.execCommand(ctx, "config", "--get-urlmatch", key, url)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("git config --get-urlmatch %s %s failed: %w", key, url, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CredentialHelper returns an adapter over `git credential` for this repository.
func (c *Client) CredentialHelper() *CredentialHelper {
	return &CredentialHelper{client: c}
}

// CredentialHelper talks to whatever credential.helper git is configured with.
type CredentialHelper struct {
	client *Client
}

// Fill asks the helper for a username and password for url.
func (h *CredentialHelper) Fill(ctx context.Context, url, username string) (string, string, error) {
	out, err := h.client.execCommandWithInput(ctx, credentialInput(url, username, ""), "credential", "fill")
	if err != nil {
		return "", "", err
	}
	fields := parseCredentialOutput(out)
	if fields["password"] == "" {
		return "", "", fmt.Errorf("git credential fill returned no password for %s", url)
	}
	return fields["username"], fields["password"], nil
}

// Approve tells the helper the credential worked.
func (h *CredentialHelper) Approve(ctx context.Context, url, username, password string) error {
	_, err := h.client.execCommandWithInput(ctx, credentialInput(url, username, password), "credential", "approve")
	return err
}

// Reject tells the helper to forget the credential.
func (h *CredentialHelper) Reject(ctx context.Context, url, username, password string) error {
	_, err := h.client.execCommandWithInput(ctx, credentialInput(url, username, password), "credential", "reject")
	return err
}

func credentialInput(url, username, password string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "url=%s\n", url)
	if username != "" {
		fmt.Fprintf(&b, "username=%s\n", username)
	}
	if password != "" {
		fmt.Fprintf(&b, "password=%s\n", password)
	}
	b.WriteString("\n")
	return b.Bytes()
}

func parseCredentialOutput(out []byte) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(strings.TrimRight(line, "\r"), "=")
		if !ok {
			continue
		}
		fields[key] = value
	}
	return fields
}
