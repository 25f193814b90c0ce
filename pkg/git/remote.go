package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/coneko/stack/pkg/credential"
	"github.com/coneko/stack/pkg/log"
)

// CredentialsProvider supplies credentials to Push, one attempt at a time.
type CredentialsProvider interface {
	Resolve(ctx context.Context, url, usernameFromURL string, allowed credential.Method) (credential.Credential, error)
	Report(ctx context.Context, url string, c credential.Credential, accepted bool)
}

// Remote is a configured remote of a Repository.
type Remote struct {
	name   string
	remote *gogit.Remote
}

// URL returns the first configured url of the remote.
func (rm *Remote) URL() (string, bool) {
	urls := rm.remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", false
	}
	return urls[0], true
}

// Push pushes each ref to the same name on the remote. Credentials are
// requested from creds until one is accepted, creds runs out, or creds hands
// back a kind of credential the remote already refused.
func (rm *Remote) Push(ctx context.Context, refs []string, creds CredentialsProvider) error {
	url, ok := rm.URL()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRemoteURL, rm.name)
	}
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return fmt.Errorf("failed to parse url of remote '%s': %w", rm.name, err)
	}

	specs := make([]config.RefSpec, 0, len(refs))
	for _, ref := range refs {
		spec := config.RefSpec(ref + ":" + ref)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid refspec %s: %w", spec, err)
		}
		specs = append(specs, spec)
	}

	allowed := credential.AllowedMethods(ep)
	refused := make(map[credential.Kind]bool)
	var lastErr error
	for {
		cred, err := creds.Resolve(ctx, url, ep.User, allowed)
		if err != nil {
			if lastErr != nil {
				return fmt.Errorf("failed to push to %s: %w (last attempt: %v)", rm.name, err, lastErr)
			}
			return fmt.Errorf("failed to push to %s: %w", rm.name, err)
		}
		if refused[cred.Kind] {
			return fmt.Errorf("failed to push to %s: authentication failed: %w", rm.name, lastErr)
		}

		auth, err := cred.AuthMethod()
		if err != nil {
			if cred.Kind != credential.KindSSHAgent {
				return fmt.Errorf("failed to push to %s: %w", rm.name, err)
			}
			log.Debug("ssh agent unavailable", "remote", rm.name, "error", err)
			refused[cred.Kind] = true
			lastErr = err
			continue
		}

		log.Debug("pushing", "remote", rm.name, "refs", strings.Join(refs, ","), "credential", cred.Kind.String())
		err = rm.remote.PushContext(ctx, &gogit.PushOptions{
			RemoteName: rm.name,
			RefSpecs:   specs,
			Auth:       auth,
		})
		if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			creds.Report(ctx, url, cred, true)
			return nil
		}
		if !isAuthError(err) {
			return fmt.Errorf("failed to push to %s: %w", rm.name, err)
		}

		log.Debug("credential refused", "remote", rm.name, "credential", cred.Kind.String(), "error", err)
		creds.Report(ctx, url, cred, false)
		refused[cred.Kind] = true
		lastErr = err
	}
}

func isAuthError(err error) bool {
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "no supported methods remain")
}
