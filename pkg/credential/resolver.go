package credential

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/coneko/stack/pkg/env"
	"github.com/coneko/stack/pkg/log"
)

// DefaultSSHUser is used when neither the URL nor git config name a user.
const DefaultSSHUser = "git"

// DefaultIdentityFile is the key file tried after the agent, relative to HOME.
const DefaultIdentityFile = ".ssh/id_rsa"

// Helper asks git's configured credential helper for a username and password.
type Helper interface {
	Fill(ctx context.Context, url, username string) (user, password string, err error)
}

// Resolver hands out credentials for one push. It remembers whether the SSH
// agent was already offered, so create a new Resolver for every
// independent push.
type Resolver struct {
	// Env supplies HOME.
	Env env.Env

	// Helper backs MethodUserPass. Nil disables that strategy.
	Helper Helper

	// HelperUsername is the credential.username configured for the remote.
	HelperUsername string

	// IdentityFile is the SSH key path relative to HOME.
	IdentityFile string

	triedAgent bool
}

// NewResolver returns a resolver with the default key file.
func NewResolver(e env.Env, helper Helper, helperUsername string) *Resolver {
	return &Resolver{
		Env:            e,
		Helper:         helper,
		HelperUsername: helperUsername,
		IdentityFile:   DefaultIdentityFile,
	}
}

// Resolve returns the next credential to try for url. usernameFromURL is the
// user embedded in the remote URL, if any; allowed is what the remote accepts.
func (r *Resolver) Resolve(ctx context.Context, url, usernameFromURL string, allowed Method) (Credential, error) {
	switch {
	case allowed.Has(MethodSSHKey):
		user := r.sshUser(usernameFromURL)
		if !r.triedAgent {
			r.triedAgent = true
			log.Debug("trying ssh agent", "url", url, "user", user)
			return Credential{Kind: KindSSHAgent, Username: user}, nil
		}
		home, ok := r.Env.Lookup(env.Home)
		if !ok || home == "" {
			return Credential{}, ErrNoHomeDirectory
		}
		identity := r.IdentityFile
		if identity == "" {
			identity = DefaultIdentityFile
		}
		keyPath := filepath.Join(home, identity)
		log.Debug("trying ssh key file", "url", url, "user", user, "key", keyPath)
		return Credential{Kind: KindSSHKeyFile, Username: user, KeyPath: keyPath}, nil

	case allowed.Has(MethodUserPass):
		if r.Helper == nil {
			return Credential{}, fmt.Errorf("%w: no credential helper for %s", ErrNoAuthenticationAvailable, url)
		}
		user, password, err := r.Helper.Fill(ctx, url, usernameFromURL)
		if err != nil {
			return Credential{}, fmt.Errorf("credential helper failed for %s: %w", url, err)
		}
		log.Debug("using credential helper", "url", url, "user", user)
		return Credential{Kind: KindUserPass, Username: user, Password: password}, nil

	case allowed.Has(MethodDefault):
		return Credential{Kind: KindDefault}, nil

	default:
		return Credential{}, fmt.Errorf("%w for %s (allowed: %s)", ErrNoAuthenticationAvailable, url, allowed)
	}
}

func (r *Resolver) sshUser(usernameFromURL string) string {
	if usernameFromURL != "" {
		return usernameFromURL
	}
	if r.HelperUsername != "" {
		return r.HelperUsername
	}
	return DefaultSSHUser
}

// Approver is implemented by helpers that cache credentials.
type Approver interface {
	Approve(ctx context.Context, url, username, password string) error
	Reject(ctx context.Context, url, username, password string) error
}

// Report feeds the outcome of a push attempt back to the credential helper.
// Only helper-sourced credentials are reported.
func (r *Resolver) Report(ctx context.Context, url string, c Credential, accepted bool) {
	if c.Kind != KindUserPass {
		return
	}
	approver, ok := r.Helper.(Approver)
	if !ok {
		return
	}
	var err error
	if accepted {
		err = approver.Approve(ctx, url, c.Username, c.Password)
	} else {
		err = approver.Reject(ctx, url, c.Username, c.Password)
	}
	if err != nil {
		log.Warn("credential helper did not record result", "url", url, "accepted", accepted, "error", err)
	}
}
