// Package credential resolves the credentials used to push stack branches.
//
// A push asks the Resolver for a credential, tries it, and asks again when
// the remote rejects it. The Resolver walks a fixed fallback chain:
// SSH agent, SSH key file, git credential helper, anonymous.
package credential

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

var (
	// ErrNoHomeDirectory is returned when the SSH key file fallback needs HOME and it is unset.
	ErrNoHomeDirectory = errors.New("could not get user home directory: HOME is not set")

	// ErrNoAuthenticationAvailable is returned when no allowed method has a strategy.
	ErrNoAuthenticationAvailable = errors.New("no authentication available")
)

// Method is a set of authentication methods a remote accepts.
type Method uint8

const (
	// MethodSSHKey is public key authentication over SSH.
	MethodSSHKey Method = 1 << iota
	// MethodUserPass is username/password authentication over HTTP(S).
	MethodUserPass
	// MethodDefault is the transport's default, usually anonymous, authentication.
	MethodDefault
)

// Has reports whether every method in o is in m.
func (m Method) Has(o Method) bool {
	return o != 0 && m&o == o
}

func (m Method) String() string {
	if m == 0 {
		return "none"
	}
	s := ""
	for _, part := range []struct {
		m    Method
		name string
	}{{MethodSSHKey, "ssh-key"}, {MethodUserPass, "userpass"}, {MethodDefault, "default"}} {
		if m.Has(part.m) {
			if s != "" {
				s += "|"
			}
			s += part.name
		}
	}
	return s
}

// AllowedMethods returns the methods a remote endpoint can accept.
func AllowedMethods(ep *transport.Endpoint) Method {
	switch ep.Protocol {
	case "ssh":
		return MethodSSHKey
	case "http", "https":
		return MethodUserPass | MethodDefault
	default:
		return MethodDefault
	}
}

// Kind identifies which strategy produced a Credential.
type Kind int

const (
	KindSSHAgent Kind = iota
	KindSSHKeyFile
	KindUserPass
	KindDefault
)

func (k Kind) String() string {
	switch k {
	case KindSSHAgent:
		return "ssh-agent"
	case KindSSHKeyFile:
		return "ssh-key-file"
	case KindUserPass:
		return "credential-helper"
	case KindDefault:
		return "default"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Credential is one authentication attempt.
type Credential struct {
	Kind     Kind
	Username string
	// KeyPath is the private key for KindSSHKeyFile.
	KeyPath string
	// Password is the secret for KindUserPass.
	Password string
}

// AuthMethod converts the credential into a go-git transport auth method.
// KindDefault yields nil, which lets the transport use its defaults.
func (c Credential) AuthMethod() (transport.AuthMethod, error) {
	switch c.Kind {
	case KindSSHAgent:
		auth, err := ssh.NewSSHAgentAuth(c.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ssh agent: %w", err)
		}
		return auth, nil
	case KindSSHKeyFile:
		auth, err := ssh.NewPublicKeysFromFile(c.Username, c.KeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key '%s': %w", c.KeyPath, err)
		}
		return auth, nil
	case KindUserPass:
		return &http.BasicAuth{Username: c.Username, Password: c.Password}, nil
	case KindDefault:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown credential kind %v", c.Kind)
	}
}
