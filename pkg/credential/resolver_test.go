package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/coneko/stack/pkg/env"
)

type fakeHelper struct {
	user, password string
	err            error
	calls          []string
	approved       []string
	rejected       []string
}

func (f *fakeHelper) Fill(ctx context.Context, url, username string) (string, string, error) {
	f.calls = append(f.calls, url+"|"+username)
	if f.err != nil {
		return "", "", f.err
	}
	user := f.user
	if username != "" {
		user = username
	}
	return user, f.password, nil
}

func (f *fakeHelper) Approve(ctx context.Context, url, username, password string) error {
	f.approved = append(f.approved, username)
	return nil
}

func (f *fakeHelper) Reject(ctx context.Context, url, username, password string) error {
	f.rejected = append(f.rejected, username)
	return nil
}

func TestResolve_SSH(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(env.Map{env.Home: "/home/alice"}, nil, "")

	first, err := r.Resolve(ctx, "git@github.com:o/r.git", "", MethodSSHKey)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first.Kind != KindSSHAgent || first.Username != "git" {
		t.Errorf("first = %+v, want ssh agent as git", first)
	}

	for i := 0; i < 3; i++ {
		c, err := r.Resolve(ctx, "git@github.com:o/r.git", "", MethodSSHKey)
		if err != nil {
			t.Fatalf("Resolve() #%d error = %v", i+2, err)
		}
		if c.Kind != KindSSHKeyFile {
			t.Errorf("Resolve() #%d kind = %v, want %v", i+2, c.Kind, KindSSHKeyFile)
		}
		if c.KeyPath != "/home/alice/.ssh/id_rsa" {
			t.Errorf("KeyPath = %q", c.KeyPath)
		}
	}

	fresh := NewResolver(env.Map{env.Home: "/home/alice"}, nil, "")
	again, _ := fresh.Resolve(ctx, "git@github.com:o/r.git", "", MethodSSHKey)
	if again.Kind != KindSSHAgent {
		t.Errorf("new resolver kind = %v, want agent", again.Kind)
	}
}

func TestResolve_SSHUsername(t *testing.T) {
	tests := []struct {
		name       string
		fromURL    string
		helperUser string
		wantUser   string
	}{
		{name: "url user wins", fromURL: "deploy", helperUser: "alice", wantUser: "deploy"},
		{name: "helper username", helperUser: "alice", wantUser: "alice"},
		{name: "default", wantUser: "git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(env.Map{env.Home: "/h"}, nil, tt.helperUser)
			for _, want := range []Kind{KindSSHAgent, KindSSHKeyFile} {
				c, err := r.Resolve(context.Background(), "ssh://example.com/r.git", tt.fromURL, MethodSSHKey)
				if err != nil {
					t.Fatal(err)
				}
				if c.Kind != want || c.Username != tt.wantUser {
					t.Errorf("got %v as %q, want %v as %q", c.Kind, c.Username, want, tt.wantUser)
				}
			}
		})
	}
}

func TestResolve_NoHome(t *testing.T) {
	ctx := context.Background()
	for _, e := range []env.Map{{}, {env.Home: ""}} {
		r := NewResolver(e, nil, "")
		if _, err := r.Resolve(ctx, "git@github.com:o/r.git", "", MethodSSHKey); err != nil {
			t.Fatalf("agent attempt should not need HOME: %v", err)
		}
		_, err := r.Resolve(ctx, "git@github.com:o/r.git", "", MethodSSHKey)
		if !errors.Is(err, ErrNoHomeDirectory) {
			t.Errorf("error = %v, want ErrNoHomeDirectory", err)
		}
	}
}

func TestResolve_IdentityFile(t *testing.T) {
	r := NewResolver(env.Map{env.Home: "/h"}, nil, "")
	r.IdentityFile = ".ssh/id_ed25519"
	_, _ = r.Resolve(context.Background(), "u", "", MethodSSHKey)
	c, err := r.Resolve(context.Background(), "u", "", MethodSSHKey)
	if err != nil {
		t.Fatal(err)
	}
	if c.KeyPath != "/h/.ssh/id_ed25519" {
		t.Errorf("KeyPath = %q", c.KeyPath)
	}
}

func TestResolve_UserPass(t *testing.T) {
	helper := &fakeHelper{user: "alice", password: "s3cret"}
	r := NewResolver(env.Map{}, helper, "")

	c, err := r.Resolve(context.Background(), "https://github.com/o/r.git", "", MethodUserPass|MethodDefault)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c.Kind != KindUserPass || c.Username != "alice" || c.Password != "s3cret" {
		t.Errorf("got %+v", c)
	}
	if len(helper.calls) != 1 || helper.calls[0] != "https://github.com/o/r.git|" {
		t.Errorf("helper calls = %v", helper.calls)
	}

	auth, err := c.AuthMethod()
	if err != nil {
		t.Fatal(err)
	}
	basic, ok := auth.(*http.BasicAuth)
	if !ok || basic.Username != "alice" || basic.Password != "s3cret" {
		t.Errorf("AuthMethod() = %#v", auth)
	}

	r.Report(context.Background(), "https://github.com/o/r.git", c, true)
	r.Report(context.Background(), "https://github.com/o/r.git", c, false)
	if len(helper.approved) != 1 || len(helper.rejected) != 1 {
		t.Errorf("approved=%v rejected=%v", helper.approved, helper.rejected)
	}
}

func TestResolve_HelperFailure(t *testing.T) {
	helper := &fakeHelper{err: errors.New("boom")}
	r := NewResolver(env.Map{}, helper, "")
	if _, err := r.Resolve(context.Background(), "https://h/r", "", MethodUserPass); err == nil {
		t.Fatal("expected helper error")
	}
}

func TestResolve_Default(t *testing.T) {
	r := NewResolver(env.Map{}, nil, "")
	c, err := r.Resolve(context.Background(), "/srv/r.git", "", MethodDefault)
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != KindDefault {
		t.Errorf("kind = %v", c.Kind)
	}
	auth, err := c.AuthMethod()
	if err != nil || auth != nil {
		t.Errorf("AuthMethod() = %v, %v; want nil, nil", auth, err)
	}
}

func TestResolve_NoAuthenticationAvailable(t *testing.T) {
	tests := []struct {
		name    string
		allowed Method
		helper  Helper
	}{
		{name: "nothing allowed", allowed: 0},
		{name: "userpass without helper", allowed: MethodUserPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(env.Map{}, tt.helper, "")
			_, err := r.Resolve(context.Background(), "x", "", tt.allowed)
			if !errors.Is(err, ErrNoAuthenticationAvailable) {
				t.Errorf("error = %v, want ErrNoAuthenticationAvailable", err)
			}
		})
	}
}

func TestAllowedMethods(t *testing.T) {
	tests := []struct {
		url  string
		want Method
	}{
		{url: "git@github.com:o/r.git", want: MethodSSHKey},
		{url: "ssh://git@github.com/o/r.git", want: MethodSSHKey},
		{url: "https://github.com/o/r.git", want: MethodUserPass | MethodDefault},
		{url: "http://example.com/r.git", want: MethodUserPass | MethodDefault},
		{url: "/srv/git/r.git", want: MethodDefault},
		{url: "file:///srv/git/r.git", want: MethodDefault},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ep, err := transport.NewEndpoint(tt.url)
			if err != nil {
				t.Fatal(err)
			}
			if got := AllowedMethods(ep); got != tt.want {
				t.Errorf("AllowedMethods() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	if got := (MethodUserPass | MethodDefault).String(); got != "userpass|default" {
		t.Errorf("String() = %q", got)
	}
	if got := Method(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}
