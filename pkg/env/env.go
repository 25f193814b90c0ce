// Package env abstracts process environment lookups so that components reading
// USER, HOME, VISUAL/EDITOR or the GitHub token can be exercised without
// touching the real process environment.
package env

import "os"

const (
	// User is the variable holding the login name used as the branch prefix.
	User = "USER"

	// Home is the variable holding the user's home directory.
	Home = "HOME"

	// Visual is the preferred editor variable.
	Visual = "VISUAL"

	// Editor is the fallback editor variable.
	Editor = "EDITOR"
)

// Env looks up environment variables.
type Env interface {
	// Lookup returns the value of key and whether it was set.
	Lookup(key string) (string, bool)
}

// OS reads the real process environment.
type OS struct{}

// Lookup implements Env.
func (OS) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Map is a fixed environment, mostly useful in tests.
type Map map[string]string

// Lookup implements Env.
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// First returns the first of keys that is set to a non-empty value.
func First(e Env, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := e.Lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
