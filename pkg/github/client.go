// Package github is the forge client used to open stacked pull requests.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/coneko/stack/pkg/env"
)

const (
	// DefaultBaseURL is the default GitHub API base URL
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the environment variable for GitHub token
	TokenEnv = "GITHUB_TOKEN"

	// FallbackTokenEnv is read when TokenEnv is unset (the gh CLI's variable)
	FallbackTokenEnv = "GH_TOKEN"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// ErrMissingToken is returned when no token variable is set.
var ErrMissingToken = errors.New(TokenEnv + " or " + FallbackTokenEnv + " environment variable is required")

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the GitHub API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout sets a custom HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client wraps a lazily built go-github client authenticated with a token.
type Client struct {
	token        string
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	githubClient *github.Client
}

// NewClient creates a new GitHub API client with the given token
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	// Update HTTP client timeout if set
	c.httpClient.Timeout = c.timeout

	return c
}

// TokenFromEnv returns GITHUB_TOKEN, falling back to GH_TOKEN.
func TokenFromEnv(e env.Env) (string, error) {
	token, ok := env.First(e, TokenEnv, FallbackTokenEnv)
	if !ok {
		return "", ErrMissingToken
	}
	return token, nil
}

// GitHubClient returns the underlying go-github client (lazy-loaded)
func (c *Client) GitHubClient() (*github.Client, error) {
	if c.githubClient != nil {
		return c.githubClient, nil
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = c.timeout
	gh := github.NewClient(hc)

	if c.baseURL != DefaultBaseURL {
		baseURL := c.baseURL
		// go-github requires a trailing slash
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base url %q: %w", c.baseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid GitHub API base url %q: missing scheme or host", c.baseURL)
		}
		gh.BaseURL = parsed
	}

	c.githubClient = gh
	return gh, nil
}
