package github

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
)

// StatusCode returns the HTTP status of a GitHub API error, or 0.
func StatusCode(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	return 0
}

// IsRateLimitError returns true if the error is a rate limit error
func IsRateLimitError(err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsNotFoundError returns true if the error is a not found error
func IsNotFoundError(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsAuthenticationError returns true if the error is an authentication error
func IsAuthenticationError(err error) bool {
	// Exclude rate limit errors (they're not auth errors)
	if IsRateLimitError(err) {
		return false
	}
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsValidationError returns true for 422 responses, e.g. a pull request that
// already exists or a head branch GitHub cannot see.
func IsValidationError(err error) bool {
	return StatusCode(err) == http.StatusUnprocessableEntity
}

// ErrorDetails flattens the per-field messages of a validation error.
func ErrorDetails(err error) string {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) {
		return ""
	}
	var parts []string
	for _, e := range errResp.Errors {
		switch {
		case e.Message != "":
			parts = append(parts, e.Message)
		case e.Field != "":
			parts = append(parts, e.Field+" "+e.Code)
		}
	}
	return strings.Join(parts, "; ")
}
