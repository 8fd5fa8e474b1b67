package vault

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedResponse is returned when a successful response body is not a Vault response envelope.
	ErrMalformedResponse = errors.New("malformed vault response")

	// ErrMissingAuth is returned when a login response carries no auth block.
	ErrMissingAuth = fmt.Errorf("%w: missing auth", ErrMalformedResponse)
)

// Response is the Vault response envelope.
type Response struct {
	RequestID     string         `json:"request_id"`
	LeaseID       string         `json:"lease_id"`
	Renewable     bool           `json:"renewable"`
	LeaseDuration int            `json:"lease_duration"`
	Data          map[string]any `json:"data"`
	Warnings      []string       `json:"warnings"`
	Auth          *Auth          `json:"auth"`
}

// Auth is the auth block returned by login endpoints.
type Auth struct {
	ClientToken   string            `json:"client_token"`
	Accessor      string            `json:"accessor"`
	Policies      []string          `json:"policies"`
	TokenPolicies []string          `json:"token_policies"`
	Metadata      map[string]string `json:"metadata"`
	LeaseDuration int               `json:"lease_duration"`
	Renewable     bool              `json:"renewable"`
	EntityID      string            `json:"entity_id"`
	TokenType     string            `json:"token_type"`
	Orphan        bool              `json:"orphan"`
}

// ResponseError is returned for a non-2xx response.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Errors     []string
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s %s: vault returned HTTP %d", e.Method, e.Path, e.StatusCode)
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return msg
}

// Temporary reports whether the request may succeed if sent again: rate
// limiting, a sealed or standby node, or a server error.
func (e *ResponseError) Temporary() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode == http.StatusNotImplemented:
		return false
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}
