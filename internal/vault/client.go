// Package vault is a minimal Vault HTTP client covering what login needs:
// POST a JSON body to a templated path and decode the response envelope.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const maxErrorBody = 64 * 1024

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Config holds Vault client configuration
type Config struct {
	Address   string
	Namespace string
	Timeout   time.Duration
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		Address: "https://127.0.0.1:8200",
		Timeout: 60 * time.Second,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client sends requests to a Vault server.
type Client struct {
	baseURL    *url.URL
	namespace  string
	httpClient *http.Client
}

// NewClient creates a Client for cfg.Address.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("vault address is required")
	}

	u, err := url.Parse(strings.TrimRight(cfg.Address, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("vault address must be http or https, got %q", cfg.Address)
	}

	c := &Client{
		baseURL:    u,
		namespace:  strings.Trim(cfg.Namespace, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Post sends body as JSON to path, after replacing each {name} placeholder in
// path with pathParams[name]. A 2xx response is decoded into a Response;
// anything else is returned as a *ResponseError.
func (c *Client) Post(ctx context.Context, path string, pathParams map[string]string, body map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, pathParams, payload)
}

// Get reads path. Authentication comes from the HTTP client, for example one
// built with oauth2.NewClient.
func (c *Client) Get(ctx context.Context, path string, pathParams map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, pathParams, nil)
}

func (c *Client) do(ctx context.Context, method, path string, pathParams map[string]string, payload []byte) (*Response, error) {
	expanded, err := ExpandPath(path, pathParams)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL.JoinPath("v1", expanded)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Vault-Request", "true")
	if c.namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.namespace)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newResponseError(req.Method, expanded, resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &out, nil
}

// ExpandPath replaces {name} placeholders in path. Values are inserted as-is so
// nested mounts such as "cf/prod" keep their separators.
func ExpandPath(path string, params map[string]string) (string, error) {
	var missing []string

	expanded := placeholder.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok || strings.Trim(v, "/") == "" {
			missing = append(missing, name)
			return m
		}
		return strings.Trim(v, "/")
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing path parameters for %q: %s", path, strings.Join(missing, ", "))
	}

	return strings.TrimLeft(expanded, "/"), nil
}

func newResponseError(method, path string, resp *http.Response) *ResponseError {
	rerr := &ResponseError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return rerr
	}

	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		rerr.Errors = body.Errors
	}

	return rerr
}
