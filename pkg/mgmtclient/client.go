// Package mgmtclient is the HTTP client of the API-management REST service.
// It reads and writes whole API definitions and carries the ETag returned by
// the service so that concurrent edits are detected on write.
package mgmtclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/logging"
)

// DefaultTimeout is the HTTP timeout used unless WithTimeout is given.
const DefaultTimeout = 30 * time.Second

// Client talks to the management API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		if !insecure {
			return
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev gateways
		c.httpClient.Transport = t
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the management API rooted at baseURL
// (e.g. "https://apim.example.com/management").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the management API root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListAPIs returns the APIs visible to the caller.
func (c *Client) ListAPIs(ctx context.Context) ([]types.APISummary, error) {
	resp, err := c.send(ctx, http.MethodGet, "/apis", nil, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result types.APIListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode api list: %w", err)
	}
	return result.Items, nil
}

// GetAPI returns the API definition with its current ETag.
func (c *Client) GetAPI(ctx context.Context, id string) (*api.API, error) {
	resp, err := c.send(ctx, http.MethodGet, "/apis/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeAPI(resp)
}

// UpdateAPI replaces the API definition. When a.ETag is set it is sent as
// If-Match; a stale ETag fails with an error matching ErrConflict. The stored
// definition and its new ETag are returned.
func (c *Client) UpdateAPI(ctx context.Context, a *api.API) (*api.API, string, error) {
	if a.ID == "" {
		return nil, "", ErrMissingID
	}
	header := http.Header{}
	if a.ETag != "" {
		header.Set("If-Match", a.ETag)
	}

	resp, err := c.send(ctx, http.MethodPut, "/apis/"+url.PathEscape(a.ID), a, header)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.parseError(resp)
	}
	updated, err := decodeAPI(resp)
	if err != nil {
		return nil, "", err
	}
	c.log.Debug("api updated", "id", a.ID, "etag", updated.ETag)
	return updated, updated.ETag, nil
}

// ListTenants returns the tenants configured on the platform.
func (c *Client) ListTenants(ctx context.Context) ([]types.Tenant, error) {
	resp, err := c.send(ctx, http.MethodGet, "/configuration/tenants", nil, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var tenants []types.Tenant
	if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
		return nil, fmt.Errorf("failed to decode tenants: %w", err)
	}
	return tenants, nil
}

func decodeAPI(resp *http.Response) (*api.API, error) {
	var a api.API
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode api: %w", err)
	}
	a.ETag = resp.Header.Get("ETag")
	return &a, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("management request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			ErrorCode: CodeConnection,
			Message:   fmt.Sprintf("cannot connect to management API at %s: %v", c.baseURL, err),
			Err:       err,
		}
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp types.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  CodeUnknown,
		Message:    msg,
	}
}
