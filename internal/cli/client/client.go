package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FallbackMessage is shown when the server gave no usable message
const FallbackMessage = "Something went wrong. Please try again."

// TokenSource supplies the bearer token for each request. An empty token sends
// no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// StaticToken always returns the same token
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// DisplayMessage flattens any client error into the string shown to the user
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// Envelope is the body of every /api response
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

// Pagination describes one page of a list response
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListQuery carries paging and resource filters for list endpoints
type ListQuery struct {
	Page    int
	Limit   int
	Filters map[string]string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for key, value := range q.Filters {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}

// Client represents an HTTP client for the Wanderlust API. It holds no
// credentials of its own; the token is read from the TokenSource per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a new API client. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// WithToken returns a copy of the client that always sends token
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.tokens = StaticToken(token)
	return &clone
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       *string // overrides the TokenSource when set
}

func jsonRequest(method, path string, payload interface{}) (*request, error) {
	req := &request{method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs the request and decodes the envelope. Non-2xx responses become
// *APIError carrying the envelope message.
func (c *Client) send(ctx context.Context, r *request, out interface{}) (*Envelope, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	token := c.tokens.Token()
	if r.token != nil {
		token = *r.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = FallbackMessage
		}
		return nil, &APIError{Status: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) (*Envelope, error) {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req, out)
}

func list[T any](ctx context.Context, c *Client, path string, q ListQuery) ([]T, *Pagination, error) {
	items := []T{}
	env, err := c.send(ctx, &request{method: http.MethodGet, path: path, query: q.values()}, &items)
	if err != nil {
		return nil, nil, err
	}
	pagination := env.Pagination
	if pagination == nil {
		pagination = &Pagination{Page: 1, Limit: len(items), Total: int64(len(items)), Pages: 1}
	}
	return items, pagination, nil
}

// HealthStatus is the /health payload
type HealthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Health checks that the API is reachable. /health is not enveloped.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: FallbackMessage}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}
