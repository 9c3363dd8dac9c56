// ABOUTME: HTTP client for the remote Metamarc API
// ABOUTME: Raw pass-through calls for the proxy plus typed helpers for pages

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
)

// GenericErrorMessage is returned to callers when the upstream error
// body carries no usable message of its own.
const GenericErrorMessage = "Erro interno do servidor"

// Recorder receives upstream call metrics. May be nil.
type Recorder interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(d time.Duration)
	RecordUpstreamTransportError()
}

// APIError is a non-2xx upstream response, normalized to the message
// the upstream put in its error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Response is a raw upstream response. The proxy mirrors it to the
// browser without interpreting the body.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the remote API. It holds no session state: every
// call that needs authentication takes the bearer token explicitly.
type Client struct {
	baseURL string
	httpc   *http.Client
	metrics Recorder
	logger  *slog.Logger
}

// NewClient creates a client for the API at baseURL. The timeout bounds
// every call; there is no retry.
func NewClient(baseURL string, timeout time.Duration, metrics Recorder) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  slog.Default().With("component", "upstream"),
	}
}

// Do performs one upstream call and returns whatever the upstream
// answered, success or not. A non-nil error means the call itself
// failed (encoding, transport, reading the body) and no upstream
// response exists.
func (c *Client) Do(ctx context.Context, method, path, bearer string, body any) (*Response, error) {
	var payload io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordUpstreamTransportError()
		}
		c.logger.Error("upstream call failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("calling upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(resp.StatusCode)
		c.metrics.RecordUpstreamLatency(time.Since(start))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// ErrorMessage extracts the "message" field from an upstream error
// body. Unparsable or empty bodies fall back to the generic message so
// the browser never sees raw upstream internals.
func ErrorMessage(body json.RawMessage) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		return GenericErrorMessage
	}
	return envelope.Message
}

// apiError converts a non-2xx raw response into an APIError.
func apiError(resp *Response) *APIError {
	return &APIError{StatusCode: resp.StatusCode, Message: ErrorMessage(resp.Body)}
}

// LoginResult is a successful login answer: the bearer token and the
// user record it was issued for.
type LoginResult struct {
	Token string            `json:"token"`
	User  session.Principal `json:"user"`
}

// Login exchanges credentials for a bearer token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var result LoginResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &result, nil
}

// RegisterResult is a successful registration answer.
type RegisterResult struct {
	Message string            `json:"message"`
	User    session.Principal `json:"user"`
}

// Register creates an account upstream. It issues no session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/register", "", body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var result RegisterResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decoding register response: %w", err)
	}
	return &result, nil
}

// RenewAPIKey rotates the API key for the session behind bearer.
func (c *Client) RenewAPIKey(ctx context.Context, bearer string) (string, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/user/renew-api-key", bearer, nil)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", apiError(resp)
	}

	var result struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("decoding renew response: %w", err)
	}
	return result.APIKey, nil
}

// Stats is the aggregate account view shown on the dashboard.
type Stats struct {
	TotalUsers  int `json:"totalUsers"`
	ActiveUsers int `json:"activeUsers"`
	AdminUsers  int `json:"adminUsers"`
}

// FetchStats loads dashboard statistics for the session behind bearer.
func (c *Client) FetchStats(ctx context.Context, bearer string) (*Stats, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/admin/stats", bearer, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var stats Stats
	if err := json.Unmarshal(resp.Body, &stats); err != nil {
		return nil, fmt.Errorf("decoding stats response: %w", err)
	}
	return &stats, nil
}

// ListUsers loads the user directory. Upstream enforces that the
// bearer belongs to an administrator.
func (c *Client) ListUsers(ctx context.Context, bearer string) ([]session.Principal, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/admin/users", bearer, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var users []session.Principal
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, fmt.Errorf("decoding users response: %w", err)
	}
	return users, nil
}

// Chat sends a support-chat message and returns the assistant's
// markdown reply.
func (c *Client) Chat(ctx context.Context, bearer, message string) (string, error) {
	body := map[string]string{"message": message}
	resp, err := c.Do(ctx, http.MethodPost, "/api/chat", bearer, body)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", apiError(resp)
	}

	var result struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	return result.Reply, nil
}
