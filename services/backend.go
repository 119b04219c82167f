// ABOUTME: Backend API gateway used by the server-side route handlers
// ABOUTME: Typed auth calls with per-call timeouts plus raw request forwarding for the proxy

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vocalswap/vocalswap-web/models"
)

// Per-call deadlines. Each call releases its timer on every exit path.
const (
	LoginTimeout          = 10 * time.Second
	RegisterTimeout       = 10 * time.Second
	RefreshTimeout        = 10 * time.Second
	LogoutTimeout         = 5 * time.Second
	HealthTimeout         = 5 * time.Second
	ReadTimeout           = 10 * time.Second
	DefaultForwardTimeout = 60 * time.Second
)

// maxJSONResponseBytes bounds typed responses.
const maxJSONResponseBytes = 4 << 20

// DefaultMaxForwardBytes bounds forwarded request and response bodies.
const DefaultMaxForwardBytes int64 = 100 << 20

// BackendClient talks to the backend API on behalf of the browser.
type BackendClient struct {
	baseURL        string
	httpClient     *http.Client
	forwardTimeout time.Duration
	maxForward     int64
}

// NewBackendClient creates a client for baseURL. If httpClient is nil a client
// without a global timeout is used; deadlines are applied per call.
func NewBackendClient(baseURL string, httpClient *http.Client) *BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &BackendClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     httpClient,
		forwardTimeout: DefaultForwardTimeout,
		maxForward:     DefaultMaxForwardBytes,
	}
}

// SetForwardTimeout overrides the deadline for proxied requests.
func (c *BackendClient) SetForwardTimeout(d time.Duration) {
	if d > 0 {
		c.forwardTimeout = d
	}
}

// SetMaxForwardBytes overrides the size limit for forwarded response bodies.
func (c *BackendClient) SetMaxForwardBytes(n int64) {
	if n > 0 {
		c.maxForward = n
	}
}

// MaxForwardBytes returns the size limit for forwarded bodies.
func (c *BackendClient) MaxForwardBytes() int64 {
	return c.maxForward
}

// BaseURL returns the backend base URL.
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token pair.
func (c *BackendClient) Login(ctx context.Context, creds models.Credentials) (*models.BackendResult[models.LoginTokens], error) {
	return call[models.LoginTokens](ctx, c, LoginTimeout, http.MethodPost, "/api/auth/login", "", creds)
}

// Refresh exchanges a refresh token for a new access token. This is the only
// call that ever sends a refresh token.
func (c *BackendClient) Refresh(ctx context.Context, refreshToken string) (*models.BackendResult[models.RefreshedToken], error) {
	return call[models.RefreshedToken](ctx, c, RefreshTimeout, http.MethodPost, "/api/auth/refresh", "",
		models.RefreshRequest{RefreshToken: refreshToken})
}

// Register creates an account.
func (c *BackendClient) Register(ctx context.Context, reg models.Registration) (*models.BackendResult[models.RegisteredUser], error) {
	return call[models.RegisteredUser](ctx, c, RegisterTimeout, http.MethodPost, "/api/auth/register", "", reg)
}

// Logout asks the backend to revoke accessToken and returns its status code.
// The response body is ignored.
func (c *BackendClient) Logout(ctx context.Context, accessToken string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, LogoutTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, classifyTransportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxJSONResponseBytes))

	return resp.StatusCode, nil
}

// Health fetches the backend health summary.
func (c *BackendClient) Health(ctx context.Context) (*models.BackendResult[models.HealthResponse], error) {
	return call[models.HealthResponse](ctx, c, HealthTimeout, http.MethodGet, "/api/health", "", nil)
}

// Get fetches a backend resource under /api/ with the caller's access token.
func Get[T any](ctx context.Context, c *BackendClient, path, accessToken string) (*models.BackendResult[T], error) {
	return call[T](ctx, c, ReadTimeout, http.MethodGet, "/api/"+strings.TrimPrefix(path, "/"), accessToken, nil)
}

// ForwardRequest is one attempt of a proxied request.
// Body is read-only; every attempt reads it through its own reader.
type ForwardRequest struct {
	Method      string
	Path        string // escaped path below /api/, without leading slash
	RawQuery    string
	AccessToken string
	ContentType string
	Body        []byte
}

// ForwardResponse is a fully buffered backend answer.
type ForwardResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forward sends one proxied request to the backend.
func (c *BackendClient) Forward(ctx context.Context, fr ForwardRequest) (*ForwardResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.forwardTimeout)
	defer cancel()

	target := c.baseURL + "/api/" + strings.TrimPrefix(fr.Path, "/")
	if fr.RawQuery != "" {
		target += "?" + fr.RawQuery
	}

	var body io.Reader
	if fr.Body != nil {
		body = bytes.NewReader(fr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, fr.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxied request: %w", err)
	}
	if fr.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+fr.AccessToken)
	}
	if fr.ContentType != "" {
		req.Header.Set("Content-Type", fr.ContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxForward+1))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if int64(len(data)) > c.maxForward {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrUpstreamTooLarge, c.maxForward)
	}

	return &ForwardResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// call performs one JSON round trip bounded by timeout.
func call[T any](ctx context.Context, c *BackendClient, timeout time.Duration, method, path, accessToken string, payload any) (*models.BackendResult[T], error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return decodeResult[T](resp.StatusCode, data)
}

// decodeResult turns a backend answer into its tagged result.
// Only successes must be JSON; a refusal with a text or empty body is still
// a refusal and keeps its status, just without a detail.
func decodeResult[T any](status int, data []byte) (*models.BackendResult[T], error) {
	result := &models.BackendResult[T]{Status: status}
	if status >= 200 && status < 300 {
		if !json.Valid(data) {
			return nil, &MalformedResponseError{Status: status}
		}
		if err := json.Unmarshal(data, &result.Value); err != nil {
			return nil, &MalformedResponseError{Status: status}
		}
		return result, nil
	}

	result.Failure = decodeFailure(status, data)
	return result, nil
}

func decodeFailure(status int, data []byte) *models.BackendFailure {
	f := &models.BackendFailure{Status: status}
	if !json.Valid(data) {
		return f
	}
	f.Raw = json.RawMessage(data)

	var envelope struct {
		Detail    json.RawMessage `json:"detail"`
		ErrorCode json.RawMessage `json:"error_code"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return f
	}

	var detail *string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != nil && *detail != "" {
		f.Detail = *detail
		f.HasDetail = true
	}
	var code *string
	if err := json.Unmarshal(envelope.ErrorCode, &code); err == nil && code != nil {
		f.ErrorCode = *code
	}
	return f
}
