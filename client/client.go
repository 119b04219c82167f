// ABOUTME: Gateway client for Go consumers of the VocalSwap web server
// ABOUTME: Keeps session cookies in a jar, refreshes once on 401 and retries the call

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/vocalswap/vocalswap-web/services"
)

const (
	defaultTimeout = 30 * time.Second
	refreshTimeout = 10 * time.Second

	// One refresh flight per client process.
	sessionRefreshKey = "session"

	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	logoutPath   = "/api/auth/logout"
	refreshPath  = "/api/auth/refresh"
	proxyPrefix  = "/api/proxy/"
)

// APIError is a non-2xx answer from the web server.
type APIError struct {
	Status    int
	Detail    string
	ErrorCode string
}

func (e *APIError) Error() string {
	return e.Detail
}

// ErrSessionExpired is returned when a 401 survives one refresh attempt.
// The caller should log in again.
var ErrSessionExpired = &APIError{
	Status:    http.StatusUnauthorized,
	Detail:    "Session expired. Please log in again.",
	ErrorCode: "SESSION_EXPIRED",
}

// Client talks to the web server's auth routes and backend proxy. Session
// cookies stay inside the client's jar and are never exposed to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	refresher  *services.RefreshCoordinator

	Auth     *AuthService
	Users    *UsersService
	Projects *ProjectsService
	Voices   *VoicesService
	Health   *HealthService
}

// New creates a client for the web server at baseURL.
func New(baseURL string) *Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails with a non-nil options value.
		panic(err)
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: defaultTimeout, Jar: jar})
}

// NewWithHTTPClient creates a client using httpClient, which should carry a
// cookie jar for the session to survive between calls.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		refresher:  services.NewRefreshCoordinator(),
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UsersService{c: c}
	c.Projects = &ProjectsService{c: c}
	c.Voices = &VoicesService{c: c}
	c.Health = &HealthService{c: c}
	return c
}

// BaseURL returns the web server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// requestBody is a fully buffered body, so a retry can replay it.
type requestBody struct {
	contentType string
	data        []byte
}

func jsonBody(v any) (*requestBody, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return &requestBody{contentType: "application/json", data: data}, nil
}

func fileBody(field, filename string, r io.Reader) (*requestBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}
	return &requestBody{contentType: mw.FormDataContentType(), data: buf.Bytes()}, nil
}

// response is a buffered answer.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) send(ctx context.Context, method, path string, body *requestBody) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled")
		}
		var urlErr *url.Error
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return nil, fmt.Errorf("request timed out")
		}
		return nil, fmt.Errorf("cannot connect to server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: data}, nil
}

// do sends the request and, when retry is set, recovers from one 401 by
// refreshing the session and replaying the request.
func (c *Client) do(ctx context.Context, method, path string, body *requestBody, retry bool) (*response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil || resp.status != http.StatusUnauthorized || !retry {
		return resp, err
	}

	if out := c.refreshSession(ctx); !out.OK() {
		return nil, ErrSessionExpired
	}

	resp, err = c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized {
		return nil, ErrSessionExpired
	}
	return resp, nil
}

// refreshSession joins or starts the process-wide refresh flight.
func (c *Client) refreshSession(ctx context.Context) services.RefreshResult {
	return c.refresher.AcquireOrJoin(ctx, sessionRefreshKey, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()

		resp, err := c.send(ctx, http.MethodPost, refreshPath, nil)
		if err != nil {
			return "", err
		}
		if !resp.ok() {
			return "", newAPIError(resp, "")
		}
		return c.sessionToken(), nil
	})
}

// sessionToken returns the access token cookie held by the jar, or "".
func (c *Client) sessionToken() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == services.AccessTokenCookie {
			return cookie.Value
		}
	}
	return ""
}

// request performs a call through the backend proxy and decodes the answer.
func request[T any](ctx context.Context, c *Client, method, endpoint string, body *requestBody) (*T, error) {
	resp, err := c.do(ctx, method, proxyPath(endpoint), body, true)
	if err != nil {
		return nil, err
	}
	v, err := decode[T](resp, "")
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decode maps a buffered answer to T. Non-JSON successes decode to the zero
// value; failures become *APIError using fallback when no detail is present.
func decode[T any](resp *response, fallback string) (T, error) {
	var v T
	if !resp.ok() {
		return v, newAPIError(resp, fallback)
	}
	if !strings.Contains(resp.contentType, "application/json") || len(resp.body) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(resp.body, &v); err != nil {
		return v, fmt.Errorf("invalid response from server: %w", err)
	}
	return v, nil
}

func newAPIError(resp *response, fallback string) *APIError {
	e := &APIError{Status: resp.status, Detail: fallback}
	if e.Detail == "" {
		e.Detail = fmt.Sprintf("API error: %d", resp.status)
	}

	var envelope struct {
		Detail    json.RawMessage `json:"detail"`
		ErrorCode string          `json:"error_code"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return e
	}
	e.ErrorCode = envelope.ErrorCode

	var detail string
	switch {
	case len(envelope.Detail) == 0 || string(envelope.Detail) == "null":
	case json.Unmarshal(envelope.Detail, &detail) == nil:
		if detail != "" {
			e.Detail = detail
		}
	default:
		var compact bytes.Buffer
		if json.Compact(&compact, envelope.Detail) == nil {
			e.Detail = compact.String()
		}
	}
	return e
}

// proxyPath maps a backend endpoint ("/api/projects" or "projects") onto the
// web server's proxy route.
func proxyPath(endpoint string) string {
	path := strings.TrimPrefix(endpoint, "/api/")
	path = strings.TrimPrefix(path, "/")
	return proxyPrefix + path
}
