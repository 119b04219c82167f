// ABOUTME: Resource operations of the gateway client
// ABOUTME: Auth, users, projects, voice personas and health, one method per backend action

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/vocalswap/vocalswap-web/models"
)

// AuthService uses the web server's dedicated auth routes.
type AuthService struct{ c *Client }

// Login signs in and stores the session cookies in the client's jar.
// A 401 here means bad credentials, never an expired session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	body, err := jsonBody(models.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := s.c.do(ctx, http.MethodPost, loginPath, body, false)
	if err != nil {
		return nil, err
	}
	out, err := decode[models.LoginResponse](resp, "Login failed")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It does not sign in.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.RegisteredUser, error) {
	body, err := jsonBody(reg)
	if err != nil {
		return nil, err
	}
	resp, err := s.c.do(ctx, http.MethodPost, registerPath, body, false)
	if err != nil {
		return nil, err
	}
	out, err := decode[models.RegisteredUser](resp, "")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session. The server always clears the cookies, so only
// transport failures are reported.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := s.c.send(ctx, http.MethodPost, logoutPath, nil)
	return err
}

// Refresh renews the access token, sharing any refresh already in flight.
func (s *AuthService) Refresh(ctx context.Context) error {
	out := s.c.refreshSession(ctx)
	if out.OK() {
		return nil
	}
	return out.Err
}

// UsersService reads the signed-in user.
type UsersService struct{ c *Client }

// Me returns the signed-in user.
func (s *UsersService) Me(ctx context.Context) (*models.User, error) {
	return request[models.User](ctx, s.c, http.MethodGet, "/api/users/me", nil)
}

// ProjectsService manages vocal replacement projects.
type ProjectsService struct{ c *Client }

// List returns one page of projects.
func (s *ProjectsService) List(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error) {
	return request[models.Page[models.Project]](ctx, s.c, http.MethodGet, listPath("/api/projects", page, pageSize), nil)
}

// Get returns one project.
func (s *ProjectsService) Get(ctx context.Context, id string) (*models.Project, error) {
	return request[models.Project](ctx, s.c, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil)
}

// Create creates a project.
func (s *ProjectsService) Create(ctx context.Context, in models.ProjectCreate) (*models.Project, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	return request[models.Project](ctx, s.c, http.MethodPost, "/api/projects", body)
}

// Update applies a partial update to a project.
func (s *ProjectsService) Update(ctx context.Context, id string, in models.ProjectUpdate) (*models.Project, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	return request[models.Project](ctx, s.c, http.MethodPatch, "/api/projects/"+url.PathEscape(id), body)
}

// Delete removes a project.
func (s *ProjectsService) Delete(ctx context.Context, id string) (*models.MessageResponse, error) {
	return request[models.MessageResponse](ctx, s.c, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil)
}

// Upload sends the source audio for a project.
func (s *ProjectsService) Upload(ctx context.Context, id, filename string, audio io.Reader) (*models.UploadResponse, error) {
	body, err := fileBody("file", filename, audio)
	if err != nil {
		return nil, err
	}
	return request[models.UploadResponse](ctx, s.c, http.MethodPost, "/api/projects/"+url.PathEscape(id)+"/upload", body)
}

// VoicesService manages voice personas.
type VoicesService struct{ c *Client }

// List returns one page of voice personas.
func (s *VoicesService) List(ctx context.Context, page, pageSize int) (*models.Page[models.VoicePersona], error) {
	return request[models.Page[models.VoicePersona]](ctx, s.c, http.MethodGet, listPath("/api/voices", page, pageSize), nil)
}

// Get returns one voice persona.
func (s *VoicesService) Get(ctx context.Context, id string) (*models.VoicePersona, error) {
	return request[models.VoicePersona](ctx, s.c, http.MethodGet, "/api/voices/"+url.PathEscape(id), nil)
}

// Create creates a voice persona.
func (s *VoicesService) Create(ctx context.Context, in models.VoicePersonaCreate) (*models.VoicePersona, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	return request[models.VoicePersona](ctx, s.c, http.MethodPost, "/api/voices", body)
}

// Delete removes a voice persona.
func (s *VoicesService) Delete(ctx context.Context, id string) (*models.MessageResponse, error) {
	return request[models.MessageResponse](ctx, s.c, http.MethodDelete, "/api/voices/"+url.PathEscape(id), nil)
}

// UploadSample adds a training sample to a voice persona.
func (s *VoicesService) UploadSample(ctx context.Context, id, filename string, audio io.Reader) (*models.UploadResponse, error) {
	body, err := fileBody("file", filename, audio)
	if err != nil {
		return nil, err
	}
	return request[models.UploadResponse](ctx, s.c, http.MethodPost, "/api/voices/"+url.PathEscape(id)+"/samples", body)
}

// HealthService reads backend and web server health.
type HealthService struct{ c *Client }

// Check returns the backend health summary.
func (s *HealthService) Check(ctx context.Context) (*models.HealthResponse, error) {
	return request[models.HealthResponse](ctx, s.c, http.MethodGet, "/api/health", nil)
}

// Detailed returns backend health with dependency latencies.
func (s *HealthService) Detailed(ctx context.Context) (*models.DetailedHealthResponse, error) {
	return request[models.DetailedHealthResponse](ctx, s.c, http.MethodGet, "/api/health/detailed", nil)
}

// Server returns the web server's own health report. A degraded server
// answers 503 with the same body, which is returned without error.
func (s *HealthService) Server(ctx context.Context) (*models.ServiceHealth, error) {
	resp, err := s.c.send(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusServiceUnavailable {
		resp.status = http.StatusOK
	}
	out, err := decode[models.ServiceHealth](resp, "")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func listPath(endpoint string, page, pageSize int) string {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return fmt.Sprintf("%s?page=%d&page_size=%d", endpoint, page, pageSize)
}
