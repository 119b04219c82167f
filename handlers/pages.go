// ABOUTME: Server-rendered UI pages for dashboard, projects and voice personas
// ABOUTME: Fetches backend data with the cookie-held token; an expired session goes back to /login

package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vocalswap/vocalswap-web/middleware"
	"github.com/vocalswap/vocalswap-web/models"
	"github.com/vocalswap/vocalswap-web/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultPageSize   = 20
	dashboardPageSize = 5
)

var pageNames = []string{
	"home", "login", "register", "dashboard",
	"projects", "project", "voices", "voice", "error",
}

// errSessionExpired means the backend still refused the session after one refresh.
var errSessionExpired = errors.New("session expired")

// pageError is a non-2xx backend answer surfaced on an error page.
type pageError struct {
	status int
	detail string
}

func (e *pageError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.status, e.detail)
}

type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"date":     formatDate,
		"duration": formatDuration,
		"text":     deref,
	}
	p := &pageRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p.pages[name] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return p
}

// pageData is what every template receives.
type pageData struct {
	Title    string
	SignedIn bool
	Data     any
}

func (p *pageRenderer) render(w http.ResponseWriter, status int, name string, data pageData) {
	tmpl, ok := p.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("Failed to render page", "page", name, "error", err)
	}
}

// listView is a page of resources with pagination links.
type listView[T any] struct {
	Result models.Page[T]
	Prev   int
	Next   int
}

func newListView[T any](p models.Page[T]) listView[T] {
	v := listView[T]{Result: p}
	if p.Page > 1 {
		v.Prev = p.Page - 1
	}
	if p.Page < p.Pages {
		v.Next = p.Page + 1
	}
	return v
}

type dashboardView struct {
	User     models.User
	Projects models.Page[models.Project]
	Voices   models.Page[models.VoicePersona]
}

type errorView struct {
	Status int
	Detail string
}

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, http.StatusOK, "home", pageData{Title: "VocalSwap", SignedIn: h.tokens.AccessToken(r) != ""})
}

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if !isLocalPath(redirect) {
		redirect = "/dashboard"
	}
	h.pages.render(w, http.StatusOK, "login", pageData{Title: "Sign in", Data: redirect})
}

// RegisterPage renders the sign-up form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, http.StatusOK, "register", pageData{Title: "Create account"})
}

// Dashboard renders the signed-in overview.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)

	user, err := fetch[models.User](s, "users/me")
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	projects, err := fetch[models.Page[models.Project]](s, pagePath("projects", 1, dashboardPageSize))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	voices, err := fetch[models.Page[models.VoicePersona]](s, pagePath("voices", 1, dashboardPageSize))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}

	h.pages.render(w, http.StatusOK, "dashboard", pageData{
		Title:    "Dashboard",
		SignedIn: true,
		Data:     dashboardView{User: user, Projects: projects, Voices: voices},
	})
}

// Projects renders one page of the user's projects.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	page, err := fetch[models.Page[models.Project]](h.pageSession(w, r), pagePath("projects", pageNumber(r), defaultPageSize))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	h.pages.render(w, http.StatusOK, "projects", pageData{Title: "Projects", SignedIn: true, Data: newListView(page)})
}

// Project renders one project.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	project, err := fetch[models.Project](h.pageSession(w, r), "projects/"+url.PathEscape(r.PathValue("id")))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	h.pages.render(w, http.StatusOK, "project", pageData{Title: project.Name, SignedIn: true, Data: project})
}

// Voices renders one page of the user's voice personas.
func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	page, err := fetch[models.Page[models.VoicePersona]](h.pageSession(w, r), pagePath("voices", pageNumber(r), defaultPageSize))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	h.pages.render(w, http.StatusOK, "voices", pageData{Title: "Voices", SignedIn: true, Data: newListView(page)})
}

// Voice renders one voice persona.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	voice, err := fetch[models.VoicePersona](h.pageSession(w, r), "voices/"+url.PathEscape(r.PathValue("id")))
	if err != nil {
		h.pageFailed(w, r, err)
		return
	}
	h.pages.render(w, http.StatusOK, "voice", pageData{Title: voice.Name, SignedIn: true, Data: voice})
}

// pageSession carries the access token across the backend reads of one page
// render, so a refresh happens at most once per request.
type pageSession struct {
	h         *Handler
	w         http.ResponseWriter
	r         *http.Request
	token     string
	refreshed bool
}

func (h *Handler) pageSession(w http.ResponseWriter, r *http.Request) *pageSession {
	return &pageSession{h: h, w: w, r: r, token: h.tokens.AccessToken(r)}
}

func (s *pageSession) refresh() bool {
	if s.refreshed {
		return false
	}
	s.refreshed = true

	refreshToken := s.h.tokens.RefreshToken(s.r)
	if refreshToken == "" {
		return false
	}
	out := s.h.coordinatedRefresh(s.r.Context(), refreshToken)
	if !out.OK() {
		return false
	}
	s.token = out.AccessToken
	http.SetCookie(s.w, s.h.tokens.AccessCookie(out.AccessToken))
	return true
}

// fetch reads a backend resource for a page, refreshing the session once on 401.
func fetch[T any](s *pageSession, path string) (T, error) {
	var zero T
	res, err := services.Get[T](s.r.Context(), s.h.backend, path, s.token)
	if err != nil {
		return zero, err
	}
	if res.Status == http.StatusUnauthorized {
		if !s.refresh() {
			return zero, errSessionExpired
		}
		if res, err = services.Get[T](s.r.Context(), s.h.backend, path, s.token); err != nil {
			return zero, err
		}
		if res.Status == http.StatusUnauthorized {
			return zero, errSessionExpired
		}
	}
	if !res.OK() {
		return zero, &pageError{status: res.Status, detail: res.Failure.DetailOr(http.StatusText(res.Status))}
	}
	return res.Value, nil
}

// pageFailed renders the outcome of a failed page load. An expired session
// drops both cookies before redirecting, otherwise the guard would bounce
// /login straight back to /dashboard.
func (h *Handler) pageFailed(w http.ResponseWriter, r *http.Request, err error) {
	var pe *pageError
	switch {
	case errors.Is(err, errSessionExpired):
		for _, c := range h.tokens.ClearCookies() {
			http.SetCookie(w, c)
		}
		http.Redirect(w, r, middleware.LoginRedirect(r.URL.Path), http.StatusTemporaryRedirect)
		return
	case errors.As(err, &pe):
		h.pages.render(w, pe.status, "error", pageData{
			Title:    "Error",
			SignedIn: true,
			Data:     errorView{Status: pe.status, Detail: pe.detail},
		})
		return
	}

	slog.Error("Page load failed", "path", r.URL.Path, "reason", services.ReasonCode(err), "error", err)
	detail := detailBackendUnavailable
	if errors.Is(err, services.ErrUpstreamTimeout) {
		detail = detailTimeout
	}
	h.pages.render(w, http.StatusServiceUnavailable, "error", pageData{
		Title:    "Error",
		SignedIn: true,
		Data:     errorView{Status: http.StatusServiceUnavailable, Detail: detail},
	})
}

func pagePath(resource string, page, pageSize int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	return resource + "?" + q.Encode()
}

func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// isLocalPath accepts only same-site absolute paths as post-login targets.
func isLocalPath(p string) bool {
	return len(p) > 0 && p[0] == '/' && (len(p) == 1 || (p[1] != '/' && p[1] != '\\'))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func formatDuration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	total := int(*seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
