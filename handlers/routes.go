// ABOUTME: Declarative route table and router assembly
// ABOUTME: Maps auth, proxy, health and page routes to handlers with their middleware

package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocalswap/vocalswap-web/middleware"
)

// Route classes decide which middleware a route receives.
const (
	ClassAuth    = "auth"    // login/register: strict per-IP limit
	ClassRefresh = "refresh" // refresh: per-session limit
	ClassAPI     = "api"     // other browser API calls: default limit
	ClassPage    = "page"    // server-rendered pages: route guard
	ClassOps     = "ops"     // health and metrics: no limits
)

// Route defines an endpoint with its HTTP method, handler and class.
type Route struct {
	Method  string           // HTTP method (GET also serves HEAD)
	Path    string           // ServeMux pattern path (e.g., "/api/auth/login")
	Handler http.HandlerFunc // Handler function
	Class   string
}

// Routes returns all routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Auth
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.Login, Class: ClassAuth},
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: h.Register, Class: ClassAuth},
		{Method: http.MethodPost, Path: "/api/auth/refresh", Handler: h.Refresh, Class: ClassRefresh},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout, Class: ClassAPI},

		// Proxy
		{Method: http.MethodGet, Path: "/api/proxy/{path...}", Handler: h.Proxy, Class: ClassAPI},
		{Method: http.MethodPost, Path: "/api/proxy/{path...}", Handler: h.Proxy, Class: ClassAPI},
		{Method: http.MethodPut, Path: "/api/proxy/{path...}", Handler: h.Proxy, Class: ClassAPI},
		{Method: http.MethodPatch, Path: "/api/proxy/{path...}", Handler: h.Proxy, Class: ClassAPI},
		{Method: http.MethodDelete, Path: "/api/proxy/{path...}", Handler: h.Proxy, Class: ClassAPI},

		// Health & Metrics
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health, Class: ClassOps},
		{Method: http.MethodGet, Path: "/healthz", Handler: h.Liveness, Class: ClassOps},
		{Method: http.MethodGet, Path: "/metrics", Handler: promhttp.Handler().ServeHTTP, Class: ClassOps},

		// Pages
		{Method: http.MethodGet, Path: "/{$}", Handler: h.Home, Class: ClassPage},
		{Method: http.MethodGet, Path: "/login", Handler: h.LoginPage, Class: ClassPage},
		{Method: http.MethodGet, Path: "/register", Handler: h.RegisterPage, Class: ClassPage},
		{Method: http.MethodGet, Path: "/dashboard", Handler: h.Dashboard, Class: ClassPage},
		{Method: http.MethodGet, Path: "/projects", Handler: h.Projects, Class: ClassPage},
		{Method: http.MethodGet, Path: "/projects/{id}", Handler: h.Project, Class: ClassPage},
		{Method: http.MethodGet, Path: "/voices", Handler: h.Voices, Class: ClassPage},
		{Method: http.MethodGet, Path: "/voices/{id}", Handler: h.Voice, Class: ClassPage},
	}
}

// RateLimits holds one limiter per rate-limited route class.
// A nil limiter disables limiting for its class.
type RateLimits struct {
	Auth    *middleware.RateLimiter
	Refresh *middleware.RateLimiter
	Default *middleware.RateLimiter
}

// NewRouter registers every route on a fresh ServeMux with its middleware.
// All routes are logged; API routes reject cross-site writes.
func NewRouter(h *Handler, limits RateLimits) *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		var mws []func(http.HandlerFunc) http.HandlerFunc
		mws = append(mws, middleware.LogRequest)

		switch route.Class {
		case ClassAuth:
			mws = append(mws, middleware.SameOrigin(), middleware.RateLimit(limits.Auth, middleware.ByClientIP))
		case ClassRefresh:
			mws = append(mws, middleware.SameOrigin(), middleware.RateLimit(limits.Refresh, middleware.BySession))
		case ClassAPI:
			mws = append(mws, middleware.SameOrigin(), middleware.RateLimit(limits.Default, middleware.ByClientIP))
		case ClassPage:
			mws = append(mws, middleware.Guard)
		}

		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler, mws...))
	}
	return mux
}
