// ABOUTME: Route guard for server-rendered pages
// ABOUTME: Redirects on presence or absence of the access token cookie; never validates it

package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/vocalswap/vocalswap-web/services"
)

// Pages that require a session.
var protectedRoutes = []string{"/dashboard", "/projects", "/voices"}

// Pages a signed-in user is bounced away from.
var authRoutes = []string{"/login", "/register"}

// Paths the guard never inspects.
var unguardedPrefixes = []string{"/api", "/static/", "/favicon.ico", "/robots.txt", "/sitemap.xml", "/metrics", "/healthz"}

// Guard redirects (307) requests for protected pages without a token cookie to
// /login?redirect=<path>, and signed-in requests for /login or /register to
// /dashboard. An expired cookie still counts as present; the backend decides.
func Guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		for _, p := range unguardedPrefixes {
			if strings.HasPrefix(path, p) {
				next(w, r)
				return
			}
		}

		hasToken := false
		if c, err := r.Cookie(services.AccessTokenCookie); err == nil && c.Value != "" {
			hasToken = true
		}

		if !hasToken && isProtected(path) {
			http.Redirect(w, r, LoginRedirect(path), http.StatusTemporaryRedirect)
			return
		}

		if hasToken && isAuthRoute(path) {
			http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
			return
		}

		next(w, r)
	}
}

// LoginRedirect returns the login URL that brings the user back to path.
func LoginRedirect(path string) string {
	return "/login?" + url.Values{"redirect": {path}}.Encode()
}

func isProtected(path string) bool {
	for _, route := range protectedRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

func isAuthRoute(path string) bool {
	for _, route := range authRoutes {
		if path == route {
			return true
		}
	}
	return false
}
