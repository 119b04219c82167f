// ABOUTME: Token store for the BFF session: access and refresh token cookies
// ABOUTME: Builds cookie values only; callers decide when to write them

package services

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names shared with the backend and every other front-end.
const (
	AccessTokenCookie  = "token"
	RefreshTokenCookie = "refresh_token"
)

// Default lifetimes, matching the backend's token settings.
const (
	AccessTokenMaxAge  = 30 * 60          // 30 minutes
	RefreshTokenMaxAge = 7 * 24 * 60 * 60 // 7 days
)

// TokenStore reads and builds the session cookies.
type TokenStore struct {
	secure bool
	now    func() time.Time
}

// NewTokenStore creates a store. secure sets the Secure attribute and
// should be true only when served over production transport.
func NewTokenStore(secure bool) *TokenStore {
	return &TokenStore{secure: secure, now: time.Now}
}

// AccessToken returns the access token from the request, or "" when absent.
func (s *TokenStore) AccessToken(r *http.Request) string {
	return cookieValue(r, AccessTokenCookie)
}

// RefreshToken returns the refresh token from the request, or "" when absent.
func (s *TokenStore) RefreshToken(r *http.Request) string {
	return cookieValue(r, RefreshTokenCookie)
}

// AccessCookie builds the HttpOnly access token cookie. MaxAge follows the
// token's own exp claim when it is a readable JWT expiring in the future.
func (s *TokenStore) AccessCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   s.accessMaxAge(token),
	}
}

// RefreshCookie builds the HttpOnly refresh token cookie.
func (s *TokenStore) RefreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    token,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   RefreshTokenMaxAge,
	}
}

// ClearCookies returns deletion cookies for both tokens.
func (s *TokenStore) ClearCookies() []*http.Cookie {
	access := s.AccessCookie("")
	access.MaxAge = -1
	refresh := s.RefreshCookie("")
	refresh.MaxAge = -1
	return []*http.Cookie{access, refresh}
}

// accessMaxAge reads exp without verifying the signature; the backend
// verifies the token on every call, the cookie only needs its lifetime.
func (s *TokenStore) accessMaxAge(token string) int {
	if token == "" {
		return AccessTokenMaxAge
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return AccessTokenMaxAge
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return AccessTokenMaxAge
	}

	remaining := int(exp.Time.Sub(s.now()).Seconds())
	if remaining <= 0 {
		return AccessTokenMaxAge
	}
	return remaining
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
