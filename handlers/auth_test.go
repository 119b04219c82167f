// ABOUTME: Tests for the auth route handlers
// ABOUTME: Verifies cookies, error mapping, backend isolation on bad input, and audit entries

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLogin_SetsSessionCookies(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeBackendJSON(w, http.StatusOK, `{"access_token":"T1","refresh_token":"R1","token_type":"bearer","user":{"id":"u1","email":"a@b.com"}}`)
	})
	h, audit := newTestHandler(t, backend.URL)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"Secret123"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	access := findCookie(rr, "token")
	if access == nil || access.Value != "T1" || !access.HttpOnly || access.MaxAge != 1800 || access.SameSite != http.SameSiteLaxMode || access.Path != "/" {
		t.Errorf("Unexpected access cookie %+v", access)
	}
	refresh := findCookie(rr, "refresh_token")
	if refresh == nil || refresh.Value != "R1" || !refresh.HttpOnly || refresh.MaxAge != 604800 || refresh.SameSite != http.SameSiteStrictMode {
		t.Errorf("Unexpected refresh cookie %+v", refresh)
	}
	if access != nil && access.Secure {
		t.Error("Cookies must not be Secure outside production")
	}

	var body struct {
		Success bool            `json:"success"`
		User    json.RawMessage `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if !body.Success || string(body.User) != `{"id":"u1","email":"a@b.com"}` {
		t.Errorf("Unexpected body success=%v user=%s", body.Success, body.User)
	}
	if strings.Contains(rr.Body.String(), "T1") || strings.Contains(rr.Body.String(), "R1") {
		t.Error("Tokens must never appear in the response body")
	}

	calls := backend.callsTo("/api/auth/login")
	if len(calls) != 1 || string(calls[0].Body) != `{"email":"a@b.com","password":"Secret123"}` {
		t.Errorf("Unexpected backend calls %+v", calls)
	}

	entries := auditEntries(t, audit)
	if len(entries) != 2 || entries[0]["status"] != "initiated" || entries[1]["status"] != "success" {
		t.Fatalf("Unexpected audit trail %v", entries)
	}
	if entries[1]["event"] != "login_attempt" || entries[1]["email"] != "a@b.com" || entries[1]["service"] != "frontend-auth" {
		t.Errorf("Unexpected success entry %v", entries[1])
	}
	if strings.Contains(audit.String(), "Secret123") || strings.Contains(audit.String(), "T1") {
		t.Error("Audit log must never contain passwords or tokens")
	}
}

func TestLogin_SecureCookiesInProduction(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeBackendJSON(w, http.StatusOK, `{"access_token":"T1","refresh_token":"R1","user":{}}`)
	})
	h, _ := newTestHandler(t, backend.URL)
	h.cfg.AppEnv = "production"
	h = NewHandler(h.cfg, h.backend, h.refresher, h.audit)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`))

	for _, name := range []string{"token", "refresh_token"} {
		if c := findCookie(rr, name); c == nil || !c.Secure {
			t.Errorf("Cookie %s should be Secure in production: %+v", name, c)
		}
	}
}

func TestLogin_BackendFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDetail string
		wantReason string
	}{
		{"unauthorized hides backend detail", 401, `{"detail":"User not found"}`, 401, "Invalid email or password", "invalid_credentials"},
		{"unauthorized without detail", 401, `{}`, 401, "Invalid email or password", "invalid_credentials"},
		{"string detail passes through", 403, `{"detail":"Account disabled"}`, 403, "Account disabled", "invalid_credentials"},
		{"structured detail falls back", 422, `{"detail":[{"msg":"bad"}]}`, 422, "Login failed", "invalid_credentials"},
		{"plain text unauthorized", 401, `Unauthorized`, 401, "Invalid email or password", "invalid_credentials"},
		{"empty unauthorized", 401, ``, 401, "Invalid email or password", "invalid_credentials"},
		{"html error page keeps status", 500, `<html>oops</html>`, 500, "Login failed", "invalid_credentials"},
		{"non-JSON success", 200, `<html>welcome</html>`, 502, "Unexpected response from server", "invalid_backend_response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
				if !json.Valid([]byte(tt.body)) {
					w.Header().Set("Content-Type", "text/plain")
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
					return
				}
				writeBackendJSON(w, tt.status, tt.body)
			})
			h, audit := newTestHandler(t, backend.URL)

			rr := httptest.NewRecorder()
			h.Login(rr, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"whatever"}`))

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := decodeDetail(t, rr); got != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", got, tt.wantDetail)
			}
			if findCookie(rr, "token") != nil {
				t.Error("No cookies may be set on failure")
			}

			terminal := terminalEntries(t, audit)
			if len(terminal) != 1 {
				t.Fatalf("Expected exactly one terminal audit entry, got %v", terminal)
			}
			if terminal[0]["reason"] != tt.wantReason {
				t.Errorf("Reason = %v, want %s", terminal[0]["reason"], tt.wantReason)
			}
			if got, _ := terminal[0]["backendStatus"].(float64); int(got) != tt.status {
				t.Errorf("backendStatus = %v, want %d", terminal[0]["backendStatus"], tt.status)
			}
		})
	}
}

func TestLogin_InputRejectedBeforeBackend(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
		wantReason string
		wantEmail  any
	}{
		{"malformed JSON", `{"email":`, "Invalid JSON in request body", "invalid_json", nil},
		{"missing fields", `{}`, "Email is required; Password is required", "validation_failed", nil},
		{"bad email", `{"email":"nope","password":"x"}`, "Invalid email format", "validation_failed", "nope"},
		{"numeric email", `{"email":5,"password":"x"}`, "Email is required", "validation_failed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
				t.Error("Backend must not be called")
			})
			h, audit := newTestHandler(t, backend.URL)

			rr := httptest.NewRecorder()
			h.Login(rr, jsonRequest(http.MethodPost, "/api/auth/login", tt.body))

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", rr.Code)
			}
			if got := decodeDetail(t, rr); got != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", got, tt.wantDetail)
			}

			entries := auditEntries(t, audit)
			if len(entries) != 1 || entries[0]["reason"] != tt.wantReason {
				t.Fatalf("Unexpected audit trail %v", entries)
			}
			if entries[0]["email"] != tt.wantEmail {
				t.Errorf("Audit email = %v, want %v", entries[0]["email"], tt.wantEmail)
			}
		})
	}
}

func TestLogin_UpstreamUnavailable(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)
		h, audit := newTestHandler(t, backend.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		req := jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.Login(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want 503", rr.Code)
		}
		if got := decodeDetail(t, rr); got != "Request timed out. Please try again." {
			t.Errorf("Detail = %q", got)
		}
		if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "timeout" {
			t.Errorf("Unexpected audit trail %v", terminal)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()
		h, audit := newTestHandler(t, url)

		rr := httptest.NewRecorder()
		h.Login(rr, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want 503", rr.Code)
		}
		if got := decodeDetail(t, rr); got != "Unable to connect to the server. Please try again later." {
			t.Errorf("Detail = %q", got)
		}
		if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "network_error" {
			t.Errorf("Unexpected audit trail %v", terminal)
		}
	})
}

func TestRegister_MalformedPasswordNeverReachesBackend(t *testing.T) {
	passwords := []string{
		"secret123", // no uppercase
		"Secr3t1",   // length 7
		"SECRET123", // no lowercase
		"SecretPwd", // no digit
	}

	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
				writeBackendJSON(w, http.StatusOK, `{"id":"u1","email":"a@b.com","name":null}`)
			})
			h, audit := newTestHandler(t, backend.URL)

			rr := httptest.NewRecorder()
			h.Register(rr, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"`+pw+`"}`))

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", rr.Code)
			}
			if n := backend.callCount(); n != 0 {
				t.Errorf("Expected zero backend calls, got %d", n)
			}
			if strings.Contains(audit.String(), pw) {
				t.Error("Audit log must not contain the password")
			}
		})
	}
}

func TestRegister_ReturnsMinimalProjection(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeBackendJSON(w, http.StatusCreated, `{"id":"u1","email":"ana@b.com","name":"Ana","plan":"free","hashed_password":"x"}`)
	})
	h, audit := newTestHandler(t, backend.URL)

	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"Ana@B.com","password":"Secret123"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(body) != 3 || body["id"] != "u1" || body["email"] != "ana@b.com" || body["name"] != "Ana" {
		t.Errorf("Unexpected projection %v", body)
	}

	calls := backend.callsTo("/api/auth/register")
	if len(calls) != 1 || string(calls[0].Body) != `{"name":"Ana","email":"ana@b.com","password":"Secret123"}` {
		t.Errorf("Unexpected backend payload %+v", calls)
	}
	if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["status"] != "success" || terminal[0]["event"] != "registration_attempt" {
		t.Errorf("Unexpected audit trail %v", terminal)
	}
}

func TestRegister_BackendRejects(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeBackendJSON(w, http.StatusConflict, `{"detail":"Email already registered"}`)
	})
	h, audit := newTestHandler(t, backend.URL)

	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret123"}`))

	if rr.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", rr.Code)
	}
	if got := decodeDetail(t, rr); got != "Email already registered" {
		t.Errorf("Detail = %q", got)
	}
	if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "backend_rejected" {
		t.Errorf("Unexpected audit trail %v", terminal)
	}
}

func TestLogout_WithoutTokenSkipsBackend(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		t.Error("Backend must not be called without a token")
	})
	h, audit := newTestHandler(t, backend.URL)

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
	assertCookiesCleared(t, rr)

	terminal := terminalEntries(t, audit)
	if len(terminal) != 1 || terminal[0]["reason"] != "no_token" || terminal[0]["backendNotified"] != false {
		t.Errorf("Unexpected audit trail %v", terminal)
	}
}

func TestLogout_NotifiesBackend(t *testing.T) {
	backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeBackendJSON(w, http.StatusOK, `{"message":"Successfully logged out"}`)
	})
	h, audit := newTestHandler(t, backend.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "T1"})
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "R1"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
	assertCookiesCleared(t, rr)

	calls := backend.callsTo("/api/auth/logout")
	if len(calls) != 1 || calls[0].Authorization != "Bearer T1" || len(calls[0].Body) != 0 {
		t.Errorf("Unexpected logout calls %+v", calls)
	}

	entries := auditEntries(t, audit)
	if len(entries) != 2 || entries[0]["hasToken"] != true || entries[1]["backendNotified"] != true {
		t.Errorf("Unexpected audit trail %v", entries)
	}
}

func TestLogout_BackendDownStillClearsCookies(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()
	h, audit := newTestHandler(t, url)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "T1"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
	assertCookiesCleared(t, rr)

	terminal := terminalEntries(t, audit)
	if len(terminal) != 1 || terminal[0]["status"] != "partial" || terminal[0]["reason"] != "network_error" {
		t.Errorf("Unexpected audit trail %v", terminal)
	}
}

func TestRefresh(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			t.Error("Backend must not be called")
		})
		h, audit := newTestHandler(t, backend.URL)

		rr := httptest.NewRecorder()
		h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", rr.Code)
		}
		if got := decodeDetail(t, rr); got != "No refresh token" {
			t.Errorf("Detail = %q", got)
		}
		if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "no_refresh_token" {
			t.Errorf("Unexpected audit trail %v", terminal)
		}
	})

	t.Run("success sets new access cookie", func(t *testing.T) {
		backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			writeBackendJSON(w, http.StatusOK, `{"access_token":"T2"}`)
		})
		h, _ := newTestHandler(t, backend.URL)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "R1"})
		rr := httptest.NewRecorder()
		h.Refresh(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", rr.Code)
		}
		if c := findCookie(rr, "token"); c == nil || c.Value != "T2" || !c.HttpOnly {
			t.Errorf("Unexpected token cookie %+v", c)
		}
		calls := backend.callsTo("/api/auth/refresh")
		if len(calls) != 1 || string(calls[0].Body) != `{"refresh_token":"R1"}` || calls[0].Authorization != "" {
			t.Errorf("Unexpected refresh calls %+v", calls)
		}
	})

	t.Run("rejected clears both cookies", func(t *testing.T) {
		backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			writeBackendJSON(w, http.StatusUnauthorized, `{"detail":"Invalid refresh token"}`)
		})
		h, audit := newTestHandler(t, backend.URL)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "R1"})
		rr := httptest.NewRecorder()
		h.Refresh(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", rr.Code)
		}
		if got := decodeDetail(t, rr); got != "Invalid refresh token" {
			t.Errorf("Detail = %q", got)
		}
		assertCookiesCleared(t, rr)
		if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "backend_rejected" {
			t.Errorf("Unexpected audit trail %v", terminal)
		}
	})
}

func TestRefresh_RejectedWithoutJSONBodyClearsCookies(t *testing.T) {
	for _, body := range []string{"Unauthorized", ""} {
		t.Run("body "+strconv.Quote(body), func(t *testing.T) {
			backend := newMockBackend(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(body))
			})
			h, audit := newTestHandler(t, backend.URL)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
			req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "R1"})
			rr := httptest.NewRecorder()
			h.Refresh(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Status = %d, want 401", rr.Code)
			}
			if got := decodeDetail(t, rr); got != "Token refresh failed" {
				t.Errorf("Detail = %q", got)
			}
			assertCookiesCleared(t, rr)
			if terminal := terminalEntries(t, audit); len(terminal) != 1 || terminal[0]["reason"] != "backend_rejected" {
				t.Errorf("Unexpected audit trail %v", terminal)
			}
		})
	}
}

func assertCookiesCleared(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	for _, name := range []string{"token", "refresh_token"} {
		c := findCookie(rr, name)
		if c == nil {
			t.Errorf("Expected deletion cookie for %s", name)
			continue
		}
		if c.Value != "" || c.MaxAge >= 0 {
			t.Errorf("Cookie %s not deleted: %+v", name, c)
		}
	}
}
