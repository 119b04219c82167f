// ABOUTME: Auth route handlers for the cookie-based BFF session
// ABOUTME: Login, logout, refresh and register with validation, timeouts and audit logging

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vocalswap/vocalswap-web/logger"
	"github.com/vocalswap/vocalswap-web/metrics"
	"github.com/vocalswap/vocalswap-web/models"
	"github.com/vocalswap/vocalswap-web/services"
)

// maxAuthBodyBytes bounds auth request bodies.
const maxAuthBodyBytes = 64 << 10

// Client-visible details.
const (
	detailInvalidJSON    = "Invalid JSON in request body"
	detailTimeout        = "Request timed out. Please try again."
	detailUnreachable    = "Unable to connect to the server. Please try again later."
	detailMalformed      = "Unexpected response from server"
	detailBadCredentials = "Invalid email or password"
	detailLoginFailed    = "Login failed"
	detailNoRefreshToken = "No refresh token"
	detailRefreshFailed  = "Token refresh failed"
	detailRegisterFailed = "Registration failed"
	detailLoginError     = "An unexpected error occurred during login"
	detailRefreshError   = "An unexpected error occurred during token refresh"
	detailRegisterError  = "An unexpected error occurred during registration"
)

// refreshRejectedError is a completed refresh call that the backend refused.
type refreshRejectedError struct {
	failure *models.BackendFailure
}

func (e *refreshRejectedError) Error() string {
	return fmt.Sprintf("refresh rejected by backend (status %d)", e.failure.Status)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r).write(w)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) result {
	t := h.trail(r, "login", "login_attempt", "login_error")

	var req models.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		t.log(logger.AuditEntry{Status: logger.StatusFailed, Reason: "invalid_json"})
		return failure(http.StatusBadRequest, detailInvalidJSON)
	}

	creds, err := services.ValidateLogin(req)
	if err != nil {
		email, _ := req.Email.(string)
		t.log(logger.AuditEntry{Email: email, Status: logger.StatusFailed, Reason: "validation_failed"})
		return failure(http.StatusBadRequest, err.Error())
	}

	t.log(logger.AuditEntry{Email: creds.Email, Status: logger.StatusInitiated})

	res, err := h.backend.Login(r.Context(), creds)
	if err != nil {
		return t.upstream(err, creds.Email, detailLoginError)
	}

	if !res.OK() {
		detail := res.Failure.DetailOr(detailLoginFailed)
		if res.Status == http.StatusUnauthorized {
			detail = detailBadCredentials
		}
		t.log(logger.AuditEntry{
			Email:         creds.Email,
			Status:        logger.StatusFailed,
			Reason:        "invalid_credentials",
			BackendStatus: res.Status,
		})
		return failure(res.Status, detail)
	}

	t.log(logger.AuditEntry{Email: creds.Email, Status: logger.StatusSuccess})

	var cookies []*http.Cookie
	if res.Value.AccessToken != "" {
		cookies = append(cookies, h.tokens.AccessCookie(res.Value.AccessToken))
	}
	if res.Value.RefreshToken != "" {
		cookies = append(cookies, h.tokens.RefreshCookie(res.Value.RefreshToken))
	}
	return result{
		status:  http.StatusOK,
		body:    models.LoginResponse{Success: true, User: res.Value.User},
		cookies: cookies,
	}
}

// Logout handles POST /api/auth/logout. The backend is told on a best-effort
// basis; both cookies are cleared whatever happens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(r).write(w)
}

func (h *Handler) logout(r *http.Request) result {
	t := h.trail(r, "logout", "logout_attempt", "logout_error")
	token := h.tokens.AccessToken(r)

	t.log(logger.AuditEntry{Status: logger.StatusInitiated, HasToken: logger.Bool(token != "")})

	switch {
	case token == "":
		t.log(logger.AuditEntry{
			Status:          logger.StatusSuccess,
			Reason:          "no_token",
			BackendNotified: logger.Bool(false),
		})
	default:
		status, err := h.backend.Logout(r.Context(), token)
		if err != nil {
			t.log(logger.AuditEntry{
				Status:          logger.StatusPartial,
				Reason:          services.ReasonCode(err),
				BackendNotified: logger.Bool(false),
			})
			break
		}
		t.log(logger.AuditEntry{
			Status:          logger.StatusSuccess,
			BackendStatus:   status,
			BackendNotified: logger.Bool(true),
		})
	}

	return result{
		status:  http.StatusOK,
		body:    models.SuccessResponse{Success: true},
		cookies: h.tokens.ClearCookies(),
	}
}

// Refresh handles POST /api/auth/refresh using the refresh_token cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.refresh(r).write(w)
}

func (h *Handler) refresh(r *http.Request) result {
	t := h.trail(r, "refresh", "token_refresh_attempt", "token_refresh_error")

	refreshToken := h.tokens.RefreshToken(r)
	if refreshToken == "" {
		t.log(logger.AuditEntry{Status: logger.StatusFailed, Reason: "no_refresh_token"})
		return failure(http.StatusUnauthorized, detailNoRefreshToken)
	}

	t.log(logger.AuditEntry{Status: logger.StatusInitiated})

	out := h.coordinatedRefresh(r.Context(), refreshToken)
	if out.OK() {
		t.log(logger.AuditEntry{Status: logger.StatusSuccess})
		return result{
			status:  http.StatusOK,
			body:    models.SuccessResponse{Success: true},
			cookies: []*http.Cookie{h.tokens.AccessCookie(out.AccessToken)},
		}
	}

	var rejected *refreshRejectedError
	switch {
	case errors.As(out.Err, &rejected):
		t.log(logger.AuditEntry{
			Status:        logger.StatusFailed,
			Reason:        "backend_rejected",
			BackendStatus: rejected.failure.Status,
		})
		return failure(rejected.failure.Status, rejected.failure.DetailOr(detailRefreshFailed), h.tokens.ClearCookies()...)
	case errors.Is(out.Err, services.ErrRefreshRejected):
		// 2xx without an access token.
		t.log(logger.AuditEntry{Status: logger.StatusFailed, Reason: "invalid_backend_response"})
		return failure(http.StatusBadGateway, detailMalformed)
	default:
		return t.upstream(out.Err, "", detailRefreshError)
	}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r).write(w)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) result {
	t := h.trail(r, "register", "registration_attempt", "registration_error")

	var req models.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		t.log(logger.AuditEntry{Status: logger.StatusFailed, Reason: "invalid_json"})
		return failure(http.StatusBadRequest, detailInvalidJSON)
	}

	reg, err := services.ValidateRegistration(req)
	if err != nil {
		email, _ := req.Email.(string)
		t.log(logger.AuditEntry{Email: email, Status: logger.StatusFailed, Reason: "validation_failed"})
		return failure(http.StatusBadRequest, err.Error())
	}

	t.log(logger.AuditEntry{Email: reg.Email, Status: logger.StatusInitiated})

	res, err := h.backend.Register(r.Context(), reg)
	if err != nil {
		return t.upstream(err, reg.Email, detailRegisterError)
	}

	if !res.OK() {
		t.log(logger.AuditEntry{
			Email:         reg.Email,
			Status:        logger.StatusFailed,
			Reason:        "backend_rejected",
			BackendStatus: res.Status,
		})
		return failure(res.Status, res.Failure.DetailOr(detailRegisterFailed))
	}

	t.log(logger.AuditEntry{Email: reg.Email, Status: logger.StatusSuccess})
	return result{
		status: http.StatusOK,
		body: models.RegisteredUser{
			ID:    res.Value.ID,
			Email: res.Value.Email,
			Name:  res.Value.Name,
		},
	}
}

// coordinatedRefresh refreshes the session behind refreshToken, joining any
// refresh already in flight for the same session.
func (h *Handler) coordinatedRefresh(ctx context.Context, refreshToken string) services.RefreshResult {
	out := h.refresher.AcquireOrJoin(ctx, services.SessionKey(refreshToken), func(ctx context.Context) (string, error) {
		res, err := h.backend.Refresh(ctx, refreshToken)
		if err != nil {
			return "", err
		}
		if !res.OK() {
			return "", &refreshRejectedError{failure: res.Failure}
		}
		return res.Value.AccessToken, nil
	})
	metrics.RefreshFlightsTotal.WithLabelValues(metrics.Role(out.Shared), metrics.Result(out.OK())).Inc()
	return out
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(v)
}

// auditTrail stamps every entry of one request with its correlation fields.
type auditTrail struct {
	h          *Handler
	ctx        context.Context
	action     string
	event      string
	errorEvent string
	requestID  string
	clientIP   string
}

func (h *Handler) trail(r *http.Request, action, event, errorEvent string) *auditTrail {
	return &auditTrail{
		h:          h,
		ctx:        r.Context(),
		action:     action,
		event:      event,
		errorEvent: errorEvent,
		requestID:  requestID(r),
		clientIP:   auditClientIP(r),
	}
}

func (t *auditTrail) log(e logger.AuditEntry) {
	t.emit(t.event, e)
}

func (t *auditTrail) emit(event string, e logger.AuditEntry) {
	e.RequestID = t.requestID
	e.ClientIP = t.clientIP
	t.h.audit.Log(t.ctx, event, e)

	if e.Status == logger.StatusInitiated {
		return
	}
	reason := e.Reason
	switch {
	case e.Status == logger.StatusError:
		reason = "internal_error"
	case reason == "":
		reason = "ok"
	}
	metrics.AuthOutcomesTotal.WithLabelValues(t.action, reason).Inc()
}

// upstream records and translates a failed backend call. Errors outside the
// upstream taxonomy are internal: the response stays generic and only the
// error type reaches the audit log.
func (t *auditTrail) upstream(err error, email, internalDetail string) result {
	reason := services.ReasonCode(err)
	entry := logger.AuditEntry{Email: email, Status: logger.StatusFailed, Reason: reason}

	var malformed *services.MalformedResponseError
	if errors.As(err, &malformed) {
		entry.BackendStatus = malformed.Status
	}

	switch {
	case errors.Is(err, services.ErrUpstreamTimeout):
		t.log(entry)
		return failure(http.StatusServiceUnavailable, detailTimeout)
	case errors.Is(err, services.ErrUpstreamUnreachable):
		t.log(entry)
		return failure(http.StatusServiceUnavailable, detailUnreachable)
	case errors.Is(err, services.ErrUpstreamMalformed):
		t.log(entry)
		return failure(http.StatusBadGateway, detailMalformed)
	default:
		t.emit(t.errorEvent, logger.AuditEntry{Status: logger.StatusError, ErrorType: fmt.Sprintf("%T", err)})
		return failure(http.StatusInternalServerError, internalDetail)
	}
}
