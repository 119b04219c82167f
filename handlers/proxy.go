// ABOUTME: Catch-all proxy from /api/proxy/* to the backend /api/*
// ABOUTME: Attaches the cookie-held access token and recovers once from a 401 via refresh-and-retry

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vocalswap/vocalswap-web/metrics"
	"github.com/vocalswap/vocalswap-web/services"
)

const proxyPrefix = "/api/proxy/"

const (
	detailBackendUnavailable = "Failed to connect to backend service"
	detailBodyTooLarge       = "Request body too large"
	detailResponseTooLarge   = "Backend response too large"
)

// Proxy forwards the request to the backend. On a 401 it refreshes the session
// once (shared with any concurrent refresh of the same session), replays the
// request with the new token, and sets the new token cookie. If the refresh
// fails the original 401 is returned unchanged.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.EscapedPath(), proxyPrefix)
	if err := services.ValidateProxyPath(path); err != nil {
		slog.Warn("Proxy path rejected", "error", err)
		h.writeError(w, "Invalid proxy path", http.StatusBadRequest)
		return
	}

	fr := services.ForwardRequest{
		Method:      r.Method,
		Path:        path,
		RawQuery:    r.URL.RawQuery,
		AccessToken: h.tokens.AccessToken(r),
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		contentType := r.Header.Get("Content-Type")
		switch {
		case strings.Contains(contentType, "application/json"):
			fr.ContentType = "application/json"
		case strings.Contains(contentType, "multipart/form-data"):
			fr.ContentType = contentType
		}
		// Other content types are forwarded without a body.
		if fr.ContentType != "" {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxProxyBody()))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					h.writeError(w, detailBodyTooLarge, http.StatusRequestEntityTooLarge)
					return
				}
				h.writeError(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			fr.Body = body
		}
	}

	resp, err := h.backend.Forward(r.Context(), fr)
	if err != nil {
		h.proxyUnavailable(w, r, err)
		return
	}

	if resp.Status == http.StatusUnauthorized {
		refreshToken := h.tokens.RefreshToken(r)
		if refreshToken == "" {
			metrics.ProxyRetriesTotal.WithLabelValues("no_refresh_token").Inc()
		} else if out := h.coordinatedRefresh(r.Context(), refreshToken); !out.OK() {
			slog.Debug("Proxy refresh failed", "error", out.Err, "shared", out.Shared)
			metrics.ProxyRetriesTotal.WithLabelValues("refresh_failed").Inc()
		} else {
			metrics.ProxyRetriesTotal.WithLabelValues("retried").Inc()
			fr.AccessToken = out.AccessToken
			retry, err := h.backend.Forward(r.Context(), fr)
			if err != nil {
				h.proxyUnavailable(w, r, err)
				return
			}
			http.SetCookie(w, h.tokens.AccessCookie(out.AccessToken))
			h.writeForwarded(w, r, retry)
			return
		}
	}

	h.writeForwarded(w, r, resp)
}

func (h *Handler) writeForwarded(w http.ResponseWriter, r *http.Request, resp *services.ForwardResponse) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
	metrics.ProxyRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(resp.Status)).Inc()
}

func (h *Handler) proxyUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Proxy error", "method", r.Method, "reason", services.ReasonCode(err), "error", err)
	if errors.Is(err, services.ErrUpstreamTooLarge) {
		metrics.ProxyRequestsTotal.WithLabelValues(r.Method, "too_large").Inc()
		h.writeError(w, detailResponseTooLarge, http.StatusBadGateway)
		return
	}
	metrics.ProxyRequestsTotal.WithLabelValues(r.Method, "unreachable").Inc()
	h.writeError(w, detailBackendUnavailable, http.StatusServiceUnavailable)
}

// maxProxyBody is the request body limit, shared with the backend client's
// response limit.
func (h *Handler) maxProxyBody() int64 {
	if h.backend == nil {
		return services.DefaultMaxForwardBytes
	}
	return h.backend.MaxForwardBytes()
}
