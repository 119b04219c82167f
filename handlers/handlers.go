// ABOUTME: HTTP handlers for the VocalSwap web front-end server
// ABOUTME: Holds shared dependencies and the JSON/cookie response plumbing

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vocalswap/vocalswap-web/cache"
	"github.com/vocalswap/vocalswap-web/config"
	"github.com/vocalswap/vocalswap-web/logger"
	"github.com/vocalswap/vocalswap-web/middleware"
	"github.com/vocalswap/vocalswap-web/models"
	"github.com/vocalswap/vocalswap-web/services"
)

// defaultHealthTTL applies when no config is supplied.
const defaultHealthTTL = 10 * time.Second

type Handler struct {
	cfg         *config.Config
	backend     *services.BackendClient
	tokens      *services.TokenStore
	refresher   *services.RefreshCoordinator
	audit       *logger.Auditor
	healthCache *cache.Cache[models.HealthResponse]
	pages       *pageRenderer
}

// NewHandler wires the handler dependencies. cfg and backend may be nil in
// tests that only inspect the route table. A zero HealthCacheTTL disables
// the backend health cache.
func NewHandler(cfg *config.Config, backend *services.BackendClient, refresher *services.RefreshCoordinator, audit *logger.Auditor) *Handler {
	secure := false
	ttl := defaultHealthTTL
	if cfg != nil {
		secure = cfg.IsProduction()
		ttl = cfg.HealthCacheTTL
	}
	if refresher == nil {
		refresher = services.NewRefreshCoordinator()
	}
	if audit == nil {
		audit = logger.NewAuditor(nil)
	}

	return &Handler{
		cfg:         cfg,
		backend:     backend,
		tokens:      services.NewTokenStore(secure),
		refresher:   refresher,
		audit:       audit,
		healthCache: cache.New[models.HealthResponse](ttl),
		pages:       newPageRenderer(),
	}
}

// result is the complete outcome of an auth operation: status, JSON body and
// cookies to set. Handlers build one and apply it with write.
type result struct {
	status  int
	body    any
	cookies []*http.Cookie
}

func (res result) write(w http.ResponseWriter) {
	for _, c := range res.cookies {
		http.SetCookie(w, c)
	}
	writeJSON(w, res.status, res.body)
}

func failure(status int, detail string, cookies ...*http.Cookie) result {
	return result{status: status, body: models.ErrorResponse{Detail: detail}, cookies: cookies}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	writeJSON(w, status, body)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, models.ErrorResponse{Detail: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// requestID returns the correlation ID set by the logging middleware, or a
// fresh one when the handler runs without it.
func requestID(r *http.Request) string {
	if id := middleware.RequestID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

// auditClientIP is the leftmost X-Forwarded-For entry, or "unknown".
func auditClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return "unknown"
	}
	ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	if ip == "" {
		return "unknown"
	}
	return ip
}
