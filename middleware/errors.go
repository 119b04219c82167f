// ABOUTME: JSON error response helper for middleware
// ABOUTME: Ensures middleware error responses match the {"detail": string} shape

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/vocalswap/vocalswap-web/models"
)

// writeJSONError writes an error response as JSON with the given status code.
// Matches the format used by the handlers for consistency.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{Detail: message})
}
