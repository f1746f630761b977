package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
)

// errInvalidRequestBody is a shared error message for invalid JSON
// request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log
// injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// dayParam resolves the ?day= query parameter, defaulting to today.
func dayParam(r *http.Request) string {
	if day := r.URL.Query().Get("day"); day != "" {
		return day
	}
	return attendance.DayKey(time.Now())
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
