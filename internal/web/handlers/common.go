package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/facefit/internal/web/middleware"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
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

// wantsJSON reports whether the caller is a script rather than a form post.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") != ""
}

// redirectHome sends a form post back to the page.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// respondNotice reports a user-facing notice: as a JSON error to scripts, or
// as a flash message on the next page render for form posts.
func respondNotice(w http.ResponseWriter, r *http.Request, session *middleware.Session, status int, notice string) {
	if wantsJSON(r) || session == nil {
		respondError(w, status, notice)
		return
	}
	session.SetNotice(notice)
	redirectHome(w, r)
}

// mustGetSession returns the request's session or writes a 500.
func mustGetSession(w http.ResponseWriter, r *http.Request) *middleware.Session {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusInternalServerError, "session not available")
	}
	return session
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
