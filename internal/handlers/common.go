package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/antique-korea/appraiser/internal/analysis"
	"github.com/antique-korea/appraiser/internal/quota"
	"github.com/antique-korea/appraiser/internal/session"
)

// Handler exposes the appraisal session over HTTP.
type Handler struct {
	session *session.Manager
}

func New(manager *session.Manager) *Handler {
	return &Handler{session: manager}
}

// Routes registers all API routes on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/appraise", h.HandleAppraise)
	mux.HandleFunc("/api/history", h.HandleHistory)
	mux.HandleFunc("/api/history/", h.HandleHistoryDetail)
	mux.HandleFunc("/api/quota", h.HandleQuota)
	mux.HandleFunc("/api/status", h.HandleStatus)
	mux.HandleFunc("/api/agree", h.HandleAgree)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/api/view", h.HandleView)
	mux.HandleFunc("/api/select", h.HandleSelect)
	mux.HandleFunc("/api/reset", h.HandleReset)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// writeSubmitError maps the appraisal error taxonomy onto HTTP codes. All
// analysis failures surface the same user-visible retry message; quota
// exhaustion gets a distinct, actionable one.
func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quota.ErrLimitReached):
		snap := h.session.Quota()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "daily appraisal limit reached, quota resets at midnight UTC",
			"quota": snap,
		}); encErr != nil {
			slog.Error("Unable to encode quota error", "err", encErr)
		}
	case errors.Is(err, session.ErrBusy):
		h.writeError(w, "an appraisal is already in progress", http.StatusConflict)
	default:
		var cfgErr *analysis.ConfigError
		if errors.As(err, &cfgErr) {
			h.writeError(w, cfgErr.Error(), http.StatusServiceUnavailable)
			return
		}
		slog.Error("Appraisal failed", "err", err)
		h.writeError(w, "could not complete appraisal, try again", http.StatusBadGateway)
	}
}
