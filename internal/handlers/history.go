package handlers

import (
	"net/http"
	"strings"
)

// HandleHistory returns the full appraisal history, most recent first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.session.History())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleHistoryDetail returns one appraisal by id.
func (h *Handler) HandleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	result, ok := h.session.Find(id)
	if !ok {
		h.writeError(w, "Appraisal not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, result)
}
