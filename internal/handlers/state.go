package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/antique-korea/appraiser/internal/session"
)

// HandleQuota returns today's usage against the daily limit.
func (h *Handler) HandleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.session.Quota())
}

// HandleStatus reports provider configuration, distinct from transient
// provider failures.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.session.Status())
}

// HandleAgree records the disclaimer agreement.
func (h *Handler) HandleAgree(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.session.Agree()
	h.writeJSON(w, map[string]bool{"agreed": true})
}

// HandleState returns the current view state snapshot.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.session.Snapshot())
}

// HandleView navigates to one of the unconditional views.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, h.session.Navigate(session.View(request.View)))
}

// HandleSelect makes a past appraisal the current result.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if _, ok := h.session.SelectItem(request.ID); !ok {
		h.writeError(w, "Appraisal not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, h.session.Snapshot())
}

// HandleReset returns from the result view to home.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.session.Reset())
}
