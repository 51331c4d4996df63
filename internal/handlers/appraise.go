package handlers

import (
	"io"
	"net/http"

	"github.com/antique-korea/appraiser/internal/models"
)

// 10MB per image, matching the upload limit of the web client.
const maxImageBytes = 10 * 1024 * 1024

// HandleAppraise accepts a multipart form with one or more image files
// plus optional category and notes fields, and runs one appraisal.
func (h *Handler) HandleAppraise(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		h.writeError(w, "At least one image file is required", http.StatusBadRequest)
		return
	}

	images := make([]models.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
		f.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(data) >= maxImageBytes {
			h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
			return
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		images = append(images, models.Image{Data: data, MIMEType: mimeType})
	}

	cfg := models.AppraisalConfig{
		Category: r.FormValue("category"),
		Notes:    r.FormValue("notes"),
	}

	result, err := h.session.Submit(r.Context(), images, cfg)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	h.writeJSON(w, result)
}
