package models

import "time"

// AppraisalResult represents one completed appraisal. Results are
// append-only: once created they are never edited in place.
type AppraisalResult struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Era             string   `json:"era"`
	EstimatedValue  string   `json:"estimated_value"`
	Description     string   `json:"description"`
	ConfidenceScore int      `json:"confidence_score"`
	ImageURLs       []string `json:"image_urls"`
	Timestamp       int64    `json:"timestamp"` // milliseconds since epoch
}

// CreatedAt returns the result's creation instant.
func (r AppraisalResult) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// AppraisalConfig carries the user-supplied hints for a single appraisal
// request. Immutable input to one request.
type AppraisalConfig struct {
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

// Image is one submitted photograph: raw bytes plus its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}
