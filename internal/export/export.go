package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/antique-korea/appraiser/internal/models"
)

// Record is the flattened export shape of one appraisal. Image payloads
// are replaced by a count: data URLs dominate the file size otherwise.
type Record struct {
	ID              string `yaml:"id" json:"id" parquet:"id"`
	Title           string `yaml:"title" json:"title" parquet:"title"`
	Category        string `yaml:"category,omitempty" json:"category,omitempty" parquet:"category"`
	Era             string `yaml:"era" json:"era" parquet:"era"`
	EstimatedValue  string `yaml:"estimated_value" json:"estimated_value" parquet:"estimated_value"`
	Description     string `yaml:"description" json:"description" parquet:"description"`
	ConfidenceScore int    `yaml:"confidence_score" json:"confidence_score" parquet:"confidence_score"`
	ImageCount      int    `yaml:"image_count" json:"image_count" parquet:"image_count"`
	AppraisedAt     string `yaml:"appraised_at" json:"appraised_at" parquet:"appraised_at"`
}

// Document is the top-level YAML export shape.
type Document struct {
	ExportedAt string   `yaml:"exported_at"`
	Count      int      `yaml:"count"`
	Results    []Record `yaml:"results"`
}

func toRecords(results []models.AppraisalResult) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, Record{
			ID:              r.ID,
			Title:           r.Title,
			Category:        r.Category,
			Era:             r.Era,
			EstimatedValue:  r.EstimatedValue,
			Description:     r.Description,
			ConfidenceScore: r.ConfidenceScore,
			ImageCount:      len(r.ImageURLs),
			AppraisedAt:     r.CreatedAt().UTC().Format(time.RFC3339),
		})
	}
	return records
}

// ToFile writes the history to path in the format implied by its
// extension (.yaml/.yml, .parquet, .jsonl).
func ToFile(path string, results []models.AppraisalResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ToYAML(f, results)
	case ".parquet":
		return ToParquet(f, results)
	case ".jsonl":
		return ToJSONL(f, results)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: .yaml, .parquet, .jsonl)", ext)
	}
}

// ToYAML writes the history as a single YAML document.
func ToYAML(w io.Writer, results []models.AppraisalResult) error {
	doc := Document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(results),
		Results:    toRecords(results),
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// ToParquet writes the history as a Parquet file, one row per appraisal.
func ToParquet(w io.Writer, results []models.AppraisalResult) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(toRecords(results)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ToJSONL writes the history as one JSON object per line.
func ToJSONL(w io.Writer, results []models.AppraisalResult) error {
	enc := json.NewEncoder(w)
	for _, r := range toRecords(results) {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode JSONL row: %w", err)
		}
	}
	return nil
}

// ReadParquet loads exported records back from a Parquet file.
func ReadParquet(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 64)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}
