package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antique-korea/appraiser/internal/models"
	"github.com/antique-korea/appraiser/internal/providers"
)

// Appraisal is the validated result of one analysis call. Identity and
// timestamps are assigned by the caller, never by the provider.
type Appraisal struct {
	Title          string
	Category       string
	Era            string
	EstimatedValue string
	Description    string
	Confidence     int
}

// Client turns submitted images into a structured appraisal by delegating
// inference to a vision LLM provider. It makes exactly one attempt per
// call: retry policy belongs to the caller.
type Client struct {
	provider    providers.Provider
	model       string
	temperature float64
}

func NewClient(provider providers.Provider, model string, temperature float64) *Client {
	return &Client{provider: provider, model: model, temperature: temperature}
}

// Provider returns the underlying provider, for status reporting.
func (c *Client) Provider() providers.Provider { return c.provider }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Analyze validates the input, sends one generation request and parses the
// provider's free-form reply into a structured appraisal.
func (c *Client) Analyze(ctx context.Context, images []models.Image, cfg models.AppraisalConfig) (*Appraisal, error) {
	if len(images) == 0 {
		return nil, &ConfigError{Reason: "at least one image is required"}
	}
	for i, img := range images {
		if len(img.Data) == 0 {
			return nil, &ConfigError{Reason: fmt.Sprintf("image %d has no payload", i+1)}
		}
		if img.MIMEType == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("image %d has no MIME type", i+1)}
		}
	}
	if !c.provider.Configured() {
		return nil, &ConfigError{Reason: fmt.Sprintf("%s provider credential not set", c.provider.Name())}
	}

	text, err := c.provider.Generate(ctx, providers.Request{
		Model:       c.model,
		Temperature: c.temperature,
		Prompt:      buildPrompt(cfg),
		Images:      images,
	})
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	appraisal, err := parseResponse(text)
	if err != nil {
		return nil, err
	}

	slog.Info("Appraisal analyzed",
		"provider", c.provider.Name(),
		"model", c.model,
		"title", appraisal.Title,
		"confidence", appraisal.Confidence)
	return appraisal, nil
}

// buildPrompt combines the fixed expert-appraiser instruction with the
// user's hints.
func buildPrompt(cfg models.AppraisalConfig) string {
	var hints strings.Builder
	if cfg.Category != "" {
		fmt.Fprintf(&hints, "\nThe owner believes this object belongs to the category: %s.", cfg.Category)
	}
	if cfg.Notes != "" {
		fmt.Fprintf(&hints, "\nAdditional notes from the owner: %s", cfg.Notes)
	}

	return fmt.Sprintf(`You are an expert antique appraiser with over 40 years of experience
authenticating Korean and East Asian antiques, old books and seals.

Examine the attached photographs of a single object and appraise it.%s

OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "name": "presumed name of the object",
  "category": "object category (ceramics, painting, calligraphy, furniture, book, seal, other)",
  "era": "estimated era and century (e.g. Goryeo dynasty, 12th century)",
  "estimatedValue": "estimated market value as a range, in KRW and USD",
  "description": "at least three sentences on the object's features, motifs and technique",
  "confidence": 80
}

The "confidence" field must be a number between 0 and 100 expressing how
certain you are of the attribution. Write the description in a measured,
scholarly tone. Do not invent provenance that the photographs cannot support.`, hints.String())
}

// parseResponse strips any markdown code fences from the provider output,
// parses the remainder as JSON and validates the required fields. It never
// returns a partially populated appraisal.
func parseResponse(text string) (*Appraisal, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var raw struct {
		Name           string       `json:"name"`
		Category       string       `json:"category"`
		Era            string       `json:"era"`
		EstimatedValue string       `json:"estimatedValue"`
		Description    string       `json:"description"`
		Confidence     *json.Number `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		// Providers sometimes wrap the object in prose. Retry on the
		// outermost braces before giving up.
		start := strings.Index(clean, "{")
		end := strings.LastIndex(clean, "}")
		if start == -1 || end <= start {
			return nil, &ParseError{Raw: text, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		if err := json.Unmarshal([]byte(clean[start:end+1]), &raw); err != nil {
			return nil, &ParseError{Raw: text, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
	}

	if raw.Name == "" {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("missing required field %q", "name")}
	}
	if raw.Era == "" {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("missing required field %q", "era")}
	}
	if raw.Description == "" {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("missing required field %q", "description")}
	}
	if raw.Confidence == nil {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("missing required field %q", "confidence")}
	}
	confidence, err := raw.Confidence.Float64()
	if err != nil {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("confidence is not a number: %w", err)}
	}
	// Out-of-range confidence is clamped rather than rejected.
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return &Appraisal{
		Title:          raw.Name,
		Category:       raw.Category,
		Era:            raw.Era,
		EstimatedValue: raw.EstimatedValue,
		Description:    raw.Description,
		Confidence:     int(confidence),
	}, nil
}
