package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/antique-korea/appraiser/internal/providers"
)

// OpenAI is a provider for OpenAI vision models.
type OpenAI struct {
	apiKey string
}

// New returns a new OpenAI provider using the given API key.
func New(apiKey string) *OpenAI {
	return &OpenAI{apiKey: apiKey}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Configured() bool { return o.apiKey != "" }

// Generate sends the prompt and images as a single chat completion and
// returns the first choice's content.
func (o *OpenAI) Generate(ctx context.Context, req providers.Request) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("openai API key not set")
	}

	client := openai.NewClient(o.apiKey)

	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
	for _, img := range req.Images {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
		})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
