package generation

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator completes prompts through the Google Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGemini wraps an already-constructed Gemini client.
func NewGemini(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
