package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiEmbedder embeds text through the Google Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGemini wraps an already-constructed Gemini client.
func NewGemini(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

// Embed implements Embedder.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed call failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding for text")
	}
	return result.Embeddings[0].Values, nil
}
