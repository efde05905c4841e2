package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github/itish2003/notevault/models"
)

// OllamaGenerator calls a local Ollama instance's non-streaming generate API.
type OllamaGenerator struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllama creates a generator against the given Ollama base URL. The
// http.Client's timeout bounds the whole completion call.
func NewOllama(client *http.Client, baseURL, model string) *OllamaGenerator {
	return &OllamaGenerator{httpClient: client, baseURL: baseURL, model: model}
}

// Generate implements Generator.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(models.OllamaGenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{Status: resp.StatusCode}
	}

	var genResp models.OllamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama generate response: %w", err)
	}
	return genResp.Response, nil
}
