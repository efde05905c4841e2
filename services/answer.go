package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

const (
	noMatchesAnswer        = "No relevant documents found to answer your question."
	generationFailedAnswer = "I encountered an error while generating a response."
	emptyGenerationAnswer  = "I couldn't generate a response based on your documents."

	topFallbackCount = 3
	previewRunes     = 200
)

var answerPrompt = prompts.NewPromptTemplate(
	`You are a helpful AI assistant. The user has asked the following question:

"{{.query}}"{{.additionalContext}}

Below are relevant excerpts from the user's documents that may help answer this question:

{{.excerpts}}

Based on the excerpts above{{.contextHint}}, provide a helpful and accurate answer to the user's question.
- If the excerpts contain relevant information, reference it specifically.
- If the excerpts don't contain enough information to fully answer, say so.
- Be concise but thorough.`,
	[]string{"query", "additionalContext", "excerpts", "contextHint"},
)

// Answer retrieves the chunks most relevant to the query, asks the
// generation service to answer from them, and returns the answer with the
// source documents it drew on.
//
// Retrieval failures are returned as errors. Generation failures degrade:
// the caller still gets the sources, with a fixed apology as the text.
// When nothing matches at all the generation service is never called.
func (e *Engine) Answer(ctx context.Context, query string, limit int, tags []string, additionalContext string) (*models.Answer, error) {
	if limit < 1 {
		limit = 1
	}

	matches, err := e.store.QueryNearText(ctx, query, limit*e.answerOverfetch, vectorstore.Filter{AnyTags: tags})
	if err != nil {
		return nil, fmt.Errorf("retrieval for answer failed: %w", err)
	}
	if len(matches) == 0 {
		return &models.Answer{Text: noMatchesAnswer, Sources: []models.Source{}}, nil
	}

	filtered := make([]vectorstore.Match, 0, len(matches))
	for _, m := range matches {
		if m.Distance < e.distanceThreshold {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		n := topFallbackCount
		if len(matches) < n {
			n = len(matches)
		}
		filtered = matches[:n]
		log.Printf("ENGINE: No chunks within distance %.2f, falling back to top %d matches", e.distanceThreshold, n)
	}

	// One entry per document, keeping its closest chunk.
	index := make(map[string]int, len(filtered))
	deduped := make([]vectorstore.Match, 0, len(filtered))
	for _, m := range filtered {
		if i, ok := index[m.DocumentID]; ok {
			if m.Distance < deduped[i].Distance {
				deduped[i] = m
			}
			continue
		}
		index[m.DocumentID] = len(deduped)
		deduped = append(deduped, m)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Distance < deduped[j].Distance
	})
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	sources := make([]models.Source, 0, len(deduped))
	for _, m := range deduped {
		sources = append(sources, models.Source{
			DocumentID:     m.DocumentID,
			Title:          m.Title,
			ContentPreview: preview(m.Content),
		})
	}

	prompt, err := buildAnswerPrompt(query, additionalContext, deduped)
	if err != nil {
		return nil, fmt.Errorf("failed to build answer prompt: %w", err)
	}

	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("ENGINE: Generation failed: %v", err)
		return &models.Answer{Text: generationFailedAnswer, Sources: sources}, nil
	}
	if text == "" {
		text = emptyGenerationAnswer
	}
	return &models.Answer{Text: text, Sources: sources}, nil
}

func buildAnswerPrompt(query, additionalContext string, matches []vectorstore.Match) (string, error) {
	var contextSection, contextHint string
	if additionalContext != "" {
		contextSection = fmt.Sprintf("\n\nIMPORTANT - Additional Context Provided:\n---\n%s\n---\n\nPlease focus on the additional context above to answer the question.", additionalContext)
		contextHint = " and the additional context"
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("---\n**From: %s** (chunk %d/%d)\n%s\n---", m.Title, m.Ordinal, m.TotalChunkCount, m.Content))
	}

	return answerPrompt.Format(map[string]any{
		"query":             query,
		"additionalContext": contextSection,
		"excerpts":          strings.Join(blocks, "\n"),
		"contextHint":       contextHint,
	})
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + "..."
}
