package services

import (
	"context"
	"fmt"
	"sort"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

// Search runs a semantic search and returns at most limit results, one per
// document. The store query is widened by the configured over-fetch factor
// so that deduplication still leaves enough distinct documents. When tags
// are given, a chunk qualifies if it carries at least one of them.
func (e *Engine) Search(ctx context.Context, query string, limit int, tags []string) ([]models.SearchResult, error) {
	if limit < 1 {
		limit = 1
	}

	matches, err := e.store.QueryNearText(ctx, query, limit*e.searchOverfetch, vectorstore.Filter{AnyTags: tags})
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	seen := make(map[string]bool, len(matches))
	results := make([]models.SearchResult, 0, limit)
	for _, m := range matches {
		if m.DocumentID == "" || seen[m.DocumentID] {
			continue
		}
		seen[m.DocumentID] = true
		results = append(results, models.SearchResult{
			DocumentID:     m.DocumentID,
			Title:          m.Title,
			Content:        m.Content,
			Tags:           splitTags(m.Tags),
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
			RelevanceScore: 1 - m.Distance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
