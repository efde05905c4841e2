package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

// SearchWithin locates the chunk of one document that best matches the
// query and returns it together with its neighbors: radius chunks on each
// side, clamped to the document's bounds, joined in reading order. Returns
// ErrDocumentNotFound when the document has no chunk records.
func (e *Engine) SearchWithin(ctx context.Context, documentID, query string, radius int) (*models.Excerpt, error) {
	if radius < 0 {
		radius = 0
	}

	matches, err := e.store.QueryNearText(ctx, query, e.windowQueryCap, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("search within document %s failed: %w", documentID, err)
	}
	if len(matches) == 0 {
		return nil, ErrDocumentNotFound
	}

	best := matches[0]
	total := best.TotalChunkCount
	if total < 1 {
		total = 1
	}

	start := best.Ordinal - radius
	if start < 0 {
		start = 0
	}
	end := best.Ordinal + radius
	if end > total-1 {
		end = total - 1
	}

	records, err := e.store.Fetch(ctx, vectorstore.Filter{DocumentID: documentID}, total)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks for document %s: %w", documentID, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Ordinal < records[j].Ordinal
	})

	parts := make([]string, 0, end-start+1)
	for _, rec := range records {
		if rec.Ordinal >= start && rec.Ordinal <= end {
			parts = append(parts, rec.Content)
		}
	}

	return &models.Excerpt{
		DocumentID:      documentID,
		Title:           best.Title,
		Text:            strings.Join(parts, "\n\n"),
		Start:           start,
		End:             end,
		TotalChunkCount: total,
		Ordinal:         best.Ordinal,
	}, nil
}
