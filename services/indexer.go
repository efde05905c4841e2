package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

// Index replaces every chunk record of the document with freshly split
// chunks and returns the store id of the first chunk (ordinal 0). Stale
// records are removed before any insert so a shrinking document never
// leaves orphan chunks behind. A document whose content splits into zero
// chunks ends up with no records and an empty id.
func (e *Engine) Index(ctx context.Context, doc models.Document) (string, error) {
	if _, err := e.store.DeleteMany(ctx, vectorstore.Filter{DocumentID: doc.ID}); err != nil {
		return "", fmt.Errorf("failed to clear existing chunks for document %s: %w", doc.ID, err)
	}

	chunks := e.splitter.Split(doc.Content)
	total := len(chunks)
	if total == 0 {
		log.Printf("ENGINE: Document %s has no indexable content, skipping", doc.ID)
		return "", nil
	}

	tags := joinTags(doc.Tags)
	var createdAt, updatedAt string
	if !doc.CreatedAt.IsZero() {
		createdAt = doc.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !doc.UpdatedAt.IsZero() {
		updatedAt = doc.UpdatedAt.UTC().Format(time.RFC3339)
	}

	var firstID string
	for i, chunk := range chunks {
		id, err := e.store.Insert(ctx, vectorstore.Record{
			DocumentID:      doc.ID,
			Title:           doc.Title,
			Content:         chunk,
			Ordinal:         i,
			TotalChunkCount: total,
			Tags:            tags,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		})
		if err != nil {
			return "", fmt.Errorf("failed to index chunk %d/%d of document %s: %w", i, total, doc.ID, err)
		}
		if i == 0 {
			firstID = id
		}
	}

	log.Printf("ENGINE: Indexed document %s as %d chunk(s)", doc.ID, total)
	return firstID, nil
}

// Delete removes all chunk records of the document. The bool reports
// whether anything was actually deleted.
func (e *Engine) Delete(ctx context.Context, documentID string) (bool, error) {
	count, err := e.store.DeleteMany(ctx, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		return false, fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}
	if count > 0 {
		log.Printf("ENGINE: Deleted %d chunk(s) for document %s", count, documentID)
	}
	return count > 0, nil
}
