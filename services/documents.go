package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/storage"
)

// Documents owns the document lifecycle: rows in SQLite are the source of
// truth, chunk records in the vector store follow them. Every mutation of
// one document runs under that document's lock so indexing for the same id
// never interleaves.
type Documents struct {
	store  *storage.DocumentStore
	engine *Engine
	locks  *keyedMutex
}

func NewDocuments(store *storage.DocumentStore, engine *Engine) *Documents {
	return &Documents{
		store:  store,
		engine: engine,
		locks:  newKeyedMutex(),
	}
}

// Create stores the document and indexes its chunks. On indexing failure
// the row is kept and the error surfaced; a later update or reindex
// repairs the chunk records.
func (s *Documents) Create(ctx context.Context, req models.CreateDocumentRequest) (*models.Document, error) {
	doc := &models.Document{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}
	if err := s.store.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.locks.Lock(doc.ID)
	defer s.locks.Unlock(doc.ID)
	if err := s.index(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns one live document.
func (s *Documents) Get(id string) (*models.Document, error) {
	doc, err := s.store.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

// List pages through live documents, newest first. Tags narrow the listing
// to documents carrying every given tag.
func (s *Documents) List(page, limit int, tags []string) ([]models.Document, int, error) {
	return s.store.List(page, limit, tags)
}

// Update applies an optimistic-concurrency update and reindexes the
// document. storage.ErrVersionConflict passes through untouched so the
// caller can distinguish a stale write from a missing document.
func (s *Documents) Update(ctx context.Context, id string, req models.UpdateDocumentRequest) (*models.Document, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	doc, err := s.store.Update(id, req.Title, req.Content, req.Tags, req.Version)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.index(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete soft-deletes the row and drops the document's chunk records.
func (s *Documents) Delete(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	err := s.store.SoftDelete(id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if _, err := s.engine.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// ReindexAll rebuilds the chunk records of every live document. Individual
// failures are counted, not fatal.
func (s *Documents) ReindexAll(ctx context.Context) (*models.ReindexResponse, error) {
	if err := s.engine.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure chunk collection: %w", err)
	}

	docs, err := s.store.AllLive()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents for reindex: %w", err)
	}

	resp := &models.ReindexResponse{Total: len(docs)}
	for i := range docs {
		doc := docs[i]
		s.locks.Lock(doc.ID)
		err := s.index(ctx, &doc)
		s.locks.Unlock(doc.ID)
		if err != nil {
			log.Printf("SERVICE: Reindex failed for document %s: %v", doc.ID, err)
			resp.Errors++
			continue
		}
		resp.Success++
	}
	resp.Message = fmt.Sprintf("Reindexed %d of %d documents", resp.Success, resp.Total)
	log.Printf("SERVICE: %s (%d errors)", resp.Message, resp.Errors)
	return resp, nil
}

// TagCounts returns every tag in use with its document count.
func (s *Documents) TagCounts() ([]models.TagCount, error) {
	return s.store.TagCounts()
}

// Stats reports document and chunk totals.
func (s *Documents) Stats(ctx context.Context) (*models.StatsResponse, error) {
	docs, err := s.store.CountLive()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := s.engine.ChunkCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	return &models.StatsResponse{DocumentCount: docs, ChunkCount: chunks}, nil
}

// UpsertFromFile creates or refreshes the document backing an imported
// file, keyed by its path. An unchanged content hash short-circuits.
func (s *Documents) UpsertFromFile(ctx context.Context, path, title, content, hash string) (*models.Document, error) {
	existing, err := s.store.GetBySourcePath(path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up imported file %s: %w", path, err)
	}

	if existing != nil {
		if existing.ContentHash == hash {
			return existing, nil
		}
		s.locks.Lock(existing.ID)
		defer s.locks.Unlock(existing.ID)

		doc, err := s.store.Update(existing.ID, title, content, existing.Tags, existing.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to update imported file %s: %w", path, err)
		}
		if err := s.store.SetContentHash(doc.ID, hash); err != nil {
			return nil, fmt.Errorf("failed to record content hash for %s: %w", path, err)
		}
		doc.ContentHash = hash
		if err := s.index(ctx, doc); err != nil {
			return nil, err
		}
		log.Printf("SERVICE: Refreshed imported document %s from %s", doc.ID, path)
		return doc, nil
	}

	doc := &models.Document{
		Title:       title,
		Content:     content,
		SourcePath:  path,
		ContentHash: hash,
	}
	if err := s.store.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to create document for %s: %w", path, err)
	}

	s.locks.Lock(doc.ID)
	defer s.locks.Unlock(doc.ID)
	if err := s.index(ctx, doc); err != nil {
		return nil, err
	}
	log.Printf("SERVICE: Imported %s as document %s", path, doc.ID)
	return doc, nil
}

// DeleteBySourcePath removes the document that was imported from the given
// file, if one exists.
func (s *Documents) DeleteBySourcePath(ctx context.Context, path string) error {
	doc, err := s.store.GetBySourcePath(path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up imported file %s: %w", path, err)
	}
	return s.Delete(ctx, doc.ID)
}

// index rebuilds the chunk records and records the resulting vector id.
// Callers hold the document's lock.
func (s *Documents) index(ctx context.Context, doc *models.Document) error {
	vectorID, err := s.engine.Index(ctx, *doc)
	if err != nil {
		return err
	}
	if err := s.store.SetVectorID(doc.ID, vectorID); err != nil {
		return fmt.Errorf("failed to record vector id for document %s: %w", doc.ID, err)
	}
	doc.VectorID = vectorID
	return nil
}
