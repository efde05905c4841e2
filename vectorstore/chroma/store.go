// Package chroma implements the vectorstore contract against a ChromaDB
// instance using the v2 HTTP API. Records are embedded on write and queries
// on read through the injected Embedder, so callers never handle vectors.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github/itish2003/notevault/embedding"
	"github/itish2003/notevault/vectorstore"
)

// tagFetchBoost widens ranked queries when a tag filter is present, since
// tags are matched client-side after the store has ranked candidates.
const tagFetchBoost = 4

// Config carries the connection settings for a Chroma store.
type Config struct {
	URL             string
	Collection      string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Store talks to one Chroma collection.
type Store struct {
	client     chromago.Client
	collection chromago.Collection
	embedder   embedding.Embedder
	name       string
}

// Connect dials Chroma and provisions the collection, retrying with a fixed
// delay while the store container is still coming up.
func Connect(ctx context.Context, cfg Config, embedder embedding.Embedder) (*Store, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	s := &Store{client: client, embedder: embedder, name: cfg.Collection}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		collection, err := s.getOrCreateCollection(ctx)
		if err == nil {
			s.collection = collection
			log.Printf("CHROMA: Connected, collection '%s' ready", cfg.Collection)
			return s, nil
		}
		if attempt >= attempts {
			closeErr := client.Close()
			if closeErr != nil {
				log.Printf("CHROMA: Failed to close client after connect failure: %v", closeErr)
			}
			return nil, fmt.Errorf("%w: chroma not reachable after %d attempts: %v", vectorstore.ErrNotReady, attempts, err)
		}
		log.Printf("CHROMA: Not ready (attempt %d/%d), retrying in %s...", attempt, attempts, cfg.ConnectDelay)
		select {
		case <-time.After(cfg.ConnectDelay):
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		}
	}
}

// getOrCreateCollection provisions the chunk collection with cosine distance
// so query distances stay on the scale the answer threshold assumes.
func (s *Store) getOrCreateCollection(ctx context.Context) (chromago.Collection, error) {
	return s.client.GetOrCreateCollection(
		ctx,
		s.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewStringAttribute("description", "document chunk records"),
			),
		),
	)
}

// EnsureSchema implements vectorstore.Store. GetOrCreateCollection is
// idempotent on the server, so re-running it is a no-op once provisioned.
func (s *Store) EnsureSchema(ctx context.Context) error {
	collection, err := s.getOrCreateCollection(ctx)
	if err != nil {
		return &vectorstore.WriteError{Err: err}
	}
	s.collection = collection
	return nil
}

// Insert implements vectorstore.Store.
func (s *Store) Insert(ctx context.Context, rec vectorstore.Record) (string, error) {
	vector, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return "", fmt.Errorf("could not embed chunk content: %w", err)
	}

	id := fmt.Sprintf("%s-chunk%d", uuid.New().String(), rec.Ordinal)
	meta := chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("document_id", rec.DocumentID),
		chromago.NewStringAttribute("title", rec.Title),
		chromago.NewIntAttribute("ordinal", int64(rec.Ordinal)),
		chromago.NewIntAttribute("total_chunk_count", int64(rec.TotalChunkCount)),
		chromago.NewStringAttribute("tags", rec.Tags),
		chromago.NewStringAttribute("created_at", rec.CreatedAt),
		chromago.NewStringAttribute("updated_at", rec.UpdatedAt),
	)

	err = s.collection.Add(ctx,
		chromago.WithIDs(chromago.DocumentID(id)),
		chromago.WithTexts(rec.Content),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithMetadatas(meta),
	)
	if err != nil {
		return "", &vectorstore.WriteError{Err: err}
	}
	return id, nil
}

// DeleteMany implements vectorstore.Store. Chroma's delete endpoint does not
// report how many records matched, so the ids are fetched first.
func (s *Store) DeleteMany(ctx context.Context, f vectorstore.Filter) (int, error) {
	if f.DocumentID == "" {
		return 0, &vectorstore.WriteError{Err: fmt.Errorf("delete filter requires a document id")}
	}
	where := chromago.EqString("document_id", f.DocumentID)

	existing, err := s.collection.Get(ctx, chromago.WithWhereGet(where))
	if err != nil {
		return 0, &vectorstore.QueryError{Err: err}
	}
	count := len(existing.GetIDs())
	if count == 0 {
		return 0, nil
	}

	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return 0, &vectorstore.WriteError{Err: err}
	}
	return count, nil
}

// QueryNearText implements vectorstore.Store.
func (s *Store) QueryNearText(ctx context.Context, text string, limit int, f vectorstore.Filter) ([]vectorstore.Match, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("could not embed query text: %w", err)
	}

	nResults := limit
	if len(f.AnyTags) > 0 {
		nResults = limit * tagFetchBoost
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(nResults),
	}
	if f.DocumentID != "" {
		opts = append(opts, chromago.WithWhereQuery(chromago.EqString("document_id", f.DocumentID)))
	}

	results, err := s.collection.Query(ctx, opts...)
	if err != nil {
		return nil, &vectorstore.QueryError{Err: err}
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	matches := make([]vectorstore.Match, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		rec := vectorstore.Record{Content: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			applyMetadata(&rec, metadataGroups[0][i])
		}
		var distance float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			distance = float64(distanceGroups[0][i])
		}
		if len(f.AnyTags) > 0 && !matchesAnyTag(rec.Tags, f.AnyTags) {
			continue
		}
		matches = append(matches, vectorstore.Match{Record: rec, Distance: distance})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}

// Fetch implements vectorstore.Store.
func (s *Store) Fetch(ctx context.Context, f vectorstore.Filter, limit int) ([]vectorstore.Record, error) {
	var opts []chromago.CollectionGetOption
	if f.DocumentID != "" {
		opts = append(opts, chromago.WithWhereGet(chromago.EqString("document_id", f.DocumentID)))
	}
	if limit > 0 {
		opts = append(opts, chromago.WithLimitGet(limit))
	}

	results, err := s.collection.Get(ctx, opts...)
	if err != nil {
		return nil, &vectorstore.QueryError{Err: err}
	}

	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	records := make([]vectorstore.Record, 0, len(documents))
	for i, doc := range documents {
		rec := vectorstore.Record{Content: doc.ContentString()}
		if i < len(metadatas) {
			applyMetadata(&rec, metadatas[i])
		}
		if len(f.AnyTags) > 0 && !matchesAnyTag(rec.Tags, f.AnyTags) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count implements vectorstore.Store.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, &vectorstore.QueryError{Err: err}
	}
	return int(count), nil
}

// Close implements vectorstore.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

// applyMetadata copies the stored chunk fields out of a Chroma metadata
// value. DocumentMetadata exposes no map accessor, so it goes through a JSON
// round-trip; numbers surface as float64.
func applyMetadata(rec *vectorstore.Record, meta chromago.DocumentMetadata) {
	if meta == nil {
		return
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("CHROMA WARN: could not marshal chunk metadata: %v", err)
		return
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		log.Printf("CHROMA WARN: could not unmarshal chunk metadata: %v", err)
		return
	}

	if v, ok := metaMap["document_id"].(string); ok {
		rec.DocumentID = v
	}
	if v, ok := metaMap["title"].(string); ok {
		rec.Title = v
	}
	if v, ok := metaMap["ordinal"].(float64); ok {
		rec.Ordinal = int(v)
	}
	if v, ok := metaMap["total_chunk_count"].(float64); ok {
		rec.TotalChunkCount = int(v)
	}
	if v, ok := metaMap["tags"].(string); ok {
		rec.Tags = v
	}
	if v, ok := metaMap["created_at"].(string); ok {
		rec.CreatedAt = v
	}
	if v, ok := metaMap["updated_at"].(string); ok {
		rec.UpdatedAt = v
	}
}

// matchesAnyTag reports whether the stored ", "-joined tag string carries at
// least one of the wanted tags, compared case-insensitively.
func matchesAnyTag(stored string, want []string) bool {
	if stored == "" {
		return false
	}
	storedTags := strings.Split(stored, ", ")
	for _, w := range want {
		for _, have := range storedTags {
			if strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}
