// Package vectorstore defines the contract the retrieval engine holds
// against an external vector-similarity database. Implementations live in
// subpackages; the engine only ever sees the plain values declared here.
package vectorstore

import "context"

// Record is one stored chunk of a document. Tags travel as a single
// ", "-joined string and timestamps as RFC 3339 text, matching the stored
// field layout consumers already parse.
type Record struct {
	DocumentID      string
	Title           string
	Content         string
	Ordinal         int
	TotalChunkCount int
	Tags            string
	CreatedAt       string
	UpdatedAt       string
}

// Match is a Record plus the store's similarity distance for one query.
// Lower distance means more similar; the store's ranking is authoritative.
type Match struct {
	Record
	Distance float64
}

// Filter narrows an operation to one document, to records carrying any of
// the given tags, or both. The zero value matches everything.
type Filter struct {
	DocumentID string
	AnyTags    []string
}

// Store is the similarity-store surface the engine consumes. Insert returns
// the store-assigned identifier of the new record; DeleteMany reports how
// many records the filter removed. QueryNearText ranks by similarity while
// Fetch returns records in store order; limit <= 0 means no cap.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rec Record) (string, error)
	DeleteMany(ctx context.Context, f Filter) (int, error)
	QueryNearText(ctx context.Context, text string, limit int, f Filter) ([]Match, error)
	Fetch(ctx context.Context, f Filter, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
