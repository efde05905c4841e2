// Package services holds the application's business logic: the retrieval
// engine over the vector store, document and chat workflows on top of it,
// and the file importer that feeds documents in from disk.
package services

import (
	"context"
	"errors"
	"strings"

	"github/itish2003/notevault/chunker"
	"github/itish2003/notevault/config"
	"github/itish2003/notevault/generation"
	"github/itish2003/notevault/vectorstore"
)

// ErrDocumentNotFound signals that a targeted document has no chunk records
// or no live row, depending on the operation.
var ErrDocumentNotFound = errors.New("document not found")

// Engine is the chunked retrieval and generation core. It is stateless
// between calls; every method is an independent pipeline over the vector
// store and the generation service.
//
// Index and Delete for the same document must not run concurrently; callers
// that mutate documents hold a per-document lock (see Documents).
type Engine struct {
	store     vectorstore.Store
	generator generation.Generator
	splitter  *chunker.Splitter

	searchOverfetch   int
	answerOverfetch   int
	distanceThreshold float64
	windowQueryCap    int
}

// NewEngine wires the engine. The chunk geometry is validated here so a bad
// configuration fails at startup, not at first use.
func NewEngine(store vectorstore.Store, generator generation.Generator, chunking config.ChunkingConfig, retrieval config.RetrievalConfig) (*Engine, error) {
	splitter, err := chunker.New(chunking.MaxChunkSize, chunking.Overlap)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:             store,
		generator:         generator,
		splitter:          splitter,
		searchOverfetch:   retrieval.SearchOverfetch,
		answerOverfetch:   retrieval.AnswerOverfetch,
		distanceThreshold: retrieval.DistanceThreshold,
		windowQueryCap:    retrieval.WindowQueryCap,
	}, nil
}

// EnsureSchema provisions the chunk collection; safe to call repeatedly.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	return e.store.EnsureSchema(ctx)
}

// ChunkCount reports how many chunk records the store currently holds.
func (e *Engine) ChunkCount(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// splitTags undoes the ", " join applied when chunk records are written.
func splitTags(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ", ")
}

// joinTags is the single place the tag separator is defined; existing
// consumers parse exactly ", ".
func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
