// Package embedding turns text into vectors for the similarity store.
package embedding

import "context"

// Embedder produces a vector for one piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
