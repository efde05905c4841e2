package chroma

import (
	"testing"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"

	"github/itish2003/notevault/vectorstore"
)

func TestMatchesAnyTag(t *testing.T) {
	cases := []struct {
		name   string
		stored string
		want   []string
		match  bool
	}{
		{"single match", "go, programming", []string{"go"}, true},
		{"any-of semantics", "go, programming", []string{"rust", "programming"}, true},
		{"case insensitive", "Go, Programming", []string{"go"}, true},
		{"no match", "go, programming", []string{"rust"}, false},
		{"empty stored tags", "", []string{"go"}, false},
		{"no partial token match", "golang", []string{"go"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.match, matchesAnyTag(tc.stored, tc.want))
		})
	}
}

func TestApplyMetadataRoundTrip(t *testing.T) {
	meta := chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("document_id", "doc-1"),
		chromago.NewStringAttribute("title", "Meeting notes"),
		chromago.NewIntAttribute("ordinal", 2),
		chromago.NewIntAttribute("total_chunk_count", 5),
		chromago.NewStringAttribute("tags", "work, planning"),
		chromago.NewStringAttribute("created_at", "2025-01-02T03:04:05Z"),
		chromago.NewStringAttribute("updated_at", "2025-01-03T03:04:05Z"),
	)

	var rec vectorstore.Record
	applyMetadata(&rec, meta)

	assert.Equal(t, "doc-1", rec.DocumentID)
	assert.Equal(t, "Meeting notes", rec.Title)
	assert.Equal(t, 2, rec.Ordinal)
	assert.Equal(t, 5, rec.TotalChunkCount)
	assert.Equal(t, "work, planning", rec.Tags)
	assert.Equal(t, "2025-01-02T03:04:05Z", rec.CreatedAt)
	assert.Equal(t, "2025-01-03T03:04:05Z", rec.UpdatedAt)
}
