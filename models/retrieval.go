package models

// SearchResult is a document-level hit produced by collapsing chunk matches.
// The content and timestamps are denormalized copies taken from the
// best-ranked chunk record.
type SearchResult struct {
	DocumentID     string   `json:"document_id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
}

// Excerpt is a contiguous reading window stitched around the chunk of a
// document that best matches a query.
type Excerpt struct {
	DocumentID      string `json:"document_id"`
	Title           string `json:"title"`
	Text            string `json:"excerpt"`
	Start           int    `json:"-"`
	End             int    `json:"-"`
	TotalChunkCount int    `json:"total_chunk_count"`
	Ordinal         int    `json:"ordinal"`
}

// Source identifies a document whose content was offered to the generation
// service as grounding for an answer.
type Source struct {
	DocumentID     string `json:"document_id"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
}

// Answer is the outcome of a grounded generation call. Text may be a
// fallback message while Sources still lists what was considered.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}
