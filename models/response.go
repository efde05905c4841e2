package models

import "time"

type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

type TagListResponse struct {
	Tags []TagCount `json:"tags"`
}

type SemanticSearchResponse struct {
	Results []SearchResult `json:"results"`
	Query   string         `json:"query"`
	Count   int            `json:"count"`
}

// ExcerptResponse is the wire form of an Excerpt; the window bounds are
// flattened into a "start-end" range string.
type ExcerptResponse struct {
	Excerpt         string `json:"excerpt"`
	Title           string `json:"title"`
	ChunkRange      string `json:"chunk_range"`
	TotalChunkCount int    `json:"total_chunk_count"`
	Ordinal         int    `json:"ordinal"`
}

type ChatQueryResponse struct {
	Message          string    `json:"message"`
	SessionID        string    `json:"session_id"`
	ContextDocuments []Source  `json:"context_documents"`
	CreatedAt        time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	Messages  []ChatMessage `json:"messages"`
	SessionID string        `json:"session_id"`
	Total     int           `json:"total"`
}

type SessionCreateResponse struct {
	SessionID string `json:"session_id"`
}

type ReindexResponse struct {
	Message string `json:"message"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Errors  int    `json:"errors"`
}

type StatsResponse struct {
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
}
