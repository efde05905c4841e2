package models

import "time"

// Document is the canonical unit of user content. The relational store owns
// it; the vector store only ever sees its derived chunk records.
type Document struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Version     int        `json:"version"`
	VectorID    string     `json:"vector_id,omitempty"`
	SourcePath  string     `json:"source_path,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ChatMessage is one turn of a stored conversation.
type ChatMessage struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Role               string    `json:"role"`
	Content            string    `json:"content"`
	ContextDocumentIDs []string  `json:"context_document_ids"`
	CreatedAt          time.Time `json:"created_at"`
}

// TagCount pairs a tag with the number of live documents carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
