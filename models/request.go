package models

type CreateDocumentRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type UpdateDocumentRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Version int      `json:"version"`
}

type ChatQueryRequest struct {
	Message           string   `json:"message"`
	SessionID         string   `json:"session_id,omitempty"`
	TagFilter         []string `json:"tag_filter,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
}
