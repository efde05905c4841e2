package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/storage"
)

// Chat runs retrieval-augmented conversations. Each exchange is persisted
// as a user message and an assistant message under one session id.
type Chat struct {
	store  *storage.ChatStore
	engine *Engine
}

func NewChat(store *storage.ChatStore, engine *Engine) *Chat {
	return &Chat{store: store, engine: engine}
}

// Ask answers one question against the document corpus. A missing session
// id starts a new session. The assistant message records which documents
// the answer drew on.
func (s *Chat) Ask(ctx context.Context, req models.ChatQueryRequest) (*models.ChatQueryResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	userMsg := &models.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   req.Message,
	}
	if err := s.store.Append(userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	answer, err := s.engine.Answer(ctx, req.Message, req.Limit, req.TagFilter, req.AdditionalContext)
	if err != nil {
		return nil, err
	}

	contextIDs := make([]string, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		contextIDs = append(contextIDs, src.DocumentID)
	}

	assistantMsg := &models.ChatMessage{
		SessionID:          sessionID,
		Role:               "assistant",
		Content:            answer.Text,
		ContextDocumentIDs: contextIDs,
	}
	if err := s.store.Append(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	return &models.ChatQueryResponse{
		Message:          answer.Text,
		SessionID:        sessionID,
		ContextDocuments: answer.Sources,
		CreatedAt:        assistantMsg.CreatedAt,
	}, nil
}

// History returns the oldest-first messages of one session.
func (s *Chat) History(sessionID string, limit int) ([]models.ChatMessage, error) {
	return s.store.History(sessionID, limit)
}

// NewSession mints a fresh session id without storing anything.
func (s *Chat) NewSession() string {
	return uuid.New().String()
}
