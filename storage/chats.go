package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github/itish2003/notevault/models"
)

// ChatStore persists conversation turns grouped by session.
type ChatStore struct {
	db *DB
}

// NewChatStore creates a new chat store.
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{db: db}
}

// Append stores one message. A missing ID is generated and the creation
// time is set to now.
func (s *ChatStore) Append(msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	idsJSON, err := json.Marshal(contextIDs(msg.ContextDocumentIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal context ids: %w", err)
	}

	_, err = s.db.sqlDB.Exec(
		`INSERT INTO chat_messages (id, session_id, role, content, context_document_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, string(idsJSON), formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// History returns up to limit messages of a session in chronological order.
func (s *ChatStore) History(sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.sqlDB.Query(
		`SELECT id, session_id, role, content, context_document_ids, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0, limit)
	for rows.Next() {
		var msg models.ChatMessage
		var idsJSON, createdAt string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &idsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &msg.ContextDocumentIDs); err != nil {
			msg.ContextDocumentIDs = []string{}
		}
		if msg.ContextDocumentIDs == nil {
			msg.ContextDocumentIDs = []string{}
		}
		msg.CreatedAt = parseTime(createdAt)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat history: %w", err)
	}
	return messages, nil
}

func contextIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
