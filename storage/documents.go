package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github/itish2003/notevault/models"
)

// DocumentStore provides CRUD operations for documents. Deletes are soft:
// rows keep their history under deleted_at and read paths skip them.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new document store.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = "id, title, content, tags, version, vector_id, source_path, content_hash, created_at, updated_at, deleted_at"

// Create inserts a new document. A missing ID is generated; version starts
// at 1 and both timestamps are set to now.
func (s *DocumentStore) Create(doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.sqlDB.Exec(
		`INSERT INTO documents (id, title, content, tags, version, vector_id, source_path, content_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, tagsJSON, doc.Version,
		nullable(doc.VectorID), nullable(doc.SourcePath), nullable(doc.ContentHash),
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get returns a live document by ID.
func (s *DocumentStore) Get(id string) (*models.Document, error) {
	row := s.db.sqlDB.QueryRow(
		"SELECT "+documentColumns+" FROM documents WHERE id = ? AND deleted_at IS NULL", id,
	)
	return scanDocument(row)
}

// GetBySourcePath returns the live document imported from the given file.
func (s *DocumentStore) GetBySourcePath(path string) (*models.Document, error) {
	row := s.db.sqlDB.QueryRow(
		"SELECT "+documentColumns+" FROM documents WHERE source_path = ? AND deleted_at IS NULL", path,
	)
	return scanDocument(row)
}

// List returns one page of live documents, newest-updated first, plus the
// total count for the same filter. When tags are given, a document must
// carry every one of them.
func (s *DocumentStore) List(page, limit int, tags []string) ([]models.Document, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	where := "deleted_at IS NULL"
	var args []interface{}
	for _, tag := range tags {
		where += " AND tags LIKE ?"
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := s.db.sqlDB.QueryRow("SELECT COUNT(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := "SELECT " + documentColumns + " FROM documents WHERE " + where +
		" ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.sqlDB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, total, nil
}

// AllLive returns every live document, for bulk re-indexing.
func (s *DocumentStore) AllLive() ([]models.Document, error) {
	rows, err := s.db.sqlDB.Query(
		"SELECT " + documentColumns + " FROM documents WHERE deleted_at IS NULL ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// AllImported returns every live document that originated from a file on
// disk, for syncing the import directory.
func (s *DocumentStore) AllImported() ([]models.Document, error) {
	rows, err := s.db.sqlDB.Query(
		"SELECT " + documentColumns + " FROM documents WHERE source_path IS NOT NULL AND deleted_at IS NULL",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load imported documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate imported documents: %w", err)
	}
	return docs, nil
}

// Update rewrites a live document's content fields after an optimistic
// version check and bumps its version.
func (s *DocumentStore) Update(id, title, content string, tags []string, expectedVersion int) (*models.Document, error) {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	res, err := s.db.sqlDB.Exec(
		`UPDATE documents
		 SET title = ?, content = ?, tags = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL AND version = ?`,
		title, content, tagsJSON, formatTime(time.Now().UTC()), id, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing document.
		if _, err := s.Get(id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return s.Get(id)
}

// SetVectorID records the vector store identifier of a document's first
// chunk after indexing.
func (s *DocumentStore) SetVectorID(id, vectorID string) error {
	_, err := s.db.sqlDB.Exec("UPDATE documents SET vector_id = ? WHERE id = ?", nullable(vectorID), id)
	if err != nil {
		return fmt.Errorf("failed to set vector id: %w", err)
	}
	return nil
}

// SetContentHash records the hash of the imported file a document mirrors.
func (s *DocumentStore) SetContentHash(id, hash string) error {
	_, err := s.db.sqlDB.Exec("UPDATE documents SET content_hash = ? WHERE id = ?", nullable(hash), id)
	if err != nil {
		return fmt.Errorf("failed to set content hash: %w", err)
	}
	return nil
}

// SoftDelete marks a live document deleted.
func (s *DocumentStore) SoftDelete(id string) error {
	res, err := s.db.sqlDB.Exec(
		"UPDATE documents SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountLive returns the number of live documents.
func (s *DocumentStore) CountLive() (int, error) {
	var count int
	if err := s.db.sqlDB.QueryRow("SELECT COUNT(*) FROM documents WHERE deleted_at IS NULL").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// TagCounts returns every tag on live documents with its usage count,
// sorted by tag name.
func (s *DocumentStore) TagCounts() ([]models.TagCount, error) {
	rows, err := s.db.sqlDB.Query("SELECT tags FROM documents WHERE deleted_at IS NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tagsJSON string
		if err := rows.Scan(&tagsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			counts[tag]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	result := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Tag < result[j].Tag })
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row *sql.Row) (*models.Document, error) {
	doc, err := scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var tagsJSON string
	var vectorID, sourcePath, contentHash, deletedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &tagsJSON, &doc.Version,
		&vectorID, &sourcePath, &contentHash, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		doc.Tags = nil
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	doc.VectorID = vectorID.String
	doc.SourcePath = sourcePath.String
	doc.ContentHash = contentHash.String
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	if deletedAt.Valid {
		t := parseTime(deletedAt.String)
		doc.DeletedAt = &t
	}
	return &doc, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
