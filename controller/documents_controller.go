package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/services"
	"github/itish2003/notevault/storage"
)

// DocumentsController handles the HTTP requests for the document API. It
// depends on the Documents service and the retrieval engine for the actual
// business logic.
type DocumentsController struct {
	documents *services.Documents
	engine    *services.Engine
}

// NewDocumentsController creates a new DocumentsController. This is called
// from main.go to inject the service dependencies.
func NewDocumentsController(documents *services.Documents, engine *services.Engine) *DocumentsController {
	return &DocumentsController{
		documents: documents,
		engine:    engine,
	}
}

// CreateDocument is the Gin handler for POST /api/v1/documents.
func (c *DocumentsController) CreateDocument(ctx *gin.Context) {
	var req models.CreateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Title == "" || req.Content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	doc, err := c.documents.Create(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}
	ctx.JSON(http.StatusCreated, doc)
}

// ListDocuments is the Gin handler for GET /api/v1/documents. It supports
// page and limit query parameters plus a comma-separated tags filter.
func (c *DocumentsController) ListDocuments(ctx *gin.Context) {
	page, ok := intQuery(ctx, "page", 1, 1, 0)
	if !ok {
		return
	}
	limit, ok := intQuery(ctx, "limit", 50, 1, 100)
	if !ok {
		return
	}

	docs, total, err := c.documents.List(page, limit, csvQuery(ctx, "tags"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}
	ctx.JSON(http.StatusOK, models.DocumentListResponse{
		Documents: docs,
		Total:     total,
		Page:      page,
		Limit:     limit,
	})
}

// GetDocument is the Gin handler for GET /api/v1/documents/:id.
func (c *DocumentsController) GetDocument(ctx *gin.Context) {
	doc, err := c.documents.Get(ctx.Param("id"))
	if errors.Is(err, services.ErrDocumentNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve document"})
		return
	}
	ctx.JSON(http.StatusOK, doc)
}

// UpdateDocument is the Gin handler for PUT /api/v1/documents/:id. A stale
// version in the request is answered with 409 Conflict.
func (c *DocumentsController) UpdateDocument(ctx *gin.Context) {
	var req models.UpdateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Title == "" || req.Content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	doc, err := c.documents.Update(ctx.Request.Context(), ctx.Param("id"), req)
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, storage.ErrVersionConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Document was modified by another request; reload and retry"})
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document"})
	default:
		ctx.JSON(http.StatusOK, doc)
	}
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:id.
func (c *DocumentsController) DeleteDocument(ctx *gin.Context) {
	err := c.documents.Delete(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, services.ErrDocumentNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListTags is the Gin handler for GET /api/v1/documents/tags.
func (c *DocumentsController) ListTags(ctx *gin.Context) {
	tags, err := c.documents.TagCounts()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tags"})
		return
	}
	ctx.JSON(http.StatusOK, models.TagListResponse{Tags: tags})
}

// SemanticSearch is the Gin handler for GET /api/v1/documents/search/semantic.
func (c *DocumentsController) SemanticSearch(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}
	limit, ok := intQuery(ctx, "limit", 5, 1, 20)
	if !ok {
		return
	}

	results, err := c.engine.Search(ctx.Request.Context(), query, limit, csvQuery(ctx, "tags"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Semantic search failed"})
		return
	}
	ctx.JSON(http.StatusOK, models.SemanticSearchResponse{
		Results: results,
		Query:   query,
		Count:   len(results),
	})
}

// SearchWithinDocument is the Gin handler for GET /api/v1/documents/:id/search.
// It returns the best-matching excerpt with surrounding chunks.
func (c *DocumentsController) SearchWithinDocument(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}
	window, ok := intQuery(ctx, "window", 2, 1, 5)
	if !ok {
		return
	}

	excerpt, err := c.engine.SearchWithin(ctx.Request.Context(), ctx.Param("id"), query, window)
	if errors.Is(err, services.ErrDocumentNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Search within document failed"})
		return
	}
	ctx.JSON(http.StatusOK, models.ExcerptResponse{
		Excerpt:         excerpt.Text,
		Title:           excerpt.Title,
		ChunkRange:      strconv.Itoa(excerpt.Start) + "-" + strconv.Itoa(excerpt.End),
		TotalChunkCount: excerpt.TotalChunkCount,
		Ordinal:         excerpt.Ordinal,
	})
}

// Reindex is the Gin handler for POST /api/v1/documents/reindex. It
// rebuilds the chunk records of every live document.
func (c *DocumentsController) Reindex(ctx *gin.Context) {
	resp, err := c.documents.ReindexAll(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Reindex failed"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Stats is the Gin handler for GET /api/v1/stats.
func (c *DocumentsController) Stats(ctx *gin.Context) {
	stats, err := c.documents.Stats(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect stats"})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// intQuery parses an integer query parameter with a default and an
// inclusive range; max 0 means no upper bound. On a bad value it writes
// the 400 response itself and reports false.
func intQuery(ctx *gin.Context, name string, def, min, max int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || (max > 0 && value > max) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for query parameter '" + name + "'"})
		return 0, false
	}
	return value, true
}

// csvQuery splits a comma-separated query parameter into trimmed,
// non-empty values.
func csvQuery(ctx *gin.Context, name string) []string {
	raw := ctx.Query(name)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
