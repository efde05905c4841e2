package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/notevault/config"
	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

type fakeStore struct {
	matches      []vectorstore.Match
	records      []vectorstore.Record
	inserted     []vectorstore.Record
	deleted      []vectorstore.Filter
	deleteCount  int
	queryLimits  []int
	queryFilters []vectorstore.Filter
	insertFailAt int
	insertCalls  int
	queryErr     error
	count        int
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeStore) Insert(ctx context.Context, rec vectorstore.Record) (string, error) {
	f.insertCalls++
	if f.insertFailAt != 0 && f.insertCalls == f.insertFailAt {
		return "", &vectorstore.WriteError{Err: errors.New("insert rejected")}
	}
	f.inserted = append(f.inserted, rec)
	return fmt.Sprintf("vec-%d", len(f.inserted)), nil
}

func (f *fakeStore) DeleteMany(ctx context.Context, filter vectorstore.Filter) (int, error) {
	f.deleted = append(f.deleted, filter)
	return f.deleteCount, nil
}

func (f *fakeStore) QueryNearText(ctx context.Context, text string, limit int, filter vectorstore.Filter) ([]vectorstore.Match, error) {
	f.queryLimits = append(f.queryLimits, limit)
	f.queryFilters = append(f.queryFilters, filter)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeStore) Fetch(ctx context.Context, filter vectorstore.Filter, limit int) ([]vectorstore.Record, error) {
	return f.records, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return f.count, nil }

func (f *fakeStore) Close() error { return nil }

type fakeGenerator struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestEngine(t *testing.T, store *fakeStore, gen *fakeGenerator) *Engine {
	t.Helper()
	engine, err := NewEngine(store, gen,
		config.ChunkingConfig{MaxChunkSize: 1500, Overlap: 200},
		config.RetrievalConfig{SearchOverfetch: 3, AnswerOverfetch: 4, DistanceThreshold: 0.5, WindowQueryCap: 50},
	)
	require.NoError(t, err)
	return engine
}

func chunkMatch(docID string, ordinal int, distance float64) vectorstore.Match {
	return vectorstore.Match{
		Record: vectorstore.Record{
			DocumentID:      docID,
			Title:           "Title " + docID,
			Content:         "content of " + docID,
			Ordinal:         ordinal,
			TotalChunkCount: 4,
			Tags:            "go, testing",
			CreatedAt:       "2025-01-01T00:00:00Z",
			UpdatedAt:       "2025-01-02T00:00:00Z",
		},
		Distance: distance,
	}
}

func TestIndexSplitsAndReplaces(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, &fakeGenerator{})

	content := strings.Repeat("0123456789", 400)
	doc := models.Document{ID: "doc-1", Title: "Long One", Content: content, Tags: []string{"go", "db"}}

	id, err := engine.Index(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "vec-1", id)

	require.Len(t, store.deleted, 1)
	assert.Equal(t, "doc-1", store.deleted[0].DocumentID)

	require.Len(t, store.inserted, 3)
	for i, rec := range store.inserted {
		assert.Equal(t, "doc-1", rec.DocumentID)
		assert.Equal(t, "Long One", rec.Title)
		assert.Equal(t, i, rec.Ordinal)
		assert.Equal(t, 3, rec.TotalChunkCount)
		assert.Equal(t, "go, db", rec.Tags)
	}
	assert.Equal(t, content[:1500], store.inserted[0].Content)
}

func TestIndexTwiceIsStable(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, &fakeGenerator{})

	doc := models.Document{ID: "doc-1", Title: "T", Content: strings.Repeat("0123456789", 400)}

	_, err := engine.Index(context.Background(), doc)
	require.NoError(t, err)
	_, err = engine.Index(context.Background(), doc)
	require.NoError(t, err)

	assert.Len(t, store.deleted, 2)
	require.Len(t, store.inserted, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, store.inserted[i].Content, store.inserted[i+3].Content)
		assert.Equal(t, store.inserted[i].Ordinal, store.inserted[i+3].Ordinal)
	}
}

func TestIndexEmptyContent(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, &fakeGenerator{})

	id, err := engine.Index(context.Background(), models.Document{ID: "doc-1", Content: "   "})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.inserted)
}

func TestIndexSurfacesInsertFailure(t *testing.T) {
	store := &fakeStore{insertFailAt: 2}
	engine := newTestEngine(t, store, &fakeGenerator{})

	_, err := engine.Index(context.Background(), models.Document{
		ID:      "doc-1",
		Content: strings.Repeat("0123456789", 400),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1/3")

	var writeErr *vectorstore.WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestDeleteReportsWhetherChunksExisted(t *testing.T) {
	store := &fakeStore{deleteCount: 4}
	engine := newTestEngine(t, store, &fakeGenerator{})

	existed, err := engine.Delete(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.True(t, existed)

	store.deleteCount = 0
	existed, err = engine.Delete(context.Background(), "doc-2")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSearchDeduplicatesPerDocument(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{
		chunkMatch("a", 0, 0.10),
		chunkMatch("a", 1, 0.15),
		chunkMatch("b", 0, 0.20),
		chunkMatch("c", 0, 0.30),
	}}
	engine := newTestEngine(t, store, &fakeGenerator{})

	results, err := engine.Search(context.Background(), "query", 2, nil)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocumentID)
	assert.InDelta(t, 0.90, results[0].RelevanceScore, 1e-9)
	assert.Equal(t, "b", results[1].DocumentID)
	assert.InDelta(t, 0.80, results[1].RelevanceScore, 1e-9)
	assert.Equal(t, []string{"go", "testing"}, results[0].Tags)

	require.Len(t, store.queryLimits, 1)
	assert.Equal(t, 6, store.queryLimits[0])
}

func TestSearchForwardsTagFilter(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, &fakeGenerator{})

	_, err := engine.Search(context.Background(), "query", 5, []string{"go", "db"})
	require.NoError(t, err)

	require.Len(t, store.queryFilters, 1)
	assert.Equal(t, []string{"go", "db"}, store.queryFilters[0].AnyTags)
	assert.Empty(t, store.queryFilters[0].DocumentID)
}

func TestSearchWithinNotFound(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, &fakeGenerator{})

	_, err := engine.SearchWithin(context.Background(), "missing", "query", 2)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestSearchWithinRadiusZero(t *testing.T) {
	best := chunkMatch("doc-1", 1, 0.1)
	best.TotalChunkCount = 3
	store := &fakeStore{
		matches: []vectorstore.Match{best},
		records: []vectorstore.Record{
			{DocumentID: "doc-1", Ordinal: 2, TotalChunkCount: 3, Content: "c2"},
			{DocumentID: "doc-1", Ordinal: 0, TotalChunkCount: 3, Content: "c0"},
			{DocumentID: "doc-1", Ordinal: 1, TotalChunkCount: 3, Content: "c1"},
		},
	}
	engine := newTestEngine(t, store, &fakeGenerator{})

	excerpt, err := engine.SearchWithin(context.Background(), "doc-1", "query", 0)
	require.NoError(t, err)
	assert.Equal(t, "c1", excerpt.Text)
	assert.Equal(t, 1, excerpt.Start)
	assert.Equal(t, 1, excerpt.End)
	assert.Equal(t, 1, excerpt.Ordinal)
	assert.Equal(t, 3, excerpt.TotalChunkCount)
}

func TestSearchWithinLargeRadiusCoversWholeDocument(t *testing.T) {
	best := chunkMatch("doc-1", 1, 0.1)
	best.TotalChunkCount = 3
	store := &fakeStore{
		matches: []vectorstore.Match{best},
		records: []vectorstore.Record{
			{DocumentID: "doc-1", Ordinal: 1, TotalChunkCount: 3, Content: "c1"},
			{DocumentID: "doc-1", Ordinal: 0, TotalChunkCount: 3, Content: "c0"},
			{DocumentID: "doc-1", Ordinal: 2, TotalChunkCount: 3, Content: "c2"},
		},
	}
	engine := newTestEngine(t, store, &fakeGenerator{})

	excerpt, err := engine.SearchWithin(context.Background(), "doc-1", "query", 10)
	require.NoError(t, err)
	assert.Equal(t, "c0\n\nc1\n\nc2", excerpt.Text)
	assert.Equal(t, 0, excerpt.Start)
	assert.Equal(t, 2, excerpt.End)
}

func TestSearchWithinClampsWindowToBounds(t *testing.T) {
	best := chunkMatch("doc-1", 3, 0.1)
	best.TotalChunkCount = 4
	store := &fakeStore{
		matches: []vectorstore.Match{best},
		records: []vectorstore.Record{
			{DocumentID: "doc-1", Ordinal: 0, TotalChunkCount: 4, Content: "c0"},
			{DocumentID: "doc-1", Ordinal: 1, TotalChunkCount: 4, Content: "c1"},
			{DocumentID: "doc-1", Ordinal: 2, TotalChunkCount: 4, Content: "c2"},
			{DocumentID: "doc-1", Ordinal: 3, TotalChunkCount: 4, Content: "c3"},
		},
	}
	engine := newTestEngine(t, store, &fakeGenerator{})

	excerpt, err := engine.SearchWithin(context.Background(), "doc-1", "query", 1)
	require.NoError(t, err)
	assert.Equal(t, "c2\n\nc3", excerpt.Text)
	assert.Equal(t, 2, excerpt.Start)
	assert.Equal(t, 3, excerpt.End)
}

func TestAnswerWithoutMatchesSkipsGeneration(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{reply: "should never appear"}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "No relevant documents found to answer your question.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.Zero(t, gen.calls)
}

func TestAnswerFallsBackToTopMatches(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{
		chunkMatch("a", 0, 0.60),
		chunkMatch("b", 0, 0.70),
		chunkMatch("c", 0, 0.80),
		chunkMatch("d", 0, 0.90),
	}}
	gen := &fakeGenerator{reply: "answer"}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "answer", answer.Text)
	require.Len(t, answer.Sources, 3)
	assert.Equal(t, "a", answer.Sources[0].DocumentID)
	assert.Equal(t, "b", answer.Sources[1].DocumentID)
	assert.Equal(t, "c", answer.Sources[2].DocumentID)
	assert.Equal(t, 1, gen.calls)

	require.Len(t, store.queryLimits, 1)
	assert.Equal(t, 20, store.queryLimits[0])
}

func TestAnswerKeepsClosestChunkPerDocument(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{
		chunkMatch("a", 0, 0.40),
		chunkMatch("b", 1, 0.20),
		chunkMatch("a", 2, 0.10),
	}}
	gen := &fakeGenerator{reply: "answer"}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "a", answer.Sources[0].DocumentID)
	assert.Equal(t, "b", answer.Sources[1].DocumentID)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "**From: Title a** (chunk 2/4)")
	assert.NotContains(t, gen.prompts[0], "(chunk 0/4)")
}

func TestAnswerHonorsLimit(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{
		chunkMatch("a", 0, 0.10),
		chunkMatch("b", 0, 0.20),
		chunkMatch("c", 0, 0.30),
	}}
	gen := &fakeGenerator{reply: "answer"}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 1, nil, "")
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a", answer.Sources[0].DocumentID)
}

func TestAnswerGenerationFailureKeepsSources(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{chunkMatch("a", 0, 0.10)}}
	gen := &fakeGenerator{err: errors.New("model offline")}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "I encountered an error while generating a response.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a", answer.Sources[0].DocumentID)
}

func TestAnswerEmptyGenerationGetsFixedText(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{chunkMatch("a", 0, 0.10)}}
	gen := &fakeGenerator{reply: ""}
	engine := newTestEngine(t, store, gen)

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "I couldn't generate a response based on your documents.", answer.Text)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	store := &fakeStore{queryErr: &vectorstore.QueryError{Err: errors.New("store down")}}
	gen := &fakeGenerator{}
	engine := newTestEngine(t, store, gen)

	_, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.Error(t, err)

	var queryErr *vectorstore.QueryError
	assert.ErrorAs(t, err, &queryErr)
	assert.Zero(t, gen.calls)
}

func TestAnswerPromptLayout(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{chunkMatch("a", 0, 0.10)}}
	gen := &fakeGenerator{reply: "answer"}
	engine := newTestEngine(t, store, gen)

	_, err := engine.Answer(context.Background(), "what is go?", 5, nil, "")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "The user has asked the following question:\n\n\"what is go?\"")
	assert.Contains(t, prompt, "---\n**From: Title a** (chunk 0/4)\ncontent of a\n---")
	assert.Contains(t, prompt, "Based on the excerpts above, provide")
	assert.NotContains(t, prompt, "IMPORTANT - Additional Context Provided:")
}

func TestAnswerPromptWithAdditionalContext(t *testing.T) {
	store := &fakeStore{matches: []vectorstore.Match{chunkMatch("a", 0, 0.10)}}
	gen := &fakeGenerator{reply: "answer"}
	engine := newTestEngine(t, store, gen)

	_, err := engine.Answer(context.Background(), "what is go?", 5, nil, "prefer the 2024 numbers")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "IMPORTANT - Additional Context Provided:\n---\nprefer the 2024 numbers\n---")
	assert.Contains(t, prompt, "Based on the excerpts above and the additional context, provide")
}

func TestAnswerSourcePreviews(t *testing.T) {
	long := chunkMatch("a", 0, 0.10)
	long.Content = strings.Repeat("x", 250)
	short := chunkMatch("b", 0, 0.20)
	short.Content = "short body"
	store := &fakeStore{matches: []vectorstore.Match{long, short}}
	engine := newTestEngine(t, store, &fakeGenerator{reply: "answer"})

	answer, err := engine.Answer(context.Background(), "query", 5, nil, "")
	require.NoError(t, err)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, strings.Repeat("x", 200)+"...", answer.Sources[0].ContentPreview)
	assert.Equal(t, "short body", answer.Sources[1].ContentPreview)
}
