package controller

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/vectorstore"
)

func TestChatQueryRoundTrip(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Match{
		{
			Record: vectorstore.Record{
				DocumentID:      "doc-1",
				Title:           "Title",
				Content:         "relevant chunk",
				TotalChunkCount: 1,
			},
			Distance: 0.1,
		},
	}}
	router := newTestRouter(t, store, &stubGenerator{reply: "the generated answer"})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat/query", models.ChatQueryRequest{
		Message: "what does the doc say?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.ChatQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the generated answer", resp.Message)
	assert.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.ContextDocuments, 1)
	assert.Equal(t, "doc-1", resp.ContextDocuments[0].DocumentID)

	historyRec := doRequest(t, router, http.MethodGet, "/api/v1/chat/history?session_id="+resp.SessionID, nil)
	require.Equal(t, http.StatusOK, historyRec.Code)

	var history models.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(historyRec.Body.Bytes(), &history))
	assert.Equal(t, 2, history.Total)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "assistant", history.Messages[1].Role)
}

func TestChatQueryValidation(t *testing.T) {
	router := newTestRouter(t, &stubStore{}, &stubGenerator{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat/query", models.ChatQueryRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/chat/query", models.ChatQueryRequest{
		Message: "hi",
		Limit:   99,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHistoryRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubStore{}, &stubGenerator{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/chat/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatNewSession(t *testing.T) {
	router := newTestRouter(t, &stubStore{}, &stubGenerator{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SessionCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}
