package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

func stagedCards() []types.GeneratedCard {
	return []types.GeneratedCard{
		{Front: "Q1", Back: "A1", Tags: []string{"t1"}},
		{Front: "Q2", Back: "A2"},
		{Front: "Q3", Back: "A3"},
	}
}

func TestIngestTextStagesCards(t *testing.T) {
	h := NewIngestHandlers(newTestStore(t), &stubManager{available: true, cards: stagedCards()})

	rec := doJSON(t, h.IngestText, http.MethodPost, "/api/ingest/text", map[string]interface{}{
		"content": "some study notes",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		StagingID string                `json:"staging_id"`
		Cards     []types.GeneratedCard `json:"cards"`
		Count     int                   `json:"count"`
	}
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.StagingID)
	assert.Equal(t, 3, resp.Count)
}

func TestIngestTextNoProvider(t *testing.T) {
	h := NewIngestHandlers(newTestStore(t), &stubManager{available: false})

	rec := doJSON(t, h.IngestText, http.MethodPost, "/api/ingest/text", map[string]interface{}{
		"content": "notes",
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestConfirmIngestCreatesSourceAndCards(t *testing.T) {
	store := newTestStore(t)
	h := NewIngestHandlers(store, &stubManager{available: true, cards: stagedCards()})

	rec := doJSON(t, h.IngestText, http.MethodPost, "/api/ingest/text", map[string]interface{}{
		"content": "notes",
		"title":   "Biology",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var staged struct {
		StagingID string `json:"staging_id"`
	}
	decodeBody(t, rec, &staged)

	rec = doJSON(t, h.ConfirmIngest, http.MethodPost, "/api/ingest/confirm", map[string]interface{}{
		"staging_id": staged.StagingID,
		"indices":    []int{0, 2},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var confirmed struct {
		SourceID string       `json:"source_id"`
		Cards    []types.Card `json:"cards"`
		Count    int          `json:"count"`
	}
	decodeBody(t, rec, &confirmed)
	assert.Equal(t, 2, confirmed.Count)
	assert.Equal(t, "Q1", confirmed.Cards[0].Front)
	assert.Equal(t, "Q3", confirmed.Cards[1].Front)

	source, err := store.GetSource(context.Background(), confirmed.SourceID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceText, source.Type)
	require.NotNil(t, source.Title)
	assert.Equal(t, "Biology", *source.Title)
	require.NotNil(t, source.ContentHash)

	cards, total, err := store.ListCards(context.Background(), storage.ListOptions{SourceID: confirmed.SourceID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, cards, 2)
}

func TestConfirmIngestConsumesBatch(t *testing.T) {
	h := NewIngestHandlers(newTestStore(t), &stubManager{available: true, cards: stagedCards()})

	rec := doJSON(t, h.IngestText, http.MethodPost, "/api/ingest/text", map[string]interface{}{
		"content": "notes",
	}, nil)
	var staged struct {
		StagingID string `json:"staging_id"`
	}
	decodeBody(t, rec, &staged)

	rec = doJSON(t, h.ConfirmIngest, http.MethodPost, "/api/ingest/confirm", map[string]interface{}{
		"staging_id": staged.StagingID,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The batch is gone after the first confirm.
	rec = doJSON(t, h.ConfirmIngest, http.MethodPost, "/api/ingest/confirm", map[string]interface{}{
		"staging_id": staged.StagingID,
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmIngestIndexOutOfRange(t *testing.T) {
	h := NewIngestHandlers(newTestStore(t), &stubManager{available: true, cards: stagedCards()})

	rec := doJSON(t, h.IngestText, http.MethodPost, "/api/ingest/text", map[string]interface{}{
		"content": "notes",
	}, nil)
	var staged struct {
		StagingID string `json:"staging_id"`
	}
	decodeBody(t, rec, &staged)

	rec = doJSON(t, h.ConfirmIngest, http.MethodPost, "/api/ingest/confirm", map[string]interface{}{
		"staging_id": staged.StagingID,
		"indices":    []int{7},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportMarkdownDeck(t *testing.T) {
	store := newTestStore(t)
	h := NewImportHandlers(store)

	deck := "---\ndeck: Capitals\ntags: [geography]\n---\nQ: Capital of France?\nA: Paris\n\nQ: Capital of Spain?\nA: Madrid\n"

	rec := doJSON(t, h.ImportMarkdown, http.MethodPost, "/api/import/markdown", map[string]string{
		"content": deck,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		SourceID string       `json:"source_id"`
		Deck     string       `json:"deck"`
		Count    int          `json:"count"`
		Cards    []types.Card `json:"cards"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Capitals", resp.Deck)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"geography"}, resp.Cards[0].Tags)

	source, err := store.GetSource(context.Background(), resp.SourceID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceMarkdown, source.Type)
}

func TestImportMarkdownEmptyDeck(t *testing.T) {
	h := NewImportHandlers(newTestStore(t))

	rec := doJSON(t, h.ImportMarkdown, http.MethodPost, "/api/import/markdown", map[string]string{
		"content": "no cards here",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProviders(t *testing.T) {
	h := NewLLMHandlers(&stubManager{available: true})

	rec := doJSON(t, h.ListProviders, http.MethodGet, "/api/llm/providers", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Providers []string `json:"providers"`
		Available bool     `json:"available"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Available)
	assert.Equal(t, []string{"gemini"}, resp.Providers)
}
