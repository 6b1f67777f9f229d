package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// stagedBatch holds generated cards awaiting user confirmation.
type stagedBatch struct {
	ID         string
	SourceType types.SourceType
	Title      *string
	ContentHash string
	Cards      []types.GeneratedCard
	CreatedAt  time.Time
}

// stagedBatchTTL is how long an unconfirmed batch is kept.
const stagedBatchTTL = 30 * time.Minute

// IngestHandlers stages model-generated cards until the user confirms them.
type IngestHandlers struct {
	store storage.CardStore
	llm   ProviderManager

	mu      sync.Mutex
	staged  map[string]*stagedBatch
	maxCards int
}

// NewIngestHandlers creates an IngestHandlers instance.
func NewIngestHandlers(store storage.CardStore, manager ProviderManager) *IngestHandlers {
	return &IngestHandlers{
		store:    store,
		llm:      manager,
		staged:   make(map[string]*stagedBatch),
		maxCards: 20,
	}
}

// ingestTextRequest is the body for POST /api/ingest/text.
type ingestTextRequest struct {
	Content  string  `json:"content"`
	Title    *string `json:"title,omitempty"`
	MaxCards int     `json:"max_cards,omitempty"`
}

// IngestText handles POST /api/ingest/text - generate cards from raw text
// and stage them for confirmation.
func (h *IngestHandlers) IngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required", nil)
		return
	}

	maxCards := req.MaxCards
	if maxCards < 1 || maxCards > h.maxCards {
		maxCards = h.maxCards
	}

	if !h.llm.HasAvailableProvider() {
		respondError(w, http.StatusServiceUnavailable, "no model provider available", nil)
		return
	}

	cards, err := h.llm.GenerateCards(r.Context(), llm.GenerationRequest{
		Content:  req.Content,
		MaxCards: maxCards,
	})
	if err != nil {
		status := http.StatusBadGateway
		if pe, ok := llm.AsProviderError(err); ok {
			switch pe.Kind {
			case llm.KindRateLimited:
				status = http.StatusTooManyRequests
			case llm.KindUnavailable:
				status = http.StatusServiceUnavailable
			}
		}
		respondError(w, status, "card generation failed", err)
		return
	}

	batch := &stagedBatch{
		ID:          uuid.New().String(),
		SourceType:  types.SourceText,
		Title:       req.Title,
		ContentHash: fmt.Sprintf("%x", sha256.Sum256([]byte(req.Content))),
		Cards:       cards,
		CreatedAt:   time.Now().UTC(),
	}

	h.mu.Lock()
	h.evictExpiredLocked()
	h.staged[batch.ID] = batch
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"staging_id": batch.ID,
		"cards":      cards,
		"count":      len(cards),
	})
}

// confirmRequest is the body for POST /api/ingest/confirm. Indices selects
// a subset of the staged cards; empty means all of them.
type confirmRequest struct {
	StagingID string `json:"staging_id"`
	Indices   []int  `json:"indices,omitempty"`
}

// ConfirmIngest handles POST /api/ingest/confirm - persist staged cards.
func (h *IngestHandlers) ConfirmIngest(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.StagingID == "" {
		respondError(w, http.StatusBadRequest, "staging_id is required", nil)
		return
	}

	h.mu.Lock()
	batch, ok := h.staged[req.StagingID]
	if ok {
		delete(h.staged, req.StagingID)
	}
	h.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "staged batch not found or expired", nil)
		return
	}

	selected := batch.Cards
	if len(req.Indices) > 0 {
		selected = selected[:0:0]
		for _, i := range req.Indices {
			if i < 0 || i >= len(batch.Cards) {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("index %d out of range", i), nil)
				return
			}
			selected = append(selected, batch.Cards[i])
		}
	}

	source := types.NewSource(batch.SourceType, batch.Title, nil)
	source.ContentHash = &batch.ContentHash
	if err := h.store.CreateSource(r.Context(), source); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create source", err)
		return
	}

	created := make([]*types.Card, 0, len(selected))
	for _, gc := range selected {
		card := types.NewCard(gc.Front, gc.Back, &source.ID)
		card.Tags = gc.Tags
		if err := h.store.CreateCard(r.Context(), card); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to create card", err)
			return
		}
		created = append(created, card)
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"source_id": source.ID,
		"cards":     created,
		"count":     len(created),
	})
}

// evictExpiredLocked drops staged batches past their TTL. Caller holds mu.
func (h *IngestHandlers) evictExpiredLocked() {
	cutoff := time.Now().UTC().Add(-stagedBatchTTL)
	for id, batch := range h.staged {
		if batch.CreatedAt.Before(cutoff) {
			delete(h.staged, id)
		}
	}
}
