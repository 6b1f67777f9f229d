package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// CardHandlers contains the HTTP handlers for card CRUD.
type CardHandlers struct {
	store storage.CardStore
}

// NewCardHandlers creates a CardHandlers instance.
func NewCardHandlers(store storage.CardStore) *CardHandlers {
	return &CardHandlers{store: store}
}

// ListCards handles GET /api/cards - list cards with pagination and filtering.
func (h *CardHandlers) ListCards(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Limit:     parseInt(r.URL.Query().Get("limit"), 20),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Tag:       r.URL.Query().Get("tag"),
		SourceID:  r.URL.Query().Get("source_id"),
	}
	opts.Normalize()

	cards, total, err := h.store.ListCards(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list cards", err)
		return
	}
	if cards == nil {
		cards = []*types.Card{}
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Items: cards,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	})
}

// createCardRequest is the body for POST /api/cards.
type createCardRequest struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	SourceID *string  `json:"source_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// CreateCard handles POST /api/cards.
func (h *CardHandlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Front == "" || req.Back == "" {
		respondError(w, http.StatusBadRequest, "front and back are required", nil)
		return
	}

	card := types.NewCard(req.Front, req.Back, req.SourceID)
	card.Tags = req.Tags

	if err := h.store.CreateCard(r.Context(), card); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid card", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create card", err)
		return
	}

	respondJSON(w, http.StatusCreated, card)
}

// GetCard handles GET /api/cards/{id}.
func (h *CardHandlers) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// updateCardRequest is the body for PATCH /api/cards/{id}. Only provided
// fields are changed.
type updateCardRequest struct {
	Front *string   `json:"front,omitempty"`
	Back  *string   `json:"back,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// UpdateCard handles PATCH /api/cards/{id}.
func (h *CardHandlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req updateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	card, err := h.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}

	if req.Front != nil {
		card.Front = *req.Front
	}
	if req.Back != nil {
		card.Back = *req.Back
	}
	if req.Tags != nil {
		card.Tags = *req.Tags
	}
	card.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateCard(r.Context(), card); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update card", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{id}.
func (h *CardHandlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCard(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete card", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GetStats handles GET /api/stats.
func (h *CardHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
