package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/scrypster/recall/internal/importer"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// ImportHandlers contains the Markdown deck import handler.
type ImportHandlers struct {
	store storage.CardStore
}

// NewImportHandlers creates an ImportHandlers instance.
func NewImportHandlers(store storage.CardStore) *ImportHandlers {
	return &ImportHandlers{store: store}
}

// importMarkdownRequest is the body for POST /api/import/markdown.
type importMarkdownRequest struct {
	Content string  `json:"content"`
	Title   *string `json:"title,omitempty"`
}

// ImportMarkdown handles POST /api/import/markdown - parse a Markdown deck
// and create its cards, linked to a new markdown source.
func (h *ImportHandlers) ImportMarkdown(w http.ResponseWriter, r *http.Request) {
	var req importMarkdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required", nil)
		return
	}

	deck, err := importer.ParseDeck([]byte(req.Content))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse deck", err)
		return
	}
	if len(deck.Cards) == 0 {
		respondError(w, http.StatusBadRequest, "no cards found in deck", nil)
		return
	}

	title := req.Title
	if title == nil && deck.Title != "" {
		title = &deck.Title
	}

	source := types.NewSource(types.SourceMarkdown, title, nil)
	if err := h.store.CreateSource(r.Context(), source); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create source", err)
		return
	}

	created := make([]*types.Card, 0, len(deck.Cards))
	for _, gc := range deck.Cards {
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
		"deck":      deck.Title,
		"cards":     created,
		"count":     len(created),
	})
}
