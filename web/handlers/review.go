package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/scheduler"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// ReviewHandlers contains the HTTP handlers for the REST review flow.
// The WebSocket session is the richer path; these endpoints serve clients
// that drive reviews request by request.
type ReviewHandlers struct {
	store        storage.CardStore
	llm          ProviderManager
	defaultLimit int
}

// NewReviewHandlers creates a ReviewHandlers instance.
func NewReviewHandlers(store storage.CardStore, manager ProviderManager, defaultLimit int) *ReviewHandlers {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &ReviewHandlers{store: store, llm: manager, defaultLimit: defaultLimit}
}

// NextCards handles GET /api/review/next - the due queue, most overdue first.
func (h *ReviewHandlers) NextCards(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), h.defaultLimit)

	cards, err := h.store.LoadDueCards(r.Context(), limit, time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load due cards", err)
		return
	}
	if cards == nil {
		cards = []*types.Card{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cards": cards,
		"count": len(cards),
	})
}

// submitReviewRequest is the body for POST /api/review/submit.
type submitReviewRequest struct {
	CardID     string  `json:"card_id"`
	Rating     string  `json:"rating"`
	UserAnswer *string `json:"user_answer,omitempty"`
}

// SubmitReview handles POST /api/review/submit - rate a card and reschedule.
func (h *ReviewHandlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.CardID == "" {
		respondError(w, http.StatusBadRequest, "card_id is required", nil)
		return
	}

	card, err := h.store.GetCard(r.Context(), req.CardID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}

	rating := types.ParseRating(req.Rating)
	now := time.Now().UTC()
	next := scheduler.Schedule(card.Memory, rating, now)

	if err := h.store.SaveMemoryState(r.Context(), card.ID, next); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save review", err)
		return
	}

	review := types.NewReview(card.ID, rating, req.UserAnswer)
	review.ReviewedAt = now
	if err := h.store.AppendReview(r.Context(), review); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to record review", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"card_id":       card.ID,
		"rating":        rating.String(),
		"interval_days": next.IntervalDays,
		"next_review":   next.NextReview,
		"memory":        next,
	})
}

// evaluateRequest is the body for POST /api/review/evaluate.
type evaluateRequest struct {
	CardID string `json:"card_id"`
	Answer string `json:"answer"`
}

// EvaluateAnswer handles POST /api/review/evaluate - grade a free-text
// answer against the card's back using the provider manager.
func (h *ReviewHandlers) EvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.CardID == "" || req.Answer == "" {
		respondError(w, http.StatusBadRequest, "card_id and answer are required", nil)
		return
	}

	card, err := h.store.GetCard(r.Context(), req.CardID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}

	if !h.llm.HasAvailableProvider() {
		respondError(w, http.StatusServiceUnavailable, "no model provider available", nil)
		return
	}

	eval, err := h.llm.EvaluateAnswer(r.Context(), llm.EvaluationRequest{
		CardFront:  card.Front,
		CardBack:   card.Back,
		UserAnswer: req.Answer,
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
		respondError(w, status, "evaluation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, eval)
}
