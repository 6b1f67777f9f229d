package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/pkg/types"
)

// stubManager is a scriptable ProviderManager for handler tests.
type stubManager struct {
	available bool
	eval      *llm.Evaluation
	cards     []types.GeneratedCard
	err       error
}

func (s *stubManager) HasAvailableProvider() bool { return s.available }

func (s *stubManager) AvailableProviders() []string {
	if !s.available {
		return nil
	}
	return []string{"gemini"}
}

func (s *stubManager) EvaluateAnswer(ctx context.Context, req llm.EvaluationRequest) (*llm.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.eval, nil
}

func (s *stubManager) GenerateCards(ctx context.Context, req llm.GenerationRequest) ([]types.GeneratedCard, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cards, nil
}

func TestNextCardsReturnsDueQueue(t *testing.T) {
	store := newTestStore(t)
	h := NewReviewHandlers(store, &stubManager{}, 10)
	now := time.Now().UTC()

	due := types.NewCard("due", "a", nil)
	due.Memory.NextReview = now.Add(-time.Hour)
	future := types.NewCard("future", "b", nil)
	future.Memory.NextReview = now.Add(24 * time.Hour)

	require.NoError(t, store.CreateCard(context.Background(), due))
	require.NoError(t, store.CreateCard(context.Background(), future))

	rec := doJSON(t, h.NextCards, http.MethodGet, "/api/review/next", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cards []types.Card `json:"cards"`
		Count int          `json:"count"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, due.ID, resp.Cards[0].ID)
}

func TestSubmitReviewReschedulesCard(t *testing.T) {
	store := newTestStore(t)
	h := NewReviewHandlers(store, &stubManager{}, 10)

	card := types.NewCard("front", "back", nil)
	require.NoError(t, store.CreateCard(context.Background(), card))

	rec := doJSON(t, h.SubmitReview, http.MethodPost, "/api/review/submit", map[string]string{
		"card_id": card.ID,
		"rating":  "good",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		IntervalDays int       `json:"interval_days"`
		NextReview   time.Time `json:"next_review"`
	}
	decodeBody(t, rec, &resp)
	assert.GreaterOrEqual(t, resp.IntervalDays, 1)

	got, err := store.GetCard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Memory.Repetitions)

	reviews, err := store.ListReviews(context.Background(), card.ID, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, int(types.RatingGood), reviews[0].Rating)
}

func TestSubmitReviewUnknownCard(t *testing.T) {
	h := NewReviewHandlers(newTestStore(t), &stubManager{}, 10)

	rec := doJSON(t, h.SubmitReview, http.MethodPost, "/api/review/submit", map[string]string{
		"card_id": "missing",
		"rating":  "good",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateAnswer(t *testing.T) {
	store := newTestStore(t)
	manager := &stubManager{
		available: true,
		eval: &llm.Evaluation{
			IsCorrect:       true,
			Score:           0.9,
			Feedback:        "Correct",
			SuggestedRating: types.RatingGood,
		},
	}
	h := NewReviewHandlers(store, manager, 10)

	card := types.NewCard("front", "back", nil)
	require.NoError(t, store.CreateCard(context.Background(), card))

	rec := doJSON(t, h.EvaluateAnswer, http.MethodPost, "/api/review/evaluate", map[string]string{
		"card_id": card.ID,
		"answer":  "back",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var eval llm.Evaluation
	decodeBody(t, rec, &eval)
	assert.True(t, eval.IsCorrect)
	assert.Equal(t, "Correct", eval.Feedback)
}

func TestEvaluateAnswerNoProvider(t *testing.T) {
	store := newTestStore(t)
	h := NewReviewHandlers(store, &stubManager{available: false}, 10)

	card := types.NewCard("front", "back", nil)
	require.NoError(t, store.CreateCard(context.Background(), card))

	rec := doJSON(t, h.EvaluateAnswer, http.MethodPost, "/api/review/evaluate", map[string]string{
		"card_id": card.ID,
		"answer":  "x",
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluateAnswerRateLimitedMapsTo429(t *testing.T) {
	store := newTestStore(t)
	h := NewReviewHandlers(store, &stubManager{
		available: true,
		err:       llm.RateLimited(60 * time.Second),
	}, 10)

	card := types.NewCard("front", "back", nil)
	require.NoError(t, store.CreateCard(context.Background(), card))

	rec := doJSON(t, h.EvaluateAnswer, http.MethodPost, "/api/review/evaluate", map[string]string{
		"card_id": card.ID,
		"answer":  "x",
	}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
