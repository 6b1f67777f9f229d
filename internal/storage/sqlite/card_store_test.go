package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *CardStore {
	t.Helper()
	store, err := NewCardStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetCard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	card := types.NewCard("What is the capital of France?", "Paris", nil)
	card.Tags = []string{"geography", "europe"}
	card.CreatedAt = now
	card.UpdatedAt = now
	card.Memory.NextReview = now

	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	got, err := store.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() failed: %v", err)
	}

	if got.Front != card.Front {
		t.Errorf("Front: got %q, want %q", got.Front, card.Front)
	}
	if got.Back != card.Back {
		t.Errorf("Back: got %q, want %q", got.Back, card.Back)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "geography" {
		t.Errorf("Tags: got %v, want %v", got.Tags, card.Tags)
	}
	if got.Memory.Difficulty != 5.0 {
		t.Errorf("Difficulty: got %v, want 5.0", got.Memory.Difficulty)
	}
	if got.Memory.LastReview != nil {
		t.Errorf("LastReview: got %v, want nil for a new card", got.Memory.LastReview)
	}
}

func TestGetCardNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCard(context.Background(), "missing-id")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCardValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateCard(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil card: expected ErrInvalidInput, got %v", err)
	}

	card := types.NewCard("", "back", nil)
	if err := store.CreateCard(ctx, card); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty front: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateCard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := types.NewCard("front", "back", nil)
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	card.Back = "revised back"
	card.Tags = []string{"edited"}
	if err := store.UpdateCard(ctx, card); err != nil {
		t.Fatalf("UpdateCard() failed: %v", err)
	}

	got, err := store.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() failed: %v", err)
	}
	if got.Back != "revised back" {
		t.Errorf("Back: got %q, want %q", got.Back, "revised back")
	}
	if len(got.Tags) != 1 || got.Tags[0] != "edited" {
		t.Errorf("Tags: got %v, want [edited]", got.Tags)
	}

	missing := types.NewCard("x", "y", nil)
	if err := store.UpdateCard(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update missing card: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCardCascadesReviews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := types.NewCard("front", "back", nil)
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	review := types.NewReview(card.ID, types.RatingGood, nil)
	if err := store.AppendReview(ctx, review); err != nil {
		t.Fatalf("AppendReview() failed: %v", err)
	}

	if err := store.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("DeleteCard() failed: %v", err)
	}

	if _, err := store.GetCard(ctx, card.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	reviews, err := store.ListReviews(ctx, card.ID, 10)
	if err != nil {
		t.Fatalf("ListReviews() failed: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected reviews to cascade on delete, got %d", len(reviews))
	}

	if err := store.DeleteCard(ctx, card.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestLoadDueCardsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	overdue := types.NewCard("overdue", "a", nil)
	overdue.Memory.NextReview = now.Add(-48 * time.Hour)

	dueNow := types.NewCard("due now", "b", nil)
	dueNow.Memory.NextReview = now

	future := types.NewCard("future", "c", nil)
	future.Memory.NextReview = now.Add(72 * time.Hour)

	for _, c := range []*types.Card{dueNow, future, overdue} {
		if err := store.CreateCard(ctx, c); err != nil {
			t.Fatalf("CreateCard() failed: %v", err)
		}
	}

	due, err := store.LoadDueCards(ctx, 10, now)
	if err != nil {
		t.Fatalf("LoadDueCards() failed: %v", err)
	}

	if len(due) != 2 {
		t.Fatalf("expected 2 due cards, got %d", len(due))
	}
	if due[0].ID != overdue.ID {
		t.Errorf("expected most overdue card first, got %q", due[0].Front)
	}
	if due[1].ID != dueNow.ID {
		t.Errorf("expected card due now second, got %q", due[1].Front)
	}

	limited, err := store.LoadDueCards(ctx, 1, now)
	if err != nil {
		t.Fatalf("LoadDueCards() with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d cards", len(limited))
	}
}

func TestSaveMemoryState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	card := types.NewCard("front", "back", nil)
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	state := types.MemoryState{
		Stability:        4.93,
		Difficulty:       4.5,
		Repetitions:      1,
		Lapses:           0,
		IntervalDays:     5,
		LegacyEaseFactor: 2.2,
		LastReview:       &now,
		NextReview:       now.AddDate(0, 0, 5),
	}
	if err := store.SaveMemoryState(ctx, card.ID, state); err != nil {
		t.Fatalf("SaveMemoryState() failed: %v", err)
	}

	got, err := store.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() failed: %v", err)
	}
	if got.Memory.Stability != 4.93 {
		t.Errorf("Stability: got %v, want 4.93", got.Memory.Stability)
	}
	if got.Memory.Repetitions != 1 {
		t.Errorf("Repetitions: got %d, want 1", got.Memory.Repetitions)
	}
	if got.Memory.LastReview == nil || !got.Memory.LastReview.Equal(now) {
		t.Errorf("LastReview: got %v, want %v", got.Memory.LastReview, now)
	}

	if err := store.SaveMemoryState(ctx, "missing", state); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing card, got %v", err)
	}
}

func TestReviewLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := types.NewCard("front", "back", nil)
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	answer := "my answer"
	eval := "close enough"
	first := types.NewReview(card.ID, types.RatingHard, &answer)
	first.Evaluation = &eval
	first.ReviewedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	second := types.NewReview(card.ID, types.RatingGood, nil)
	second.ReviewedAt = time.Now().UTC().Truncate(time.Second)

	for _, r := range []*types.Review{first, second} {
		if err := store.AppendReview(ctx, r); err != nil {
			t.Fatalf("AppendReview() failed: %v", err)
		}
	}

	reviews, err := store.ListReviews(ctx, card.ID, 10)
	if err != nil {
		t.Fatalf("ListReviews() failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].ID != second.ID {
		t.Errorf("expected most recent review first")
	}
	if reviews[1].UserAnswer == nil || *reviews[1].UserAnswer != answer {
		t.Errorf("UserAnswer did not round-trip: got %v", reviews[1].UserAnswer)
	}
}

func TestListCardsPaginationAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := types.NewSource(types.SourceText, nil, nil)
	if err := store.CreateSource(ctx, source); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		card := types.NewCard("front", "back", &source.ID)
		card.Tags = []string{"chemistry"}
		if err := store.CreateCard(ctx, card); err != nil {
			t.Fatalf("CreateCard() failed: %v", err)
		}
	}
	untagged := types.NewCard("other", "other", nil)
	if err := store.CreateCard(ctx, untagged); err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}

	cards, total, err := store.ListCards(ctx, storage.ListOptions{Page: 1, Limit: 3})
	if err != nil {
		t.Fatalf("ListCards() failed: %v", err)
	}
	if total != 6 {
		t.Errorf("total: got %d, want 6", total)
	}
	if len(cards) != 3 {
		t.Errorf("page size: got %d, want 3", len(cards))
	}

	tagged, total, err := store.ListCards(ctx, storage.ListOptions{Tag: "chemistry"})
	if err != nil {
		t.Fatalf("ListCards() with tag failed: %v", err)
	}
	if total != 5 || len(tagged) != 5 {
		t.Errorf("tag filter: got %d/%d, want 5/5", len(tagged), total)
	}

	bySource, total, err := store.ListCards(ctx, storage.ListOptions{SourceID: source.ID})
	if err != nil {
		t.Fatalf("ListCards() with source failed: %v", err)
	}
	if total != 5 || len(bySource) != 5 {
		t.Errorf("source filter: got %d/%d, want 5/5", len(bySource), total)
	}
}

func TestSources(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	title := "Biology notes"
	src := types.NewSource(types.SourceMarkdown, &title, nil)
	if err := store.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}

	got, err := store.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetSource() failed: %v", err)
	}
	if got.Type != types.SourceMarkdown {
		t.Errorf("Type: got %q, want %q", got.Type, types.SourceMarkdown)
	}
	if got.Title == nil || *got.Title != title {
		t.Errorf("Title: got %v, want %q", got.Title, title)
	}

	if _, err := store.GetSource(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := store.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 source, got %d", len(all))
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := types.NewCard("due", "a", nil)
	due.Memory.NextReview = now.Add(-time.Hour)
	due.Memory.Stability = 3.0
	due.Memory.Repetitions = 1

	future := types.NewCard("future", "b", nil)
	future.Memory.NextReview = now.Add(24 * time.Hour)

	for _, c := range []*types.Card{due, future} {
		if err := store.CreateCard(ctx, c); err != nil {
			t.Fatalf("CreateCard() failed: %v", err)
		}
	}
	if err := store.AppendReview(ctx, types.NewReview(due.ID, types.RatingGood, nil)); err != nil {
		t.Fatalf("AppendReview() failed: %v", err)
	}

	stats, err := store.Stats(ctx, now)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalCards != 2 {
		t.Errorf("TotalCards: got %d, want 2", stats.TotalCards)
	}
	if stats.DueCards != 1 {
		t.Errorf("DueCards: got %d, want 1", stats.DueCards)
	}
	if stats.TotalReviews != 1 {
		t.Errorf("TotalReviews: got %d, want 1", stats.TotalReviews)
	}
	if stats.AverageStability != 3.0 {
		t.Errorf("AverageStability: got %v, want 3.0", stats.AverageStability)
	}
}
