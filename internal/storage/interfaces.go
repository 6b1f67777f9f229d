// Package storage defines the persistence interfaces for cards, reviews, and
// ingestion sources. Backends live in the sqlite and postgres subpackages.
package storage

import (
	"context"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// CardStore is the core persistence interface for flashcards and their
// scheduling state. Implementations must be safe for concurrent use.
type CardStore interface {
	// CreateCard persists a new card. The card's ID must be set by the caller.
	// Returns ErrInvalidInput if required fields are missing.
	CreateCard(ctx context.Context, card *types.Card) error

	// GetCard retrieves a card by ID. Returns ErrNotFound if it does not exist.
	GetCard(ctx context.Context, id string) (*types.Card, error)

	// ListCards returns cards matching the given options, along with the total
	// count across all pages.
	ListCards(ctx context.Context, opts ListOptions) ([]*types.Card, int, error)

	// UpdateCard replaces the stored card content and scheduling state.
	// Returns ErrNotFound if the card does not exist.
	UpdateCard(ctx context.Context, card *types.Card) error

	// DeleteCard removes a card and its review history.
	// Returns ErrNotFound if the card does not exist.
	DeleteCard(ctx context.Context, id string) error

	// LoadDueCards returns up to limit cards whose next review is at or before
	// now, ordered by next_review ascending (most overdue first).
	LoadDueCards(ctx context.Context, limit int, now time.Time) ([]*types.Card, error)

	// SaveMemoryState persists updated scheduling state for a card without
	// touching its content. Returns ErrNotFound if the card does not exist.
	SaveMemoryState(ctx context.Context, cardID string, state types.MemoryState) error

	// AppendReview records a review log entry.
	AppendReview(ctx context.Context, review *types.Review) error

	// ListReviews returns the review history for a card, most recent first.
	ListReviews(ctx context.Context, cardID string, limit int) ([]*types.Review, error)

	// CreateSource records an ingestion source.
	CreateSource(ctx context.Context, source *types.Source) error

	// GetSource retrieves a source by ID. Returns ErrNotFound if missing.
	GetSource(ctx context.Context, id string) (*types.Source, error)

	// ListSources returns all sources, most recent first.
	ListSources(ctx context.Context) ([]*types.Source, error)

	// Stats returns collection-level statistics.
	Stats(ctx context.Context, now time.Time) (*Stats, error)

	// Close releases the underlying database resources.
	Close() error
}
