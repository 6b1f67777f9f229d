package types

import (
	"time"

	"github.com/google/uuid"
)

// Review records a single completed review of a card.
type Review struct {
	ID     string `json:"id"`
	CardID string `json:"card_id"`
	Rating int    `json:"rating"`

	// UserAnswer is the free-text answer the user gave, if any.
	UserAnswer *string `json:"user_answer,omitempty"`

	// Evaluation is an opaque serialized snapshot of the provider's
	// evaluation attached for later inspection. It is never read back by
	// the scheduling core.
	Evaluation *string `json:"evaluation,omitempty"`

	ReviewedAt time.Time `json:"reviewed_at"`
}

// NewReview creates a review record for a card with the given rating.
func NewReview(cardID string, rating Rating, userAnswer *string) *Review {
	return &Review{
		ID:         uuid.New().String(),
		CardID:     cardID,
		Rating:     int(rating),
		UserAnswer: userAnswer,
		ReviewedAt: time.Now().UTC(),
	}
}
