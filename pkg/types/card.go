package types

import (
	"time"

	"github.com/google/uuid"
)

// MemoryState holds the scheduling state of a card under the FSRS memory
// model. It is created with defaults when a card is created and mutated only
// by the scheduler's output after each rating.
type MemoryState struct {
	// Stability is the number of days until recall probability decays to
	// the target retention (90%). Zero until the first review.
	Stability float64 `json:"stability"`

	// Difficulty is the intrinsic hardness of the card, 1.0 (easiest) to
	// 10.0 (hardest). New cards start at the neutral 5.0.
	Difficulty float64 `json:"difficulty"`

	// Repetitions is the total number of reviews. Zero means a new card.
	Repetitions int `json:"repetitions"`

	// Lapses counts failed recalls after at least one prior repetition.
	Lapses int `json:"lapses"`

	// IntervalDays is the most recently scheduled interval in days.
	IntervalDays int `json:"interval_days"`

	// LegacyEaseFactor is derived from Difficulty for consumers of the old
	// SM-2 representation. It carries no scheduling effect.
	LegacyEaseFactor float64 `json:"ease_factor"`

	// LastReview is when the card was last reviewed, nil for new cards.
	LastReview *time.Time `json:"last_review,omitempty"`

	// NextReview is when the card is next due.
	NextReview time.Time `json:"next_review"`
}

// NewMemoryState returns the default state for a freshly created card,
// due immediately.
func NewMemoryState(now time.Time) MemoryState {
	return MemoryState{
		Stability:        0.0,
		Difficulty:       5.0,
		Repetitions:      0,
		Lapses:           0,
		IntervalDays:     0,
		LegacyEaseFactor: 2.5,
		NextReview:       now,
	}
}

// Card is a single reviewable knowledge item: a question (front), an answer
// (back), and its scheduling state.
type Card struct {
	ID       string  `json:"id"`
	Front    string  `json:"front"`
	Back     string  `json:"back"`
	SourceID *string `json:"source_id,omitempty"` // Optional link to the source it was generated from
	Tags     []string `json:"tags,omitempty"`

	Memory MemoryState `json:"memory"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a card with default memory state, due immediately.
func NewCard(front, back string, sourceID *string) *Card {
	now := time.Now().UTC()
	return &Card{
		ID:        uuid.New().String(),
		Front:     front,
		Back:      back,
		SourceID:  sourceID,
		Memory:    NewMemoryState(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CardSnapshot is an immutable copy of a card taken when a review session
// starts. The session queue works off snapshots so that concurrent edits to
// the stored card do not shift mid-session.
type CardSnapshot struct {
	ID     string      `json:"id"`
	Front  string      `json:"front"`
	Back   string      `json:"back"`
	Memory MemoryState `json:"memory"`
}

// Snapshot returns an immutable copy of the card for session use.
func (c *Card) Snapshot() CardSnapshot {
	return CardSnapshot{
		ID:     c.ID,
		Front:  c.Front,
		Back:   c.Back,
		Memory: c.Memory,
	}
}

// GeneratedCard is a card proposal produced by a model provider during
// content ingestion. It becomes a Card only after the user confirms it.
type GeneratedCard struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}
