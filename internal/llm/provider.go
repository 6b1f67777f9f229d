// Package llm provides the model-provider abstraction used for answer
// evaluation and card generation, plus the priority-ordered failover
// manager that spans the concrete providers.
package llm

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// Evaluation is a provider's judgement of a user's free-text answer.
type Evaluation struct {
	IsCorrect       bool         `json:"is_correct"`
	Score           float64      `json:"score"` // 0.0 (wrong) to 1.0 (perfect)
	Feedback        string       `json:"feedback"`
	SuggestedRating types.Rating `json:"suggested_rating"`
}

// EvaluationRequest carries a card and the user's answer to a provider.
type EvaluationRequest struct {
	CardFront  string
	CardBack   string
	UserAnswer string
}

// GenerationRequest asks a provider to produce flashcards from raw content.
type GenerationRequest struct {
	Content  string
	MaxCards int
}

// Provider is the uniform capability implemented by each remote model
// backend. Implementations issue one HTTP request per call and classify
// failures as *ProviderError.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string

	// IsAvailable reports whether the provider is configured and ready.
	// For remote backends this means a non-empty credential.
	IsAvailable() bool

	// EvaluateAnswer grades a user's answer against the card's back.
	EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error)

	// GenerateCards produces up to req.MaxCards flashcards from content.
	GenerateCards(ctx context.Context, req GenerationRequest) ([]types.GeneratedCard, error)
}
