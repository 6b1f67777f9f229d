package llm

import (
	"context"
	"log"

	"github.com/scrypster/recall/pkg/types"
)

// Manager holds an ordered list of providers and tries each in priority
// order until one succeeds. It holds only immutable configuration after
// construction and is safe to share across concurrent sessions.
//
// All failure kinds fall through to the next provider; the last recorded
// error is returned when every provider fails. The manager performs no
// retries or backoff within a single call — rate-limit handling is a
// caller concern.
type Manager struct {
	providers []Provider
}

// NewManager creates a manager over the given providers, tried in the
// order supplied.
func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers}
}

// HasAvailableProvider reports whether any provider is ready to serve.
func (m *Manager) HasAvailableProvider() bool {
	for _, p := range m.providers {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}

// AvailableProviders returns the names of ready providers in priority order.
func (m *Manager) AvailableProviders() []string {
	var names []string
	for _, p := range m.providers {
		if p.IsAvailable() {
			names = append(names, p.Name())
		}
	}
	return names
}

// EvaluateAnswer grades an answer using the first provider that succeeds.
func (m *Manager) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	var lastErr error = Unavailable("no providers configured")

	for _, p := range m.providers {
		if !p.IsAvailable() {
			continue
		}

		eval, err := p.EvaluateAnswer(ctx, req)
		if err == nil {
			return eval, nil
		}
		log.Printf("llm: provider %s evaluation failed: %v", p.Name(), err)
		lastErr = err
	}

	return nil, lastErr
}

// GenerateCards produces cards using the first provider that succeeds.
func (m *Manager) GenerateCards(ctx context.Context, req GenerationRequest) ([]types.GeneratedCard, error) {
	var lastErr error = Unavailable("no providers configured")

	for _, p := range m.providers {
		if !p.IsAvailable() {
			continue
		}

		cards, err := p.GenerateCards(ctx, req)
		if err == nil {
			return cards, nil
		}
		log.Printf("llm: provider %s generation failed: %v", p.Name(), err)
		lastErr = err
	}

	return nil, lastErr
}
