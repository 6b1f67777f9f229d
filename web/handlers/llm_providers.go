package handlers

import (
	"net/http"
)

// LLMHandlers exposes provider availability to clients.
type LLMHandlers struct {
	llm ProviderManager
}

// NewLLMHandlers creates an LLMHandlers instance.
func NewLLMHandlers(manager ProviderManager) *LLMHandlers {
	return &LLMHandlers{llm: manager}
}

// ListProviders handles GET /api/llm/providers - the names of ready
// providers in failover order.
func (h *LLMHandlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.llm.AvailableProviders()
	if providers == nil {
		providers = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"available": h.llm.HasAvailableProvider(),
	})
}
