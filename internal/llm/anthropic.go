package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string
	Model   string        // default: claude-3-5-haiku-latest
	BaseURL string        // default: https://api.anthropic.com
	Timeout time.Duration // default: 60s
}

// AnthropicProvider implements Provider using the Messages API.
type AnthropicProvider struct {
	cfg            AnthropicConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewAnthropicProvider creates an Anthropic provider with the given configuration.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AnthropicProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker("anthropic"),
	}
}

// anthropicMessagesRequest is the request body for POST /v1/messages.
type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicMessagesResponse is the response body from POST /v1/messages.
type anthropicMessagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// IsAvailable implements Provider.
func (p *AnthropicProvider) IsAvailable() bool { return p.cfg.APIKey != "" }

// EvaluateAnswer implements Provider.
func (p *AnthropicProvider) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	raw, err := p.complete(ctx, evaluationSystemPrompt, evaluationUserPrompt(req), 1024)
	if err != nil {
		return nil, err
	}
	eval, perr := parseEvaluation(raw)
	if perr != nil {
		return nil, perr
	}
	return eval, nil
}

// GenerateCards implements Provider.
func (p *AnthropicProvider) GenerateCards(ctx context.Context, req GenerationRequest) ([]types.GeneratedCard, error) {
	raw, err := p.complete(ctx, generationSystemPrompt, generationUserPrompt(req), 4096)
	if err != nil {
		return nil, err
	}
	cards, perr := parseGeneratedCards(raw)
	if perr != nil {
		return nil, perr
	}
	return cards, nil
}

// complete issues one Messages API call through the circuit breaker and
// returns the first content block's text.
func (p *AnthropicProvider) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	result, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return p.doComplete(ctx, system, user, maxTokens)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", Unavailable("anthropic circuit breaker open")
		}
		return "", err
	}
	return result.(string), nil
}

func (p *AnthropicProvider) doComplete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := anthropicMessagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: user},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", RequestFailed(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, resp.Header.Get("Retry-After"), string(body))
	}

	var respData anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", ParseFailed(err.Error())
	}

	if len(respData.Content) == 0 {
		return "", ParseFailed("no response content")
	}

	return respData.Content[0].Text, nil
}

// Compile-time assertion.
var _ Provider = (*AnthropicProvider)(nil)
