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

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string
	Model   string        // default: gpt-4o-mini
	BaseURL string        // default: https://api.openai.com
	Timeout time.Duration // default: 60s
}

// OpenAIProvider implements Provider using the chat completions API.
type OpenAIProvider struct {
	cfg            OpenAIConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewOpenAIProvider creates an OpenAI provider with the given configuration.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker("openai"),
	}
}

// openAIChatRequest is the request body for POST /v1/chat/completions.
type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIChatResponse is the response body from POST /v1/chat/completions.
type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// IsAvailable implements Provider.
func (p *OpenAIProvider) IsAvailable() bool { return p.cfg.APIKey != "" }

// EvaluateAnswer implements Provider.
func (p *OpenAIProvider) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	raw, err := p.complete(ctx, evaluationSystemPrompt, evaluationUserPrompt(req), 0.3)
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
func (p *OpenAIProvider) GenerateCards(ctx context.Context, req GenerationRequest) ([]types.GeneratedCard, error) {
	raw, err := p.complete(ctx, generationSystemPrompt, generationUserPrompt(req), 0.7)
	if err != nil {
		return nil, err
	}
	cards, perr := parseGeneratedCards(raw)
	if perr != nil {
		return nil, perr
	}
	return cards, nil
}

// complete issues one chat completion through the circuit breaker and
// returns the first choice's content.
func (p *OpenAIProvider) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	result, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return p.doComplete(ctx, system, user, temperature)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", Unavailable("openai circuit breaker open")
		}
		return "", err
	}
	return result.(string), nil
}

func (p *OpenAIProvider) doComplete(ctx context.Context, system, user string, temperature float64) (string, error) {
	reqBody := openAIChatRequest{
		Model: p.cfg.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", RequestFailed(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, resp.Header.Get("Retry-After"), string(body))
	}

	var respData openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", ParseFailed(err.Error())
	}

	if len(respData.Choices) == 0 {
		return "", ParseFailed("no response content")
	}

	return respData.Choices[0].Message.Content, nil
}

// Compile-time assertion.
var _ Provider = (*OpenAIProvider)(nil)
