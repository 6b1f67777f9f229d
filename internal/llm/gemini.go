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

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey  string
	Model   string        // default: gemini-2.5-flash
	BaseURL string        // default: https://generativelanguage.googleapis.com/v1beta
	Timeout time.Duration // default: 60s
}

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	cfg            GeminiConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewGeminiProvider creates a Gemini provider with the given configuration.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker("gemini"),
	}
}

// geminiGenerateRequest is the request body for POST :generateContent.
type geminiGenerateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

// geminiGenerateResponse is the response body from POST :generateContent.
type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// IsAvailable implements Provider. Gemini is available iff a key is set.
func (p *GeminiProvider) IsAvailable() bool { return p.cfg.APIKey != "" }

// EvaluateAnswer implements Provider.
func (p *GeminiProvider) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	prompt := evaluationSystemPrompt + "\n\n" + evaluationUserPrompt(req)
	raw, err := p.generate(ctx, prompt, 0.3)
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
func (p *GeminiProvider) GenerateCards(ctx context.Context, req GenerationRequest) ([]types.GeneratedCard, error) {
	prompt := generationSystemPrompt + "\n\n" + generationUserPrompt(req)
	raw, err := p.generate(ctx, prompt, 0.7)
	if err != nil {
		return nil, err
	}
	cards, perr := parseGeneratedCards(raw)
	if perr != nil {
		return nil, perr
	}
	return cards, nil
}

// generate issues one generateContent call through the circuit breaker and
// returns the first candidate's text.
func (p *GeminiProvider) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	result, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return p.doGenerate(ctx, prompt, temperature)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", Unavailable("gemini circuit breaker open")
		}
		return "", err
	}
	return result.(string), nil
}

func (p *GeminiProvider) doGenerate(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:      temperature,
			ResponseMimeType: "application/json",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", RequestFailed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", RequestFailed(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, resp.Header.Get("Retry-After"), string(body))
	}

	var respData geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", ParseFailed(err.Error())
	}

	if len(respData.Candidates) == 0 || len(respData.Candidates[0].Content.Parts) == 0 {
		return "", ParseFailed("no response content")
	}

	return respData.Candidates[0].Content.Parts[0].Text, nil
}

// Compile-time assertion.
var _ Provider = (*GeminiProvider)(nil)
