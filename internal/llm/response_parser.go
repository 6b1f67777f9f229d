package llm

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// evaluationPayload is the JSON object the evaluation prompt asks for.
type evaluationPayload struct {
	IsCorrect       bool    `json:"is_correct"`
	Score           float64 `json:"score"`
	Feedback        string  `json:"feedback"`
	SuggestedRating string  `json:"suggested_rating"`
}

// generationPayload is the JSON object the generation prompt asks for.
type generationPayload struct {
	Cards []struct {
		Front string   `json:"front"`
		Back  string   `json:"back"`
		Tags  []string `json:"tags"`
	} `json:"cards"`
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. Models add explanations before/after the JSON despite
// instructions, and wrap it in markdown fences.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let the parser fail
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON object found
}

// parseEvaluation parses an evaluation JSON response. The raw text may
// embed the JSON inside surrounding prose. Unrecognized suggested_rating
// strings fall back to Good.
func parseEvaluation(raw string) (*Evaluation, *ProviderError) {
	cleanJSON := extractJSON(raw)

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, ParseFailed(err.Error())
	}

	if !isKnownRating(payload.SuggestedRating) {
		log.Printf("llm: unknown suggested_rating %q, defaulting to good", payload.SuggestedRating)
	}

	return &Evaluation{
		IsCorrect:       payload.IsCorrect,
		Score:           payload.Score,
		Feedback:        payload.Feedback,
		SuggestedRating: types.ParseRating(payload.SuggestedRating),
	}, nil
}

// parseGeneratedCards parses a generation JSON response.
func parseGeneratedCards(raw string) ([]types.GeneratedCard, *ProviderError) {
	cleanJSON := extractJSON(raw)

	var payload generationPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, ParseFailed(err.Error())
	}

	cards := make([]types.GeneratedCard, 0, len(payload.Cards))
	for _, c := range payload.Cards {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			log.Printf("llm: skipping generated card with empty front or back")
			continue
		}
		cards = append(cards, types.GeneratedCard{Front: c.Front, Back: c.Back, Tags: c.Tags})
	}
	return cards, nil
}

func isKnownRating(s string) bool {
	switch s {
	case "again", "hard", "good", "easy":
		return true
	}
	return false
}
