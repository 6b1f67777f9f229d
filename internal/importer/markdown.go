// Package importer parses Markdown flashcard decks into cards.
//
// A deck file is optional YAML frontmatter (deck title and shared tags)
// followed by cards in either of two forms:
//
//	Q: What is the capital of France?
//	A: Paris
//
// or heading/body pairs, where the heading is the front and the text until
// the next heading is the back:
//
//	## What is the capital of France?
//	Paris
package importer

import (
	"bufio"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/recall/pkg/types"
)

// Deck is a parsed Markdown flashcard file.
type Deck struct {
	// Title comes from the frontmatter "deck" field, or "" when absent.
	Title string

	// Tags from frontmatter apply to every card in the deck.
	Tags []string

	// Cards are the parsed card proposals, in file order.
	Cards []types.GeneratedCard
}

// deckFrontmatter is the YAML frontmatter shape for deck files.
type deckFrontmatter struct {
	Deck string   `yaml:"deck"`
	Tags []string `yaml:"tags"`
}

// ParseDeck parses a Markdown deck file.
func ParseDeck(content []byte) (*Deck, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}

	deck := &Deck{
		Title: fm.Deck,
		Tags:  fm.Tags,
	}

	cards := parseQAPairs(body)
	if len(cards) == 0 {
		cards = parseHeadingPairs(body)
	}

	for i := range cards {
		cards[i].Tags = mergeTags(deck.Tags, cards[i].Tags)
	}
	deck.Cards = cards

	return deck, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns an empty frontmatter and the full text when no
// frontmatter is found.
func splitFrontmatter(text string) (deckFrontmatter, string, error) {
	var fm deckFrontmatter

	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// No closing delimiter, treat the entire file as body.
		return fm, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return fm, text, fmt.Errorf("invalid frontmatter: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// parseQAPairs extracts cards written as "Q:" / "A:" line pairs. Both the
// question and the answer may continue over following lines until the next
// marker or a blank line after the answer.
func parseQAPairs(body string) []types.GeneratedCard {
	var cards []types.GeneratedCard
	var front, back []string
	inAnswer := false

	flush := func() {
		f := strings.TrimSpace(strings.Join(front, "\n"))
		b := strings.TrimSpace(strings.Join(back, "\n"))
		if f != "" && b != "" {
			cards = append(cards, types.GeneratedCard{Front: f, Back: b})
		}
		front, back = nil, nil
		inAnswer = false
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Q:"):
			flush()
			front = append(front, strings.TrimSpace(trimmed[2:]))
		case strings.HasPrefix(trimmed, "A:"):
			inAnswer = true
			back = append(back, strings.TrimSpace(trimmed[2:]))
		case trimmed == "" && inAnswer:
			flush()
		case len(front) > 0 && !inAnswer:
			front = append(front, trimmed)
		case inAnswer:
			back = append(back, trimmed)
		}
	}
	flush()

	return cards
}

// parseHeadingPairs extracts cards as heading/body pairs. Any ATX heading
// level works; the text until the next heading is the back.
func parseHeadingPairs(body string) []types.GeneratedCard {
	var cards []types.GeneratedCard
	var front string
	var back []string

	flush := func() {
		b := strings.TrimSpace(strings.Join(back, "\n"))
		if front != "" && b != "" {
			cards = append(cards, types.GeneratedCard{Front: front, Back: b})
		}
		front = ""
		back = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			front = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		if front != "" {
			back = append(back, trimmed)
		}
	}
	flush()

	return cards
}

// mergeTags combines two tag sets, removing duplicates and preserving order.
func mergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var merged []string
	for _, t := range append(append([]string{}, a...), b...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged = append(merged, t)
	}
	return merged
}
