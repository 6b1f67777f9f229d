package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/scheduler"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// Evaluator is the slice of the provider manager the machine needs.
type Evaluator interface {
	HasAvailableProvider() bool
	EvaluateAnswer(ctx context.Context, req llm.EvaluationRequest) (*llm.Evaluation, error)
}

// Machine is the per-connection review session state machine. Handle
// processes one client message at a time and returns the frames to send,
// in order. A nil or empty result means no response (audio chunks).
//
// Invalid events for the current state produce an Error frame and leave
// all session state untouched.
type Machine struct {
	store     storage.CardStore
	evaluator Evaluator

	defaultLimit int
	now          func() time.Time

	state         State
	cards         []types.CardSnapshot
	index         int
	cardsReviewed int

	// audioBuffer accumulates chunks until EndAudio. Transcription is not
	// wired up; EndAudio discards the buffer and waits for a text answer.
	audioBuffer []byte

	// lastAnswer and lastEvaluation capture the most recent exchange so
	// RateCard can attach them to the review log entry.
	lastAnswer     *string
	lastEvaluation *string
}

// NewMachine creates an idle session machine.
func NewMachine(store storage.CardStore, evaluator Evaluator, defaultLimit int) *Machine {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Machine{
		store:        store,
		evaluator:    evaluator,
		defaultLimit: defaultLimit,
		now:          func() time.Time { return time.Now().UTC() },
		state:        StateIdle,
	}
}

// State returns the current session state.
func (m *Machine) State() State {
	return m.state
}

// CardsReviewed returns the number of cards rated in the current session.
func (m *Machine) CardsReviewed() int {
	return m.cardsReviewed
}

// AppendAudio buffers a binary audio frame. No response is produced.
func (m *Machine) AppendAudio(data []byte) {
	m.audioBuffer = append(m.audioBuffer, data...)
}

// Handle processes a client message and returns the frames to send in order.
func (m *Machine) Handle(ctx context.Context, msg *ClientMessage) []ServerMessage {
	switch msg.Type {
	case TypeStartSession:
		return m.handleStartSession(ctx, msg.CardLimit)
	case TypeEndSession:
		return m.handleEndSession()
	case TypeAudioChunk:
		m.AppendAudio(msg.Data)
		return nil
	case TypeEndAudio:
		return m.handleEndAudio()
	case TypeCommand:
		return m.handleCommand(msg.Action)
	case TypeTextAnswer:
		return m.handleTextAnswer(ctx, msg.Answer)
	case TypeNextCard:
		return m.handleNextCard()
	case TypeRateCard:
		return m.handleRateCard(ctx, msg.Rating)
	default:
		return []ServerMessage{errorMsg("unknown message type: %s", msg.Type)}
	}
}

func (m *Machine) handleStartSession(ctx context.Context, cardLimit *int) []ServerMessage {
	limit := m.defaultLimit
	if cardLimit != nil && *cardLimit > 0 {
		limit = *cardLimit
	}

	due, err := m.store.LoadDueCards(ctx, limit, m.now())
	if err != nil {
		return []ServerMessage{errorMsg("failed to fetch cards: %v", err)}
	}

	m.cards = make([]types.CardSnapshot, 0, len(due))
	for _, c := range due {
		m.cards = append(m.cards, c.Snapshot())
	}
	m.index = 0
	m.cardsReviewed = 0
	m.clearExchange()

	if len(m.cards) == 0 {
		m.state = StateIdle
		return []ServerMessage{sessionCompleteMsg(0)}
	}

	m.state = StatePresentingCard
	return []ServerMessage{sessionStartedMsg(len(m.cards))}
}

func (m *Machine) handleEndSession() []ServerMessage {
	m.state = StateIdle
	m.cards = nil
	m.index = 0
	m.audioBuffer = nil
	m.clearExchange()
	return []ServerMessage{sessionEndedMsg()}
}

func (m *Machine) handleEndAudio() []ServerMessage {
	// Speech-to-text is not wired up; discard the buffer and wait for a
	// text answer instead.
	m.audioBuffer = nil
	m.state = StateWaitingForAnswer
	return []ServerMessage{stateChangedMsg(m.state)}
}

func (m *Machine) handleNextCard() []ServerMessage {
	if m.state == StateIdle {
		return []ServerMessage{errorMsg("no active session")}
	}
	if m.index >= len(m.cards) {
		m.state = StateIdle
		return []ServerMessage{sessionCompleteMsg(m.cardsReviewed)}
	}

	m.state = StatePresentingCard
	return []ServerMessage{cardPresentedMsg(m.currentPresentation())}
}

func (m *Machine) handleCommand(action string) []ServerMessage {
	switch action {
	case "skip":
		if m.index >= len(m.cards) {
			return []ServerMessage{errorMsg("no card to skip")}
		}
		m.index++
		m.clearExchange()
		if m.index >= len(m.cards) {
			m.state = StateIdle
			return []ServerMessage{sessionCompleteMsg(m.cardsReviewed)}
		}
		m.state = StatePresentingCard
		return []ServerMessage{cardPresentedMsg(m.currentPresentation())}

	case "repeat":
		if m.index >= len(m.cards) {
			return []ServerMessage{errorMsg("no card to repeat")}
		}
		m.state = StatePresentingCard
		return []ServerMessage{cardPresentedMsg(m.currentPresentation())}

	default:
		return []ServerMessage{errorMsg("unknown command: %s", action)}
	}
}

func (m *Machine) handleTextAnswer(ctx context.Context, answer string) []ServerMessage {
	if m.state != StatePresentingCard && m.state != StateWaitingForAnswer {
		return []ServerMessage{errorMsg("not waiting for answer")}
	}
	if m.index >= len(m.cards) {
		return []ServerMessage{errorMsg("no current card")}
	}

	m.state = StateEvaluating
	messages := []ServerMessage{stateChangedMsg(m.state)}

	card := m.cards[m.index]
	m.lastAnswer = &answer
	m.lastEvaluation = nil

	if !m.evaluator.HasAvailableProvider() {
		m.state = StateShowingFeedback
		return append(messages, errorMsg("no model provider available for evaluation"))
	}

	eval, err := m.evaluator.EvaluateAnswer(ctx, llm.EvaluationRequest{
		CardFront:  card.Front,
		CardBack:   card.Back,
		UserAnswer: answer,
	})
	if err != nil {
		m.state = StateShowingFeedback
		return append(messages, errorMsg("evaluation failed: %v", err))
	}

	if encoded, err := json.Marshal(eval); err == nil {
		s := string(encoded)
		m.lastEvaluation = &s
	}

	m.state = StateShowingFeedback
	return append(messages, evaluationMsg(
		eval.IsCorrect, eval.Score, eval.Feedback, eval.SuggestedRating.String(),
	))
}

func (m *Machine) handleRateCard(ctx context.Context, rating string) []ServerMessage {
	if m.state != StateShowingFeedback {
		return []ServerMessage{errorMsg("not in feedback state")}
	}
	if m.index >= len(m.cards) {
		return []ServerMessage{errorMsg("no current card")}
	}

	card := m.cards[m.index]
	parsed := types.ParseRating(rating)
	now := m.now()

	next := scheduler.Schedule(card.Memory, parsed, now)
	if err := m.store.SaveMemoryState(ctx, card.ID, next); err != nil {
		return []ServerMessage{errorMsg("failed to save review: %v", err)}
	}

	review := types.NewReview(card.ID, parsed, m.lastAnswer)
	review.Evaluation = m.lastEvaluation
	review.ReviewedAt = now
	if err := m.store.AppendReview(ctx, review); err != nil {
		// Scheduling state is already saved; losing the log entry is not
		// worth failing the rating over.
		log.Printf("session: failed to record review for card %s: %v", card.ID, err)
	}

	m.index++
	m.cardsReviewed++
	m.clearExchange()

	if m.index >= len(m.cards) {
		m.state = StateIdle
		return []ServerMessage{sessionCompleteMsg(m.cardsReviewed)}
	}

	m.state = StatePresentingCard
	return []ServerMessage{cardPresentedMsg(m.currentPresentation())}
}

func (m *Machine) currentPresentation() CardPresentation {
	card := m.cards[m.index]
	return CardPresentation{
		ID:    card.ID,
		Front: card.Front,
		Index: m.index + 1,
		Total: len(m.cards),
	}
}

func (m *Machine) clearExchange() {
	m.lastAnswer = nil
	m.lastEvaluation = nil
}
