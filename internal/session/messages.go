// Package session implements the review-session state machine that drives a
// single WebSocket connection. The machine is owned by the connection
// goroutine; it is not safe for concurrent use.
package session

import (
	"encoding/json"
	"fmt"
)

// State is the review session lifecycle state.
type State string

const (
	StateIdle             State = "idle"
	StatePresentingCard   State = "presenting_card"
	StateWaitingForAnswer State = "waiting_for_answer"
	StateEvaluating       State = "evaluating"
	StateShowingFeedback  State = "showing_feedback"
)

// Client message types.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeAudioChunk   = "audio_chunk"
	TypeEndAudio     = "end_audio"
	TypeCommand      = "command"
	TypeTextAnswer   = "text_answer"
	TypeNextCard     = "next_card"
	TypeRateCard     = "rate_card"
)

// Server message types.
const (
	TypeSessionStarted  = "session_started"
	TypeSessionEnded    = "session_ended"
	TypeStateChanged    = "state_changed"
	TypeCardPresented   = "card_presented"
	TypeEvaluation      = "evaluation"
	TypeError           = "error"
	TypeSessionComplete = "session_complete"
)

// ClientMessage is an inbound frame, tagged by Type. Only the fields
// relevant to the given type are populated.
type ClientMessage struct {
	Type string `json:"type"`

	// start_session
	CardLimit *int `json:"card_limit,omitempty"`

	// audio_chunk
	Data []byte `json:"data,omitempty"`

	// command
	Action string `json:"action,omitempty"`

	// text_answer
	Answer string `json:"answer,omitempty"`

	// rate_card
	Rating string `json:"rating,omitempty"`
}

// ParseClientMessage decodes an inbound frame and validates its type tag.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case TypeStartSession, TypeEndSession, TypeAudioChunk, TypeEndAudio,
		TypeCommand, TypeTextAnswer, TypeNextCard, TypeRateCard:
		return &msg, nil
	default:
		return nil, fmt.Errorf("invalid message: unknown type %q", msg.Type)
	}
}

// CardPresentation is the client-facing view of the current card. The back
// is withheld until evaluation.
type CardPresentation struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Index int    `json:"index"` // 1-based position in the session
	Total int    `json:"total"`
}

// ServerMessage is an outbound frame, tagged by Type. Constructors below
// build each variant; optional fields use pointers so that zero values
// (a session complete after zero reviews) still serialize.
type ServerMessage struct {
	Type string `json:"type"`

	// session_started
	CardCount *int `json:"card_count,omitempty"`

	// state_changed
	State State `json:"state,omitempty"`

	// card_presented
	Card *CardPresentation `json:"card,omitempty"`

	// evaluation
	IsCorrect       *bool    `json:"is_correct,omitempty"`
	Score           *float64 `json:"score,omitempty"`
	Feedback        string   `json:"feedback,omitempty"`
	SuggestedRating string   `json:"suggested_rating,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// session_complete
	CardsReviewed *int `json:"cards_reviewed,omitempty"`
}

func sessionStartedMsg(cardCount int) ServerMessage {
	return ServerMessage{Type: TypeSessionStarted, CardCount: &cardCount}
}

func sessionEndedMsg() ServerMessage {
	return ServerMessage{Type: TypeSessionEnded}
}

func stateChangedMsg(state State) ServerMessage {
	return ServerMessage{Type: TypeStateChanged, State: state}
}

func cardPresentedMsg(card CardPresentation) ServerMessage {
	return ServerMessage{Type: TypeCardPresented, Card: &card}
}

func evaluationMsg(isCorrect bool, score float64, feedback, suggestedRating string) ServerMessage {
	return ServerMessage{
		Type:            TypeEvaluation,
		IsCorrect:       &isCorrect,
		Score:           &score,
		Feedback:        feedback,
		SuggestedRating: suggestedRating,
	}
}

func errorMsg(format string, args ...interface{}) ServerMessage {
	return ServerMessage{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

func sessionCompleteMsg(cardsReviewed int) ServerMessage {
	return ServerMessage{Type: TypeSessionComplete, CardsReviewed: &cardsReviewed}
}
