package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/recall/internal/session"
	"github.com/scrypster/recall/internal/storage"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 10 * time.Second

// SessionHandlers upgrades /ws connections and runs one review session
// machine per connection. All reads and writes happen on the connection
// goroutine, so the machine needs no locking.
type SessionHandlers struct {
	store        storage.CardStore
	evaluator    session.Evaluator
	defaultLimit int
}

// NewSessionHandlers creates a SessionHandlers instance.
func NewSessionHandlers(store storage.CardStore, evaluator session.Evaluator, defaultLimit int) *SessionHandlers {
	return &SessionHandlers{
		store:        store,
		evaluator:    evaluator,
		defaultLimit: defaultLimit,
	}
}

// ServeHTTP handles WebSocket upgrade requests for review sessions.
func (h *SessionHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{ //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	machine := session.NewMachine(h.store, h.evaluator, h.defaultLimit)
	ctx := r.Context()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			// Transport errors and client closes end the session.
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
			} else if !errors.Is(err, context.Canceled) {
				log.Printf("session: read failed: %v", err)
			}
			return
		}

		// Binary frames are audio; buffer them without a response.
		if msgType == websocket.MessageBinary {
			machine.AppendAudio(data)
			continue
		}

		msg, err := session.ParseClientMessage(data)
		if err != nil {
			// Malformed frames get an error response; the connection
			// stays open.
			if werr := h.write(ctx, conn, session.ServerMessage{
				Type:    session.TypeError,
				Message: err.Error(),
			}); werr != nil {
				return
			}
			continue
		}

		for _, out := range machine.Handle(ctx, msg) {
			if err := h.write(ctx, conn, out); err != nil {
				log.Printf("session: write failed: %v", err)
				return
			}
		}
	}
}

func (h *SessionHandlers) write(ctx context.Context, conn *websocket.Conn, msg session.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
