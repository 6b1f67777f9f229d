// Package server provides HTTP server initialization and lifecycle
// management for the REST API and the review-session WebSocket.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0). The server
// shuts down gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store storage.CardStore, manager *llm.Manager) (string, error) {
	mux := http.NewServeMux()

	cardHandlers := handlers.NewCardHandlers(store)
	reviewHandlers := handlers.NewReviewHandlers(store, manager, cfg.Review.DefaultSessionLimit)
	ingestHandlers := handlers.NewIngestHandlers(store, manager)
	importHandlers := handlers.NewImportHandlers(store)
	llmHandlers := handlers.NewLLMHandlers(manager)
	sessionHandlers := handlers.NewSessionHandlers(store, manager, cfg.Review.DefaultSessionLimit)

	// API routes behind auth.
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/cards", cardHandlers.ListCards)
	apiMux.HandleFunc("POST /api/cards", cardHandlers.CreateCard)
	apiMux.HandleFunc("GET /api/cards/{id}", cardHandlers.GetCard)
	apiMux.HandleFunc("PATCH /api/cards/{id}", cardHandlers.UpdateCard)
	apiMux.HandleFunc("DELETE /api/cards/{id}", cardHandlers.DeleteCard)
	apiMux.HandleFunc("GET /api/stats", cardHandlers.GetStats)

	apiMux.HandleFunc("GET /api/review/next", reviewHandlers.NextCards)
	apiMux.HandleFunc("POST /api/review/submit", reviewHandlers.SubmitReview)
	apiMux.HandleFunc("POST /api/review/evaluate", reviewHandlers.EvaluateAnswer)

	apiMux.HandleFunc("POST /api/ingest/text", ingestHandlers.IngestText)
	apiMux.HandleFunc("POST /api/ingest/confirm", ingestHandlers.ConfirmIngest)
	apiMux.HandleFunc("POST /api/import/markdown", importHandlers.ImportMarkdown)

	apiMux.HandleFunc("GET /api/llm/providers", llmHandlers.ListProviders)

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Health endpoint stays outside auth so load balancers can reach it.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","llm_available":%t}`, manager.HasAvailableProvider())
	})

	// Review session WebSocket.
	mux.Handle("/ws", sessionHandlers)

	// Wrap the server with rate limiting, then security headers.
	rateLimiter := handlers.NewRateLimiter(50, 100)
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	return actualAddr, nil
}
