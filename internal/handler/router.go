package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/MohamedImran7868/Mira/internal/handler/chat"
	streamHandler "github.com/MohamedImran7868/Mira/internal/handler/stream"
	wsHandler "github.com/MohamedImran7868/Mira/internal/handler/ws"
	middlewarePkg "github.com/MohamedImran7868/Mira/internal/middleware"
	"github.com/MohamedImran7868/Mira/internal/service/orchestrator"
)

// NewRouter wires HTTP routes to the turn orchestrator.
func NewRouter(orch *orchestrator.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatH := chatHandler.New(orch)
	streamH := streamHandler.New(orch)
	wsH := wsHandler.New(orch)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		wsH.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
