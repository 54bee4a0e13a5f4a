package ws

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chathandler "github.com/MohamedImran7868/Mira/internal/handler/chat"
	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/orchestrator"
)

// Handler runs chat turns over a bidirectional websocket. Each text frame
// from the client drives one turn; reply chunks stream back as they arrive.
type Handler struct {
	orchestrator *orchestrator.Service
	upgrader     websocket.Upgrader
}

// New creates the websocket handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{
		orchestrator: orch,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outgoingMessage struct {
	Type           string               `json:"type"`
	SessionID      string               `json:"sessionId,omitempty"`
	Content        string               `json:"content,omitempty"`
	Emotions       []chat.EmotionSignal `json:"emotions,omitempty"`
	EmotionSummary string               `json:"emotionSummary,omitempty"`
	Summary        *chat.SessionSummary `json:"summary,omitempty"`
	Timestamp      int64                `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed for session=%s: %v", sessionID, err)
			}
			return
		}

		switch msg.Type {
		case "message":
			h.runTurn(r, conn, sessionID, msg.Text)
		case "close":
			summary, closeErr := h.orchestrator.CloseSession(r.Context(), sessionID)
			if closeErr != nil {
				h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Content: "failed to close session"})
				continue
			}
			h.send(conn, outgoingMessage{Type: "closed", SessionID: sessionID, Summary: summary})
			return
		default:
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Content: "unknown message type"})
		}
	}
}

func (h *Handler) runTurn(r *http.Request, conn *websocket.Conn, sessionID, text string) {
	turn, err := h.orchestrator.HandleTurn(r.Context(), sessionID, text)
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptyInput) {
			h.send(conn, outgoingMessage{Type: "prompt", SessionID: sessionID, Content: chathandler.PromptForInput})
			return
		}
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Content: "failed to start turn"})
		return
	}
	defer turn.Close()

	h.send(conn, outgoingMessage{
		Type:           "emotion",
		SessionID:      sessionID,
		Emotions:       turn.Emotions,
		EmotionSummary: turn.EmotionSummary,
	})

	for {
		chunk, recvErr := turn.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[ws] turn aborted for session=%s: %v", sessionID, recvErr)
			return
		}

		if chunk.Content != "" {
			h.send(conn, outgoingMessage{Type: "chunk", SessionID: sessionID, Content: chunk.Content})
		}
		if chunk.Done {
			break
		}
	}

	h.send(conn, outgoingMessage{Type: "complete", SessionID: sessionID})
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
