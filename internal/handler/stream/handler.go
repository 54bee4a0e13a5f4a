package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	chathandler "github.com/MohamedImran7868/Mira/internal/handler/chat"
	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/orchestrator"
	"github.com/MohamedImran7868/Mira/pkg/utils"
)

// Handler streams turn replies via Server-Sent Events.
type Handler struct {
	orchestrator *orchestrator.Service
}

// New creates the stream handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orchestrator: orch}
}

// StreamResponse is one SSE payload.
type StreamResponse struct {
	Event          string               `json:"event"`
	Content        string               `json:"content,omitempty"`
	SessionID      string               `json:"sessionId,omitempty"`
	Emotions       []chat.EmotionSignal `json:"emotions,omitempty"`
	EmotionSummary string               `json:"emotionSummary,omitempty"`
	Finished       bool                 `json:"finished,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// HandleStreamRequest runs one turn and forwards its chunks as SSE events:
// "start" with the detected emotions, "delta" per fragment, "message" with
// the assembled reply, then "end".
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	turn, err := h.orchestrator.HandleTurn(ctx, sessionID, userMessage)
	if errors.Is(err, orchestrator.ErrEmptyInput) {
		// Blank input gets the same fixed prompt as the other transports.
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   chathandler.PromptForInput,
		})
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "end",
			SessionID: sessionID,
			Finished:  true,
		})
		return nil
	}
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to start turn: %v", err))
		return err
	}
	defer turn.Close()

	h.sendSSE(w, flusher, StreamResponse{
		Event:          "start",
		SessionID:      sessionID,
		Emotions:       turn.Emotions,
		EmotionSummary: turn.EmotionSummary,
		Content:        fmt.Sprintf("I sense you're feeling %s.", turn.EmotionSummary),
	})

	var reply strings.Builder
	for {
		chunk, recvErr := turn.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			// The client went away; nothing left to write.
			log.Printf("[stream] turn aborted for session=%s: %v", sessionID, recvErr)
			return nil
		}

		reply.WriteString(chunk.Content)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
		if chunk.Done {
			break
		}
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply.String(),
	})
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

// sendSSE writes one Server-Sent Event.
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError reports an error via Server-Sent Events.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
