package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/orchestrator"
	"github.com/MohamedImran7868/Mira/pkg/utils"
)

// PromptForInput is returned for blank input without touching the
// classification or generation capabilities.
const PromptForInput = "Please share how you're feeling."

// Handler serves the whole-response chat endpoints.
type Handler struct {
	orchestrator *orchestrator.Service
}

// New creates the chat handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orchestrator: orch}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/session/{sessionID}/close", h.handleCloseSession)
	r.Post("/model", h.handleTurn)
}

// handleCreateSession mints a fresh session id. Contexts themselves are
// created lazily on the first turn.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"sessionId": uuid.NewString()})
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Input     string `json:"input"`
}

type turnResponse struct {
	SessionID      string               `json:"sessionId"`
	Result         string               `json:"result"`
	Emotions       []chat.EmotionSignal `json:"emotions"`
	EmotionSummary string               `json:"emotionSummary"`
}

// handleTurn runs one turn in whole-response mode.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Blank input never reaches the orchestrator.
	if strings.TrimSpace(payload.Input) == "" {
		utils.RespondJSON(w, http.StatusOK, turnResponse{
			SessionID: payload.SessionID,
			Result:    PromptForInput,
		})
		return
	}

	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	result, err := h.orchestrator.HandleTurnSync(r.Context(), payload.SessionID, payload.Input)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{
		SessionID:      payload.SessionID,
		Result:         result.Reply,
		Emotions:       result.Emotions,
		EmotionSummary: result.EmotionSummary,
	})
}

type closeResponse struct {
	SessionID string               `json:"sessionId"`
	Summary   *chat.SessionSummary `json:"summary"`
}

// handleCloseSession seals the session and reports the dominant emotion.
// Repeat closes return a nil summary.
func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	summary, err := h.orchestrator.CloseSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to close session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, closeResponse{SessionID: sessionID, Summary: summary})
}
