package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/services/ai"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AssistantService is the conversation surface the handler depends on
type AssistantService interface {
	Respond(ctx context.Context, userID uuid.UUID, message string) (*ai.TurnResult, error)
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*ai.Snapshot, error)
}

// AssistantHandler exposes the AI chat assistant over HTTP
type AssistantHandler struct {
	assistant AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// RegisterRoutes registers assistant routes on the given router
// The router should already have the /assistant prefix
func (h *AssistantHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetSnapshot).Methods("GET")
	r.HandleFunc("/message", h.PostMessage).Methods("POST")
}

// MessageRequest is one user message to the assistant
type MessageRequest struct {
	Message string `json:"message"`
}

// PostMessage runs one assistant conversation turn
func (h *AssistantHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	result, err := h.assistant.Respond(r.Context(), user.ID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrEmptyMessage):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message cannot be empty")
		case errors.Is(err, ai.ErrDailyQuotaExceeded):
			respondJSONError(w, http.StatusTooManyRequests, "Quota Exceeded", "Daily token quota exceeded")
		case errors.Is(err, ai.ErrModelUnavailable):
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Assistant is temporarily unavailable")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process message")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetSnapshot returns recent conversation history and remaining quota
func (h *AssistantHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	snapshot, err := h.assistant.GetSnapshot(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load conversation")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
