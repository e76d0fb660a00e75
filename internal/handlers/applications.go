package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ApplicationHandler handles raffle application requests
type ApplicationHandler struct {
	applications *database.ApplicationRepository
	events       *database.EventRepository
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *database.ApplicationRepository, events *database.EventRepository) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, events: events}
}

// RegisterRoutes registers application routes on the given router.
// Event-scoped creation is registered separately via RegisterEventRoutes.
func (h *ApplicationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListApplications).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateResult).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteApplication).Methods("DELETE")
}

// RegisterEventRoutes registers routes nested under /events
func (h *ApplicationHandler) RegisterEventRoutes(r *mux.Router) {
	r.HandleFunc("/{id}/applications", h.CreateApplication).Methods("POST")
}

// UpdateResultRequest records the outcome of an application
type UpdateResultRequest struct {
	ResultStatus string   `json:"result_status" validate:"required,result_status"`
	Profit       *float64 `json:"profit,omitempty"`
}

// CreateApplication records that the current user applied to an event
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	eventID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid event ID")
		return
	}

	ctx := r.Context()
	if _, err := h.events.GetByID(ctx, eventID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Event not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve event")
		return
	}

	app := &models.Application{
		ID:           uuid.New(),
		UserID:       user.ID,
		EventID:      eventID,
		Applied:      true,
		ResultStatus: models.ResultPending,
	}

	if err := h.applications.Create(ctx, app); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			respondJSONError(w, http.StatusConflict, "Conflict", "Already applied to this event")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create application")
		return
	}

	respondJSON(w, http.StatusCreated, app)
}

// ListApplications lists the current user's applications, most recent first
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	apps, err := h.applications.GetByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve applications")
		return
	}

	respondJSON(w, http.StatusOK, apps)
}

// UpdateResult records the win/loss outcome and profit of an application
func (h *ApplicationHandler) UpdateResult(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid application ID")
		return
	}

	var req UpdateResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	status := models.ResultStatus(req.ResultStatus)
	if status != models.ResultWon && req.Profit != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Profit is only recorded for won applications")
		return
	}

	ctx := r.Context()
	app, err := h.applications.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Application not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve application")
		return
	}
	if app.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Application belongs to another user")
		return
	}

	if err := h.applications.UpdateResult(ctx, id, status, req.Profit); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update application")
		return
	}

	app.ResultStatus = status
	app.Profit = req.Profit
	respondJSON(w, http.StatusOK, app)
}

// DeleteApplication removes one of the current user's applications
func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid application ID")
		return
	}

	ctx := r.Context()
	app, err := h.applications.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Application not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve application")
		return
	}
	if app.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Application belongs to another user")
		return
	}

	if err := h.applications.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete application")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
