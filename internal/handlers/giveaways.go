package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/dropnote/dropnote/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GiveawayHandler handles community giveaway campaign requests
type GiveawayHandler struct {
	giveaways database.GiveawayRepositoryInterface
	jobs      queue.JobQueue
	logger    *zap.Logger
}

// NewGiveawayHandler creates a new giveaway handler. jobs may be nil when no
// queue is configured; giveaways created without a queue are never drawn.
func NewGiveawayHandler(giveaways database.GiveawayRepositoryInterface, jobs queue.JobQueue, logger *zap.Logger) *GiveawayHandler {
	return &GiveawayHandler{giveaways: giveaways, jobs: jobs, logger: logger}
}

// RegisterRoutes registers giveaway routes on the given router
// The router should already have the /giveaways prefix
func (h *GiveawayHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGiveaways).Methods("GET")
	r.HandleFunc("", h.CreateGiveaway).Methods("POST")
	r.HandleFunc("/{id}", h.GetGiveaway).Methods("GET")
	r.HandleFunc("/{id}/entries", h.EnterGiveaway).Methods("POST")
	r.HandleFunc("/{id}/entries", h.ListEntries).Methods("GET")
}

// CreateGiveawayRequest represents a create giveaway request
type CreateGiveawayRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=300"`
	Description string    `json:"description" validate:"max=2000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	WinnerCount int       `json:"winner_count" validate:"required,min=1,max=100"`
}

// ListGiveaways lists all giveaway campaigns, newest first
func (h *GiveawayHandler) ListGiveaways(w http.ResponseWriter, r *http.Request) {
	giveaways, err := h.giveaways.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve giveaways")
		return
	}

	respondJSON(w, http.StatusOK, giveaways)
}

// CreateGiveaway creates a new giveaway campaign
func (h *GiveawayHandler) CreateGiveaway(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateGiveawayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	req.Description = validation.SanitizeText(req.Description)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "ends_at must be after starts_at")
		return
	}

	giveaway := &models.Giveaway{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		WinnerCount: req.WinnerCount,
		CreatedBy:   user.ID,
	}

	if err := h.giveaways.Create(r.Context(), giveaway); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create giveaway")
		return
	}

	// Schedule the draw at the campaign's close. An enqueue failure does not
	// fail the request; the giveaway exists and can be drawn manually.
	if h.jobs != nil {
		job := queue.NewGiveawayDrawJob(giveaway.ID, giveaway.EndsAt)
		if err := h.jobs.Enqueue(r.Context(), job); err != nil {
			h.logger.Error("failed_to_enqueue_giveaway_draw_job",
				zap.String("giveaway_id", giveaway.ID.String()),
				zap.Error(err),
			)
		}
	}

	respondJSON(w, http.StatusCreated, giveaway)
}

// GetGiveaway retrieves one giveaway by ID
func (h *GiveawayHandler) GetGiveaway(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid giveaway ID")
		return
	}

	giveaway, err := h.giveaways.GetByID(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Giveaway not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve giveaway")
		return
	}

	respondJSON(w, http.StatusOK, giveaway)
}

// EnterGiveaway records the current user's entry. Entries close once the
// campaign ends or winners have been drawn.
func (h *GiveawayHandler) EnterGiveaway(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid giveaway ID")
		return
	}

	ctx := r.Context()
	giveaway, err := h.giveaways.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Giveaway not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve giveaway")
		return
	}
	if giveaway.Drawn || time.Now().After(giveaway.EndsAt) {
		respondJSONError(w, http.StatusConflict, "Conflict", "Giveaway is closed")
		return
	}

	entry, err := h.giveaways.AddEntry(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyEntered) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Already entered this giveaway")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enter giveaway")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// ListEntries lists entries for a giveaway
func (h *GiveawayHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid giveaway ID")
		return
	}

	entries, err := h.giveaways.ListEntries(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
