package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/dateutil"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/dropnote/dropnote/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// storedTimeLayout matches the storage shape produced by
// dateutil.FromInputFormat. Stored values are naive wall-clock times, so
// scheduling interprets them in the server's local zone.
const storedTimeLayout = "2006-01-02T15:04:05"

// reminderLead is how long before an event opens its reminder fires.
const reminderLead = time.Hour

// EventHandler handles drop event requests
type EventHandler struct {
	events database.EventRepositoryInterface
	jobs   queue.JobQueue
	logger *zap.Logger
}

// NewEventHandler creates a new event handler. jobs may be nil when no queue
// is configured; reminders are then skipped.
func NewEventHandler(events database.EventRepositoryInterface, jobs queue.JobQueue, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, jobs: jobs, logger: logger}
}

// RegisterRoutes registers event routes on the given router
// The router should already have the /events prefix
func (h *EventHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListEvents).Methods("GET")
	r.HandleFunc("", h.CreateEvent).Methods("POST")
	r.HandleFunc("/{id}", h.GetEvent).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateEvent).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteEvent).Methods("DELETE")
}

const (
	// MaxEventTitleLength is the maximum length for event titles
	MaxEventTitleLength = 300
)

// CreateEventRequest represents a create event request. StartsAt and EndsAt
// are naive local datetimes in input format.
type CreateEventRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=300"`
	Site     string  `json:"site" validate:"required,min=1,max=100"`
	URL      *string `json:"url,omitempty" validate:"omitempty,url"`
	StartsAt string  `json:"starts_at" validate:"required,datetime_input"`
	EndsAt   string  `json:"ends_at" validate:"required,datetime_input"`
}

// UpdateEventRequest represents an update event request
type UpdateEventRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Site     *string `json:"site,omitempty" validate:"omitempty,min=1,max=100"`
	URL      *string `json:"url,omitempty" validate:"omitempty,url"`
	StartsAt *string `json:"starts_at,omitempty" validate:"omitempty,datetime_input"`
	EndsAt   *string `json:"ends_at,omitempty" validate:"omitempty,datetime_input"`
}

// ListEvents lists events, optionally bounded to a date range
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from := dateutil.ToInputFormat(r.URL.Query().Get("from"))
	to := dateutil.ToInputFormat(r.URL.Query().Get("to"))

	events, err := h.events.List(ctx, from, to)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// CreateEvent creates a new drop event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	req.Site = validation.SanitizeText(req.Site)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	event := &models.Event{
		Title:     req.Title,
		Site:      req.Site,
		URL:       req.URL,
		StartsAt:  dateutil.FromInputFormat(req.StartsAt),
		EndsAt:    dateutil.FromInputFormat(req.EndsAt),
		CreatedBy: user.ID,
	}

	if err := h.events.Create(r.Context(), event); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create event")
		return
	}

	h.scheduleReminder(r, event)

	respondJSON(w, http.StatusCreated, event)
}

// scheduleReminder enqueues a reminder ahead of the event's start. The job
// expires at the start time, so late delivery is dropped by the worker.
// Failures are logged and never fail the request.
func (h *EventHandler) scheduleReminder(r *http.Request, event *models.Event) {
	if h.jobs == nil {
		return
	}

	startsAt, err := time.ParseInLocation(storedTimeLayout, event.StartsAt, time.Local)
	if err != nil {
		h.logger.Warn("event_start_time_unparseable_reminder_skipped",
			zap.String("event_id", event.ID.String()),
			zap.String("starts_at", event.StartsAt),
		)
		return
	}

	job := queue.NewEventReminderJob(event.ID, startsAt.Add(-reminderLead), startsAt)
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("failed_to_enqueue_event_reminder_job",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

// GetEvent retrieves one event by ID
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid event ID")
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Event not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve event")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// UpdateEvent updates an event
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid event ID")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	ctx := r.Context()
	event, err := h.events.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Event not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve event")
		return
	}

	if req.Title != nil {
		event.Title = validation.SanitizeText(*req.Title)
	}
	if req.Site != nil {
		event.Site = validation.SanitizeText(*req.Site)
	}
	if req.URL != nil {
		event.URL = req.URL
	}
	if req.StartsAt != nil {
		event.StartsAt = dateutil.FromInputFormat(*req.StartsAt)
	}
	if req.EndsAt != nil {
		event.EndsAt = dateutil.FromInputFormat(*req.EndsAt)
	}

	if err := h.events.Update(ctx, event); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update event")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// DeleteEvent removes an event
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid event ID")
		return
	}

	if err := h.events.Delete(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Event not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete event")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// validationMessage renders the first validation failure as a short message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "Invalid field: " + strings.ToLower(verrs[0].Field())
	}
	return "Validation failed"
}
