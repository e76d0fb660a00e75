package handlers

import (
	"net/http"
	"strconv"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/gorilla/mux"
)

// StatsHandler serves personal raffle statistics
type StatsHandler struct {
	stats database.StatsRepositoryInterface
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats database.StatsRepositoryInterface) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// RegisterRoutes registers stats routes on the given router
// The router should already have the /stats prefix
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/sites", h.GetSiteStats).Methods("GET")
	r.HandleFunc("/profits", h.GetBestProfits).Methods("GET")
}

// GetSummary returns the current user's win/loss summary for a period
func (h *StatsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	period := database.PeriodAll
	switch raw := r.URL.Query().Get("period"); raw {
	case "", string(database.PeriodAll):
	case string(database.PeriodMonth):
		period = database.PeriodMonth
	case string(database.PeriodWeek):
		period = database.PeriodWeek
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid period: must be all, month, or week")
		return
	}

	stats, err := h.stats.UserStats(r.Context(), user.ID, period)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetSiteStats returns per-site win rates, best rate first
func (h *StatsHandler) GetSiteStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}

	stats, err := h.stats.SiteStats(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetBestProfits returns the user's most profitable wins
func (h *StatsHandler) GetBestProfits(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit, ok := parseLimit(w, r, 10)
	if !ok {
		return
	}

	events, err := h.stats.BestProfitEvents(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid limit parameter")
		return 0, false
	}
	return limit, true
}
