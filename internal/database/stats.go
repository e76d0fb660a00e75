package database

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// StatsPeriod bounds a statistics query to a rolling window
type StatsPeriod string

const (
	// PeriodAll covers the user's whole history
	PeriodAll StatsPeriod = "all"
	// PeriodMonth covers the current calendar month
	PeriodMonth StatsPeriod = "month"
	// PeriodWeek covers the current ISO week
	PeriodWeek StatsPeriod = "week"
)

// StatsRepository runs read-only aggregations over applications and events.
// These queries back the assistant's callable tools and the dashboard.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UserStats counts decided applications, wins, losses and the win rate for a
// user. Only terminal results (won/lost) are counted; pending applications are
// excluded so the win rate reflects decided raffles.
func (r *StatsRepository) UserStats(ctx context.Context, userID uuid.UUID, period StatsPeriod) (*models.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE result_status = 'won'),
			COUNT(*) FILTER (WHERE result_status = 'lost')
		FROM applications
		WHERE user_id = $1 AND result_status IN ('won', 'lost')
	` + periodClause(period)

	stats := &models.UserStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalApplications,
		&stats.WonEvents,
		&stats.LostEvents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}

	stats.EventWinRate = FormatWinRate(stats.WonEvents, stats.LostEvents)
	return stats, nil
}

// SiteStats groups decided applications by site and returns the top limit
// sites by descending win rate
func (r *StatsRepository) SiteStats(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SiteStats, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
		SELECT e.site,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE a.result_status = 'won')
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1 AND a.result_status IN ('won', 'lost')
		GROUP BY e.site
		ORDER BY COUNT(*) FILTER (WHERE a.result_status = 'won')::float / COUNT(*) DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query site stats: %w", err)
	}
	defer rows.Close()

	var sites []*models.SiteStats
	for rows.Next() {
		s := &models.SiteStats{}
		if err := rows.Scan(&s.Site, &s.Total, &s.Won); err != nil {
			return nil, fmt.Errorf("failed to scan site stats: %w", err)
		}
		s.WinRate = FormatWinRate(s.Won, s.Total-s.Won)
		sites = append(sites, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site stats: %w", err)
	}

	return sites, nil
}

// BestProfitEvents returns the top limit applications with positive recorded
// profit, highest first
func (r *StatsRepository) BestProfitEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ProfitEvent, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
		SELECT e.title, e.site, a.profit
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1 AND a.profit IS NOT NULL AND a.profit > 0
		ORDER BY a.profit DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query profit events: %w", err)
	}
	defer rows.Close()

	var events []*models.ProfitEvent
	for rows.Next() {
		e := &models.ProfitEvent{}
		if err := rows.Scan(&e.EventTitle, &e.Site, &e.Profit); err != nil {
			return nil, fmt.Errorf("failed to scan profit event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profit events: %w", err)
	}

	return events, nil
}

// RecentApplications returns the user's most recent limit applications with
// their current result status, regardless of outcome
func (r *StatsRepository) RecentApplications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Application, error) {
	return NewApplicationRepository(r.db).GetByUserID(ctx, userID, limit)
}

func periodClause(period StatsPeriod) string {
	switch period {
	case PeriodMonth:
		return " AND applied_at >= date_trunc('month', now())"
	case PeriodWeek:
		return " AND applied_at >= date_trunc('week', now())"
	default:
		return ""
	}
}

// FormatWinRate renders wins/(wins+losses) as a percentage string rounded to
// one decimal ("66.7%"). With no decided applications it returns "0%" rather
// than dividing by zero.
func FormatWinRate(wins, losses int) string {
	decided := wins + losses
	if decided == 0 {
		return "0%"
	}
	rate := math.Round(float64(wins)/float64(decided)*1000) / 10
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
