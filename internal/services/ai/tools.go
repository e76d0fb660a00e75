package ai

import (
	"context"
	"encoding/json"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tool names declared to the model
const (
	ToolUserStats          = "get_user_stats"
	ToolSiteStats          = "get_site_stats"
	ToolBestProfitEvents   = "get_best_profit_events"
	ToolRecentApplications = "get_recent_applications"
)

// StatsToolbox exposes the statistics queries as model-callable tools scoped
// to one user. Every dispatch returns JSON; storage failures and unknown
// function names become structured error payloads so a failed tool call never
// aborts the conversation turn.
type StatsToolbox struct {
	stats  database.StatsRepositoryInterface
	logger *zap.Logger
}

// NewStatsToolbox creates a toolbox over the stats repository
func NewStatsToolbox(stats database.StatsRepositoryInterface, logger *zap.Logger) *StatsToolbox {
	return &StatsToolbox{stats: stats, logger: logger}
}

// Definitions returns the tool declarations sent to the model
func (t *StatsToolbox) Definitions() []ToolDefinition {
	limitParam := map[string]any{
		"type":        "integer",
		"description": "Maximum number of entries to return",
	}
	return []ToolDefinition{
		{
			Name:        ToolUserStats,
			Description: "Get the user's raffle application totals, wins, losses and win rate",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"period": map[string]any{
						"type":        "string",
						"enum":        []string{"all", "month", "week"},
						"description": "Time window for the statistics",
					},
				},
			},
		},
		{
			Name:        ToolSiteStats,
			Description: "Get per-site win rates for the user's decided applications, best sites first",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"limit": limitParam},
			},
		},
		{
			Name:        ToolBestProfitEvents,
			Description: "Get the user's applications with the highest recorded resale profit",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"limit": limitParam},
			},
		},
		{
			Name:        ToolRecentApplications,
			Description: "Get the user's most recent applications with their current result status",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"limit": limitParam},
			},
		},
	}
}

// toolError is the structured payload returned into the model conversation
// when a tool call cannot produce data
type toolError struct {
	Error toolErrorBody `json:"error"`
}

type toolErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Function string `json:"function,omitempty"`
}

// DispatcherFor returns a ToolDispatcher bound to one user
func (t *StatsToolbox) DispatcherFor(userID uuid.UUID) ToolDispatcher {
	return func(ctx context.Context, name string, args json.RawMessage) string {
		result := t.dispatch(ctx, userID, name, args)
		if t.logger != nil {
			t.logger.Debug("assistant_tool_dispatched",
				zap.String("function", name),
				zap.String("user_id", userID.String()),
				zap.Int("result_length", len(result)),
			)
		}
		return result
	}
}

func (t *StatsToolbox) dispatch(ctx context.Context, userID uuid.UUID, name string, args json.RawMessage) string {
	var params struct {
		Period string `json:"period"`
		Limit  int    `json:"limit"`
	}
	// Malformed arguments fall through with zero values; every tool has
	// usable defaults.
	_ = json.Unmarshal(args, &params)

	switch name {
	case ToolUserStats:
		stats, err := t.stats.UserStats(ctx, userID, statsPeriod(params.Period))
		return t.encode(name, stats, err)
	case ToolSiteStats:
		sites, err := t.stats.SiteStats(ctx, userID, params.Limit)
		return t.encode(name, sites, err)
	case ToolBestProfitEvents:
		events, err := t.stats.BestProfitEvents(ctx, userID, params.Limit)
		return t.encode(name, events, err)
	case ToolRecentApplications:
		apps, err := t.stats.RecentApplications(ctx, userID, params.Limit)
		return t.encode(name, apps, err)
	default:
		return encodeToolError(toolError{Error: toolErrorBody{
			Code:     "unknown_function",
			Message:  "the requested function is not available",
			Function: name,
		}})
	}
}

func (t *StatsToolbox) encode(name string, data any, err error) string {
	if err != nil {
		if t.logger != nil {
			t.logger.Warn("assistant_tool_query_failed",
				zap.String("function", name),
				zap.Error(err),
			)
		}
		return encodeToolError(toolError{Error: toolErrorBody{
			Code:     "query_failed",
			Message:  "the statistics query could not be completed",
			Function: name,
		}})
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return encodeToolError(toolError{Error: toolErrorBody{
			Code:     "encoding_failed",
			Message:  "the statistics result could not be encoded",
			Function: name,
		}})
	}
	return string(encoded)
}

func encodeToolError(te toolError) string {
	encoded, err := json.Marshal(te)
	if err != nil {
		return `{"error":{"code":"internal"}}`
	}
	return string(encoded)
}

func statsPeriod(raw string) database.StatsPeriod {
	switch database.StatsPeriod(raw) {
	case database.PeriodMonth:
		return database.PeriodMonth
	case database.PeriodWeek:
		return database.PeriodWeek
	default:
		return database.PeriodAll
	}
}
