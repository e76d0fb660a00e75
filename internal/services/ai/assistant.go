package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// HistoryLimit is the number of prior turns replayed to the model
	HistoryLimit = 50

	// GuideSlug identifies the reference document injected for app questions
	GuideSlug = "assistant-guide"

	systemPrompt = "You are the Dropnote assistant. You help community members understand " +
		"their raffle application history, win rates, resale profits and how to use the app. " +
		"Use the provided functions to look up the user's own statistics when asked. " +
		"Answer in the user's language. Be concise."
)

// guideKeywords is the fixed vocabulary that triggers injection of the guide
// document. Matching is case-insensitive substring against the raw message.
var guideKeywords = []string{
	"使い方", "ヘルプ", "機能", "登録方法", "やり方", "設定",
	"how to", "help", "usage", "feature", "dropnote",
}

var (
	// ErrEmptyMessage is returned for blank input; nothing is persisted
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrDailyQuotaExceeded is returned when the user's token budget for the
	// day is spent; distinguishable from validation errors so callers can
	// show a "come back tomorrow" message
	ErrDailyQuotaExceeded = errors.New("daily token quota exceeded")
	// ErrModelUnavailable is the generic communication failure surfaced when
	// the language-model service errors; the turn is not persisted
	ErrModelUnavailable = errors.New("assistant communication failed")
)

// TurnResult is the caller-facing outcome of one conversation turn
type TurnResult struct {
	Message    string `json:"message"`
	TokensUsed int    `json:"tokens_used"`
	Remaining  int    `json:"remaining"`
}

// Snapshot is the history-and-quota read model
type Snapshot struct {
	History    []*models.ConversationTurn `json:"history"`
	Remaining  int                        `json:"remaining"`
	DailyLimit int                        `json:"daily_limit"`
}

// Assistant drives one conversation turn: quota check, history replay,
// optional guide augmentation, model invocation with tools, persistence.
type Assistant struct {
	provider Provider
	history  database.ChatHistoryRepositoryInterface
	usage    database.TokenUsageRepositoryInterface
	guide    database.GuideRepositoryInterface
	toolbox  *StatsToolbox
	logger   *zap.Logger
}

// NewAssistant creates an assistant service
func NewAssistant(provider Provider, history database.ChatHistoryRepositoryInterface, usage database.TokenUsageRepositoryInterface, guide database.GuideRepositoryInterface, toolbox *StatsToolbox, logger *zap.Logger) *Assistant {
	return &Assistant{
		provider: provider,
		history:  history,
		usage:    usage,
		guide:    guide,
		toolbox:  toolbox,
		logger:   logger,
	}
}

// CheckLimit reports whether the user may spend tokens today and how many
// remain. Storage errors fail open: the user gets the full default quota and
// the error is logged, never surfaced. This is documented policy, availability
// over strictness.
func (a *Assistant) CheckLimit(ctx context.Context, userID uuid.UUID) (allowed bool, remaining int) {
	usage, err := a.usage.GetToday(ctx, userID)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("token_quota_check_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return true, a.usage.DefaultLimit()
	}
	if usage == nil {
		return true, a.usage.DefaultLimit()
	}
	remaining = usage.Remaining()
	return remaining > 0, remaining
}

// Respond handles one conversation turn. On quota exhaustion it returns
// ErrDailyQuotaExceeded with nothing persisted; on model failure it returns
// ErrModelUnavailable with nothing persisted.
func (a *Assistant) Respond(ctx context.Context, userID uuid.UUID, message string) (*TurnResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	allowed, remaining := a.CheckLimit(ctx, userID)
	if !allowed {
		return nil, ErrDailyQuotaExceeded
	}

	history, err := a.history.Recent(ctx, userID, HistoryLimit)
	if err != nil {
		// A missing transcript degrades to a fresh conversation
		if a.logger != nil {
			a.logger.Warn("assistant_history_load_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		history = nil
	}

	modelMessage := a.augment(ctx, message)
	messages := a.buildMessages(history, modelMessage)

	ctx = context.WithValue(ctx, userIDContextKey, userID)
	resp, err := a.provider.Chat(ctx, messages, a.toolbox.Definitions(), a.toolbox.DispatcherFor(userID))
	if err != nil {
		if a.logger != nil {
			a.logger.Error("assistant_model_call_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return nil, ErrModelUnavailable
	}

	tokensUsed := a.estimateTurnCost(messages, resp.Message)

	// The persisted user turn stores the raw message, not the augmented copy
	if _, err := a.history.Append(ctx, userID, models.RoleUser, message, 0); err != nil {
		if a.logger != nil {
			a.logger.Error("assistant_persist_user_turn_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}
	if _, err := a.history.Append(ctx, userID, models.RoleAssistant, resp.Message, tokensUsed); err != nil {
		if a.logger != nil {
			a.logger.Error("assistant_persist_assistant_turn_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}
	if err := a.usage.IncrementToday(ctx, userID, tokensUsed); err != nil {
		if a.logger != nil {
			a.logger.Error("token_usage_record_failed",
				zap.String("user_id", userID.String()),
				zap.Int("tokens", tokensUsed),
				zap.Error(err),
			)
		}
	}

	remaining -= tokensUsed
	if remaining < 0 {
		remaining = 0
	}

	if a.logger != nil {
		a.logger.Info("assistant_turn_completed",
			zap.String("user_id", userID.String()),
			zap.Int("tokens_used", tokensUsed),
			zap.Int("remaining", remaining),
			zap.String("tool_called", resp.ToolCalled),
		)
	}

	return &TurnResult{
		Message:    resp.Message,
		TokensUsed: tokensUsed,
		Remaining:  remaining,
	}, nil
}

// GetSnapshot returns the user's transcript and current quota state
func (a *Assistant) GetSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	history, err := a.history.Recent(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	_, remaining := a.CheckLimit(ctx, userID)
	return &Snapshot{
		History:    history,
		Remaining:  remaining,
		DailyLimit: a.usage.DefaultLimit(),
	}, nil
}

// augment prepends the guide document when the raw message matches the app
// vocabulary. Guide load failure is non-fatal; the message passes through
// unaugmented.
func (a *Assistant) augment(ctx context.Context, message string) string {
	if !matchesGuideVocabulary(message) {
		return message
	}

	doc, err := a.guide.GetBySlug(ctx, GuideSlug)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("assistant_guide_load_failed", zap.Error(err))
		}
		return message
	}
	if doc == nil || doc.Content == "" {
		return message
	}

	return "Reference:\n" + doc.Content + "\n\nQuestion:\n" + message
}

func matchesGuideVocabulary(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range guideKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// buildMessages assembles system prompt, chronological history and the latest
// message. A leading assistant turn is dropped because replayed history must
// begin with a user turn.
func (a *Assistant) buildMessages(history []*models.ConversationTurn, latest string) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})

	for i, turn := range history {
		if i == 0 && turn.Role == models.RoleAssistant {
			continue
		}
		messages = append(messages, ChatMessage{Role: string(turn.Role), Content: turn.Message})
	}

	messages = append(messages, ChatMessage{Role: "user", Content: latest})
	return messages
}

// estimateTurnCost estimates token usage from the total character count of
// the exchanged text divided by two, rounded up. This heuristic is not
// reconciled against provider-reported usage; quota accuracy drifts for
// non-ASCII-heavy text and that is accepted.
func (a *Assistant) estimateTurnCost(sent []ChatMessage, response string) int {
	chars := 0
	for _, msg := range sent {
		chars += len([]rune(msg.Content))
	}
	chars += len([]rune(response))
	return (chars + 1) / 2
}
