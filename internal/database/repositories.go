package database

import (
	"context"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// ChatHistoryRepositoryInterface defines the interface for conversation history operations
// This interface enables better testability by allowing mock implementations
type ChatHistoryRepositoryInterface interface {
	Append(ctx context.Context, userID uuid.UUID, role models.TurnRole, message string, tokensUsed int) (*models.ConversationTurn, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error)
}

// TokenUsageRepositoryInterface defines the interface for token usage operations
type TokenUsageRepositoryInterface interface {
	GetToday(ctx context.Context, userID uuid.UUID) (*models.TokenUsage, error)
	IncrementToday(ctx context.Context, userID uuid.UUID, tokens int) error
	DefaultLimit() int
}

// StatsRepositoryInterface defines the interface for statistics queries
type StatsRepositoryInterface interface {
	UserStats(ctx context.Context, userID uuid.UUID, period StatsPeriod) (*models.UserStats, error)
	SiteStats(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SiteStats, error)
	BestProfitEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ProfitEvent, error)
	RecentApplications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Application, error)
}

// GuideRepositoryInterface defines the interface for guide document lookup
type GuideRepositoryInterface interface {
	GetBySlug(ctx context.Context, slug string) (*models.GuideDocument, error)
}

// EventRepositoryInterface defines the interface for drop event operations
type EventRepositoryInterface interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, from, to string) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GiveawayRepositoryInterface defines the interface for giveaway operations
type GiveawayRepositoryInterface interface {
	Create(ctx context.Context, g *models.Giveaway) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Giveaway, error)
	List(ctx context.Context) ([]*models.Giveaway, error)
	AddEntry(ctx context.Context, giveawayID, userID uuid.UUID) (*models.GiveawayEntry, error)
	ListEntries(ctx context.Context, giveawayID uuid.UUID) ([]*models.GiveawayEntry, error)
	MarkWinners(ctx context.Context, giveawayID uuid.UUID, entryIDs []uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ ChatHistoryRepositoryInterface = (*ChatHistoryRepository)(nil)
	_ TokenUsageRepositoryInterface  = (*TokenUsageRepository)(nil)
	_ StatsRepositoryInterface       = (*StatsRepository)(nil)
	_ GuideRepositoryInterface       = (*GuideRepository)(nil)
	_ EventRepositoryInterface       = (*EventRepository)(nil)
	_ GiveawayRepositoryInterface    = (*GiveawayRepository)(nil)
)
