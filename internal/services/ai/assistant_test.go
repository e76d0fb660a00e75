package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// fakeProvider is a scripted Provider for orchestrator tests
type fakeProvider struct {
	response     *ChatResponse
	err          error
	gotMessages  []ChatMessage
	gotTools     []ToolDefinition
	callCount    int
	dispatchName string
	dispatchArgs string
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, dispatch ToolDispatcher) (*ChatResponse, error) {
	f.callCount++
	f.gotMessages = messages
	f.gotTools = tools
	if f.err != nil {
		return nil, f.err
	}
	if f.dispatchName != "" && dispatch != nil {
		result := dispatch(ctx, f.dispatchName, json.RawMessage(f.dispatchArgs))
		return &ChatResponse{
			Message:    "answer after tool: " + result,
			ToolCalled: f.dispatchName,
		}, nil
	}
	return f.response, nil
}

type fakeHistory struct {
	turns     []*models.ConversationTurn
	appended  []*models.ConversationTurn
	recentErr error
	appendErr error
}

func (f *fakeHistory) Append(ctx context.Context, userID uuid.UUID, role models.TurnRole, message string, tokensUsed int) (*models.ConversationTurn, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	turn := &models.ConversationTurn{
		ID: uuid.New(), UserID: userID, Role: role, Message: message,
		TokensUsed: tokensUsed, CreatedAt: time.Now(),
	}
	f.appended = append(f.appended, turn)
	return turn, nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.turns, nil
}

type fakeUsage struct {
	usage        *models.TokenUsage
	getErr       error
	incremented  []int
	incrementErr error
	limit        int
}

func (f *fakeUsage) GetToday(ctx context.Context, userID uuid.UUID) (*models.TokenUsage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.usage, nil
}

func (f *fakeUsage) IncrementToday(ctx context.Context, userID uuid.UUID, tokens int) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.incremented = append(f.incremented, tokens)
	return nil
}

func (f *fakeUsage) DefaultLimit() int {
	if f.limit == 0 {
		return 50000
	}
	return f.limit
}

type fakeGuide struct {
	doc *models.GuideDocument
	err error
}

func (f *fakeGuide) GetBySlug(ctx context.Context, slug string) (*models.GuideDocument, error) {
	return f.doc, f.err
}

type fakeStats struct {
	userStats *models.UserStats
	err       error
}

func (f *fakeStats) UserStats(ctx context.Context, userID uuid.UUID, period database.StatsPeriod) (*models.UserStats, error) {
	return f.userStats, f.err
}

func (f *fakeStats) SiteStats(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SiteStats, error) {
	return nil, f.err
}

func (f *fakeStats) BestProfitEvents(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ProfitEvent, error) {
	return nil, f.err
}

func (f *fakeStats) RecentApplications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Application, error) {
	return nil, f.err
}

func newTestAssistant(provider Provider, history *fakeHistory, usage *fakeUsage, guide *fakeGuide, stats *fakeStats) *Assistant {
	return NewAssistant(provider, history, usage, guide, NewStatsToolbox(stats, nil), nil)
}

func TestRespond_EmptyMessage(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	history := &fakeHistory{}
	a := newTestAssistant(provider, history, &fakeUsage{}, &fakeGuide{}, &fakeStats{})

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := a.Respond(context.Background(), uuid.New(), msg)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Respond(%q) error = %v, want ErrEmptyMessage", msg, err)
		}
	}
	if provider.callCount != 0 {
		t.Errorf("model called %d times for empty input, want 0", provider.callCount)
	}
	if len(history.appended) != 0 {
		t.Errorf("persisted %d turns for empty input, want 0", len(history.appended))
	}
}

func TestRespond_QuotaExhausted(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	history := &fakeHistory{}
	usage := &fakeUsage{usage: &models.TokenUsage{DailyLimit: 50000, TokensUsed: 50000}}
	a := newTestAssistant(provider, history, usage, &fakeGuide{}, &fakeStats{})

	_, err := a.Respond(context.Background(), uuid.New(), "今月の当選率は？")
	if !errors.Is(err, ErrDailyQuotaExceeded) {
		t.Fatalf("Respond() error = %v, want ErrDailyQuotaExceeded", err)
	}
	if provider.callCount != 0 {
		t.Error("model must not be called when quota is exhausted")
	}
	if len(history.appended) != 0 {
		t.Error("nothing may be persisted when quota is exhausted")
	}
	if len(usage.incremented) != 0 {
		t.Error("usage must not be recorded when quota is exhausted")
	}
}

func TestCheckLimit_FailOpen(t *testing.T) {
	t.Parallel()

	usage := &fakeUsage{getErr: fmt.Errorf("connection refused")}
	a := newTestAssistant(&fakeProvider{}, &fakeHistory{}, usage, &fakeGuide{}, &fakeStats{})

	allowed, remaining := a.CheckLimit(context.Background(), uuid.New())
	if !allowed {
		t.Error("storage error during quota check must fail open")
	}
	if remaining != 50000 {
		t.Errorf("remaining = %d, want full default quota 50000", remaining)
	}
}

func TestCheckLimit_NoUsageToday(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(&fakeProvider{}, &fakeHistory{}, &fakeUsage{}, &fakeGuide{}, &fakeStats{})

	allowed, remaining := a.CheckLimit(context.Background(), uuid.New())
	if !allowed || remaining != 50000 {
		t.Errorf("CheckLimit() = (%v, %d), want (true, 50000)", allowed, remaining)
	}
}

func TestRespond_Success(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "you won 3 of 10"}}
	history := &fakeHistory{}
	usage := &fakeUsage{}
	a := newTestAssistant(provider, history, usage, &fakeGuide{}, &fakeStats{})
	userID := uuid.New()

	result, err := a.Respond(context.Background(), userID, "what is my win rate?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if result.Message != "you won 3 of 10" {
		t.Errorf("Message = %q", result.Message)
	}
	if result.TokensUsed <= 0 {
		t.Errorf("TokensUsed = %d, want > 0", result.TokensUsed)
	}
	if result.Remaining != 50000-result.TokensUsed {
		t.Errorf("Remaining = %d, want %d", result.Remaining, 50000-result.TokensUsed)
	}

	if len(history.appended) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(history.appended))
	}
	if history.appended[0].Role != models.RoleUser || history.appended[0].TokensUsed != 0 {
		t.Errorf("user turn = %+v, want role user with 0 tokens", history.appended[0])
	}
	if history.appended[1].Role != models.RoleAssistant || history.appended[1].TokensUsed != result.TokensUsed {
		t.Errorf("assistant turn = %+v", history.appended[1])
	}
	if len(usage.incremented) != 1 || usage.incremented[0] != result.TokensUsed {
		t.Errorf("recorded usage %v, want one record of %d", usage.incremented, result.TokensUsed)
	}
}

func TestRespond_ModelFailure_NothingPersisted(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: fmt.Errorf("upstream 503")}
	history := &fakeHistory{}
	usage := &fakeUsage{}
	a := newTestAssistant(provider, history, usage, &fakeGuide{}, &fakeStats{})

	_, err := a.Respond(context.Background(), uuid.New(), "hello")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("Respond() error = %v, want ErrModelUnavailable", err)
	}
	if len(history.appended) != 0 {
		t.Error("nothing may be persisted on model failure")
	}
	if len(usage.incremented) != 0 {
		t.Error("no usage may be recorded on model failure")
	}
}

func TestRespond_LeadingAssistantTurnDropped(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "ok"}}
	history := &fakeHistory{turns: []*models.ConversationTurn{
		{Role: models.RoleAssistant, Message: "dangling reply"},
		{Role: models.RoleUser, Message: "earlier question"},
		{Role: models.RoleAssistant, Message: "earlier answer"},
	}}
	a := newTestAssistant(provider, history, &fakeUsage{}, &fakeGuide{}, &fakeStats{})

	if _, err := a.Respond(context.Background(), uuid.New(), "latest"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	msgs := provider.gotMessages
	if msgs[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", msgs[0].Role)
	}
	if msgs[1].Role != "user" || msgs[1].Content != "earlier question" {
		t.Errorf("replayed history must begin with a user turn, got %+v", msgs[1])
	}
	for _, m := range msgs {
		if m.Content == "dangling reply" {
			t.Error("leading assistant turn must be dropped from replayed history")
		}
	}
	if last := msgs[len(msgs)-1]; last.Role != "user" || last.Content != "latest" {
		t.Errorf("latest message must come last, got %+v", last)
	}
}

func TestRespond_GuideAugmentation(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "ok"}}
	history := &fakeHistory{}
	guide := &fakeGuide{doc: &models.GuideDocument{Slug: GuideSlug, Content: "guide body"}}
	a := newTestAssistant(provider, history, &fakeUsage{}, guide, &fakeStats{})

	raw := "アプリの使い方を教えて"
	if _, err := a.Respond(context.Background(), uuid.New(), raw); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	sent := provider.gotMessages[len(provider.gotMessages)-1].Content
	if !strings.Contains(sent, "Reference:") || !strings.Contains(sent, "guide body") {
		t.Errorf("model copy missing reference section: %q", sent)
	}
	if !strings.Contains(sent, "Question:\n"+raw) {
		t.Errorf("model copy missing question section: %q", sent)
	}

	// persisted user turn keeps the raw message
	if got := history.appended[0].Message; got != raw {
		t.Errorf("persisted user turn = %q, want raw message %q", got, raw)
	}
}

func TestRespond_GuideLoadFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "ok"}}
	guide := &fakeGuide{err: fmt.Errorf("store down")}
	a := newTestAssistant(provider, &fakeHistory{}, &fakeUsage{}, guide, &fakeStats{})

	raw := "how to use this?"
	if _, err := a.Respond(context.Background(), uuid.New(), raw); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	sent := provider.gotMessages[len(provider.gotMessages)-1].Content
	if sent != raw {
		t.Errorf("augmentation must be skipped on guide failure, got %q", sent)
	}
}

func TestRespond_NoAugmentationWithoutKeyword(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "ok"}}
	guide := &fakeGuide{doc: &models.GuideDocument{Content: "guide body"}}
	a := newTestAssistant(provider, &fakeHistory{}, &fakeUsage{}, guide, &fakeStats{})

	raw := "what were my best profits?"
	if _, err := a.Respond(context.Background(), uuid.New(), raw); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if sent := provider.gotMessages[len(provider.gotMessages)-1].Content; sent != raw {
		t.Errorf("message augmented without a keyword match: %q", sent)
	}
}

func TestRespond_ToolQueryFailureStillReturnsText(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		dispatchName: ToolBestProfitEvents,
		dispatchArgs: `{"limit":3}`,
	}
	stats := &fakeStats{err: fmt.Errorf("store unreachable")}
	a := newTestAssistant(provider, &fakeHistory{}, &fakeUsage{}, &fakeGuide{}, stats)

	result, err := a.Respond(context.Background(), uuid.New(), "best profits?")
	if err != nil {
		t.Fatalf("Respond() error = %v, tool failure must not abort the turn", err)
	}
	if !strings.Contains(result.Message, "query_failed") {
		t.Errorf("tool result should carry a structured error, got %q", result.Message)
	}
}

func TestRespond_HistoryLoadFailureDegradesToFreshConversation(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: &ChatResponse{Message: "ok"}}
	history := &fakeHistory{recentErr: fmt.Errorf("store down")}
	a := newTestAssistant(provider, history, &fakeUsage{}, &fakeGuide{}, &fakeStats{})

	if _, err := a.Respond(context.Background(), uuid.New(), "hello"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	// system prompt + latest message only
	if len(provider.gotMessages) != 2 {
		t.Errorf("sent %d messages, want 2", len(provider.gotMessages))
	}
}

func TestEstimateTurnCost(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(&fakeProvider{}, &fakeHistory{}, &fakeUsage{}, &fakeGuide{}, &fakeStats{})

	tests := []struct {
		name     string
		sent     []ChatMessage
		response string
		want     int
	}{
		{"empty", nil, "", 0},
		{"single char rounds up", nil, "a", 1},
		{"even split", []ChatMessage{{Content: "ab"}}, "cd", 2},
		{"odd total rounds up", []ChatMessage{{Content: "abc"}}, "de", 3},
		{"multibyte counted as characters", nil, "当選率", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := a.estimateTurnCost(tt.sent, tt.response); got != tt.want {
				t.Errorf("estimateTurnCost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetSnapshot(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{turns: []*models.ConversationTurn{
		{Role: models.RoleUser, Message: "q"},
		{Role: models.RoleAssistant, Message: "a"},
	}}
	usage := &fakeUsage{usage: &models.TokenUsage{DailyLimit: 50000, TokensUsed: 10000}}
	a := newTestAssistant(&fakeProvider{}, history, usage, &fakeGuide{}, &fakeStats{})

	snap, err := a.GetSnapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if len(snap.History) != 2 {
		t.Errorf("History length = %d, want 2", len(snap.History))
	}
	if snap.Remaining != 40000 {
		t.Errorf("Remaining = %d, want 40000", snap.Remaining)
	}
	if snap.DailyLimit != 50000 {
		t.Errorf("DailyLimit = %d, want 50000", snap.DailyLimit)
	}
}
