package workers

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/google/uuid"
)

type fakeGiveawayRepo struct {
	giveaway *models.Giveaway
	entries  []*models.GiveawayEntry

	markedGiveaway uuid.UUID
	markedEntries  []uuid.UUID
	markCalls      int
}

func (f *fakeGiveawayRepo) Create(_ context.Context, _ *models.Giveaway) error { return nil }

func (f *fakeGiveawayRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Giveaway, error) {
	return f.giveaway, nil
}

func (f *fakeGiveawayRepo) List(_ context.Context) ([]*models.Giveaway, error) { return nil, nil }

func (f *fakeGiveawayRepo) AddEntry(_ context.Context, _, _ uuid.UUID) (*models.GiveawayEntry, error) {
	return nil, nil
}

func (f *fakeGiveawayRepo) ListEntries(_ context.Context, _ uuid.UUID) ([]*models.GiveawayEntry, error) {
	return f.entries, nil
}

func (f *fakeGiveawayRepo) MarkWinners(_ context.Context, giveawayID uuid.UUID, entryIDs []uuid.UUID) error {
	f.markCalls++
	f.markedGiveaway = giveawayID
	f.markedEntries = entryIDs
	return nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func makeEntries(n int) []*models.GiveawayEntry {
	entries := make([]*models.GiveawayEntry, n)
	for i := range entries {
		entries[i] = &models.GiveawayEntry{ID: uuid.New(), UserID: uuid.New()}
	}
	return entries
}

func TestPickWinners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		entries   int
		count     int
		wantCount int
	}{
		{name: "fewer entries than winners", entries: 2, count: 5, wantCount: 2},
		{name: "more entries than winners", entries: 10, count: 3, wantCount: 3},
		{name: "exact match", entries: 4, count: 4, wantCount: 4},
		{name: "no entries", entries: 0, count: 3, wantCount: 0},
		{name: "zero winners", entries: 5, count: 0, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := makeEntries(tt.entries)
			rng := rand.New(rand.NewSource(42))
			winners := pickWinners(entries, tt.count, rng)

			if len(winners) != tt.wantCount {
				t.Fatalf("Expected %d winners, got %d", tt.wantCount, len(winners))
			}

			seen := make(map[uuid.UUID]bool)
			for _, w := range winners {
				if seen[w.ID] {
					t.Errorf("Entry %s selected twice", w.ID)
				}
				seen[w.ID] = true
			}
		})
	}
}

func TestPickWinnersDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	entries := makeEntries(6)
	original := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		original[i] = e.ID
	}

	rng := rand.New(rand.NewSource(7))
	pickWinners(entries, 2, rng)

	for i, e := range entries {
		if e.ID != original[i] {
			t.Fatal("Expected input slice order to be preserved")
		}
	}
}

func TestProcessDrawJob(t *testing.T) {
	t.Parallel()

	giveawayID := uuid.New()
	repo := &fakeGiveawayRepo{
		giveaway: &models.Giveaway{
			ID:          giveawayID,
			Title:       "Launch giveaway",
			EndsAt:      time.Now().Add(-1 * time.Hour),
			WinnerCount: 2,
		},
		entries: makeEntries(5),
	}
	notifier := &recordingNotifier{}
	drawer := NewGiveawayDrawer(repo, notifier)

	job := queue.NewGiveawayDrawJob(giveawayID, time.Now().Add(-1*time.Hour))
	if err := drawer.ProcessDrawJob(context.Background(), job); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if repo.markCalls != 1 {
		t.Fatalf("Expected one MarkWinners call, got %d", repo.markCalls)
	}
	if repo.markedGiveaway != giveawayID {
		t.Errorf("Expected winners marked for %s, got %s", giveawayID, repo.markedGiveaway)
	}
	if len(repo.markedEntries) != 2 {
		t.Errorf("Expected 2 winners, got %d", len(repo.markedEntries))
	}
	if len(notifier.messages) != 1 {
		t.Errorf("Expected one announcement, got %d", len(notifier.messages))
	}
}

func TestProcessDrawJobAlreadyDrawn(t *testing.T) {
	t.Parallel()

	giveawayID := uuid.New()
	repo := &fakeGiveawayRepo{
		giveaway: &models.Giveaway{
			ID:     giveawayID,
			Drawn:  true,
			EndsAt: time.Now().Add(-1 * time.Hour),
		},
	}
	drawer := NewGiveawayDrawer(repo, nil)

	job := queue.NewGiveawayDrawJob(giveawayID, time.Now().Add(-1*time.Hour))
	if err := drawer.ProcessDrawJob(context.Background(), job); err != nil {
		t.Fatalf("Expected no error for already-drawn giveaway, got %v", err)
	}
	if repo.markCalls != 0 {
		t.Error("Expected no MarkWinners call for already-drawn giveaway")
	}
}

func TestProcessDrawJobNotEnded(t *testing.T) {
	t.Parallel()

	giveawayID := uuid.New()
	repo := &fakeGiveawayRepo{
		giveaway: &models.Giveaway{
			ID:     giveawayID,
			EndsAt: time.Now().Add(1 * time.Hour),
		},
	}
	drawer := NewGiveawayDrawer(repo, nil)

	job := queue.NewGiveawayDrawJob(giveawayID, time.Now())
	if err := drawer.ProcessDrawJob(context.Background(), job); err == nil {
		t.Error("Expected an error for a giveaway that has not ended")
	}
	if repo.markCalls != 0 {
		t.Error("Expected no MarkWinners call before the giveaway ends")
	}
}

func TestProcessDrawJobMissingGiveawayID(t *testing.T) {
	t.Parallel()

	drawer := NewGiveawayDrawer(&fakeGiveawayRepo{}, nil)
	job := &queue.Job{ID: uuid.New(), Type: queue.JobTypeGiveawayDraw}
	if err := drawer.ProcessDrawJob(context.Background(), job); err == nil {
		t.Error("Expected an error when giveaway_id is missing")
	}
}
