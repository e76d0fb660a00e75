package workers

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/google/uuid"
)

// GiveawayDrawer processes giveaway draw jobs
type GiveawayDrawer struct {
	giveawayRepo database.GiveawayRepositoryInterface
	notifier     Notifier
	rng          *rand.Rand
}

// NewGiveawayDrawer creates a new giveaway drawer. notifier may be nil when
// no announcement channel is configured.
func NewGiveawayDrawer(giveawayRepo database.GiveawayRepositoryInterface, notifier Notifier) *GiveawayDrawer {
	return &GiveawayDrawer{
		giveawayRepo: giveawayRepo,
		notifier:     notifier,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ProcessDrawJob draws winners for a closed giveaway. Drawing is idempotent:
// a second job for an already-drawn giveaway is a no-op.
func (d *GiveawayDrawer) ProcessDrawJob(ctx context.Context, job *queue.Job) error {
	if job.GiveawayID == nil {
		return fmt.Errorf("giveaway_id is required for draw job")
	}

	giveaway, err := d.giveawayRepo.GetByID(ctx, *job.GiveawayID)
	if err != nil {
		return fmt.Errorf("failed to get giveaway: %w", err)
	}

	if giveaway.Drawn {
		log.Printf("Giveaway %s already drawn, skipping", giveaway.ID)
		return nil
	}
	if time.Now().Before(giveaway.EndsAt) {
		return fmt.Errorf("giveaway %s has not ended yet", giveaway.ID)
	}

	entries, err := d.giveawayRepo.ListEntries(ctx, giveaway.ID)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	winners := pickWinners(entries, giveaway.WinnerCount, d.rng)
	winnerIDs := make([]uuid.UUID, len(winners))
	for i, entry := range winners {
		winnerIDs[i] = entry.ID
	}

	if err := d.giveawayRepo.MarkWinners(ctx, giveaway.ID, winnerIDs); err != nil {
		return fmt.Errorf("failed to mark winners: %w", err)
	}

	log.Printf("Drew %d winner(s) from %d entries for giveaway %s", len(winners), len(entries), giveaway.ID)

	if d.notifier != nil {
		msg := fmt.Sprintf("Giveaway %q has closed with %d entries. %d winner(s) drawn!", giveaway.Title, len(entries), len(winners))
		if err := d.notifier.Notify(ctx, msg); err != nil {
			// Announcement failure does not undo the draw
			log.Printf("Failed to announce giveaway result: %v", err)
		}
	}

	return nil
}

// pickWinners selects up to count distinct entries uniformly at random
func pickWinners(entries []*models.GiveawayEntry, count int, rng *rand.Rand) []*models.GiveawayEntry {
	if count <= 0 || len(entries) == 0 {
		return nil
	}
	if count >= len(entries) {
		winners := make([]*models.GiveawayEntry, len(entries))
		copy(winners, entries)
		return winners
	}

	shuffled := make([]*models.GiveawayEntry, len(entries))
	copy(shuffled, entries)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}
