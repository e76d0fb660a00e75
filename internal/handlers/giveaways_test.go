package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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

type fakeJobQueue struct {
	enqueued   []*queue.Job
	enqueueErr error
}

func (q *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *fakeJobQueue) Dequeue(_ context.Context) (*queue.Message, error) { return nil, nil }

func (q *fakeJobQueue) Consume(_ context.Context, _ int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (q *fakeJobQueue) Close() error { return nil }

func (q *fakeJobQueue) HealthCheck(_ context.Context) error { return nil }

var _ queue.JobQueue = (*fakeJobQueue)(nil)

type fakeGiveawayRepo struct {
	created *models.Giveaway
}

func (r *fakeGiveawayRepo) Create(_ context.Context, g *models.Giveaway) error {
	g.ID = uuid.New()
	r.created = g
	return nil
}

func (r *fakeGiveawayRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Giveaway, error) {
	return nil, nil
}

func (r *fakeGiveawayRepo) List(_ context.Context) ([]*models.Giveaway, error) { return nil, nil }

func (r *fakeGiveawayRepo) AddEntry(_ context.Context, _, _ uuid.UUID) (*models.GiveawayEntry, error) {
	return nil, nil
}

func (r *fakeGiveawayRepo) ListEntries(_ context.Context, _ uuid.UUID) ([]*models.GiveawayEntry, error) {
	return nil, nil
}

func (r *fakeGiveawayRepo) MarkWinners(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
	return nil
}

var _ database.GiveawayRepositoryInterface = (*fakeGiveawayRepo)(nil)

func newGiveawayRouter(repo database.GiveawayRepositoryInterface, jobs queue.JobQueue) *mux.Router {
	r := mux.NewRouter()
	NewGiveawayHandler(repo, jobs, zap.NewNop()).RegisterRoutes(r.PathPrefix("/giveaways").Subrouter())
	return r
}

func TestCreateGiveawayRequestValidation(t *testing.T) {
	t.Parallel()

	now := time.Now()
	valid := CreateGiveawayRequest{
		Title:       "Launch party giveaway",
		Description: "Enter for a chance to win",
		StartsAt:    now,
		EndsAt:      now.Add(72 * time.Hour),
		WinnerCount: 3,
	}

	tests := []struct {
		name    string
		mutate  func(*CreateGiveawayRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *CreateGiveawayRequest) {},
		},
		{
			name:    "missing title",
			mutate:  func(r *CreateGiveawayRequest) { r.Title = "" },
			wantErr: true,
		},
		{
			name:    "zero winners",
			mutate:  func(r *CreateGiveawayRequest) { r.WinnerCount = 0 },
			wantErr: true,
		},
		{
			name:    "too many winners",
			mutate:  func(r *CreateGiveawayRequest) { r.WinnerCount = 101 },
			wantErr: true,
		},
		{
			name:   "empty description allowed",
			mutate: func(r *CreateGiveawayRequest) { r.Description = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := valid
			tt.mutate(&req)
			err := validation.Validate.Struct(&req)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no validation error, got %v", err)
			}
		})
	}
}

func TestGiveawayUnauthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "create", method: "POST", path: "/giveaways"},
		{name: "enter", method: "POST", path: "/giveaways/11111111-1111-1111-1111-111111111111/entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newGiveawayRouter(nil, nil)
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestGiveawayInvalidID(t *testing.T) {
	t.Parallel()

	router := newGiveawayRouter(nil, nil)
	req := httptest.NewRequest("GET", "/giveaways/not-a-uuid", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateGiveawayDateOrdering(t *testing.T) {
	t.Parallel()

	router := newGiveawayRouter(nil, nil)
	body := `{"title":"Backwards","starts_at":"2026-09-10T00:00:00Z","ends_at":"2026-09-01T00:00:00Z","winner_count":1}`
	req := httptest.NewRequest("POST", "/giveaways", strings.NewReader(body))
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for ends_at before starts_at, got %d", rec.Code)
	}
}

func TestCreateGiveawaySchedulesDraw(t *testing.T) {
	t.Parallel()

	repo := &fakeGiveawayRepo{}
	jobs := &fakeJobQueue{}
	router := newGiveawayRouter(repo, jobs)

	body := `{"title":"Launch party","starts_at":"2026-09-01T00:00:00Z","ends_at":"2026-09-08T00:00:00Z","winner_count":2}`
	req := httptest.NewRequest("POST", "/giveaways", strings.NewReader(body))
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(jobs.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued job, got %d", len(jobs.enqueued))
	}

	job := jobs.enqueued[0]
	if job.Type != queue.JobTypeGiveawayDraw {
		t.Errorf("Expected job type %q, got %q", queue.JobTypeGiveawayDraw, job.Type)
	}
	if job.GiveawayID == nil || *job.GiveawayID != repo.created.ID {
		t.Errorf("Expected job giveaway ID %s, got %v", repo.created.ID, job.GiveawayID)
	}
	if job.NotBefore == nil || !job.NotBefore.Equal(repo.created.EndsAt) {
		t.Errorf("Expected draw held until %s, got %v", repo.created.EndsAt, job.NotBefore)
	}
}

func TestCreateGiveawayEnqueueFailureStillCreates(t *testing.T) {
	t.Parallel()

	repo := &fakeGiveawayRepo{}
	jobs := &fakeJobQueue{enqueueErr: context.DeadlineExceeded}
	router := newGiveawayRouter(repo, jobs)

	body := `{"title":"Launch party","starts_at":"2026-09-01T00:00:00Z","ends_at":"2026-09-08T00:00:00Z","winner_count":1}`
	req := httptest.NewRequest("POST", "/giveaways", strings.NewReader(body))
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201 when only the enqueue fails, got %d", rec.Code)
	}
	if repo.created == nil {
		t.Error("Expected giveaway to be created despite enqueue failure")
	}

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success response")
	}
}
