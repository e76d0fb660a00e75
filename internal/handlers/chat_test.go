package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/services/ai"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type fakeAssistant struct {
	result   *ai.TurnResult
	snapshot *ai.Snapshot
	err      error

	lastMessage string
	lastUserID  uuid.UUID
}

func (f *fakeAssistant) Respond(_ context.Context, userID uuid.UUID, message string) (*ai.TurnResult, error) {
	f.lastUserID = userID
	f.lastMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAssistant) GetSnapshot(_ context.Context, userID uuid.UUID) (*ai.Snapshot, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		DiscordID: "123456789",
		Username:  "collector",
		Member:    true,
	}
}

func assistantRequest(t *testing.T, method, path, body string, user *models.User) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if user != nil {
		req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	}
	return req
}

func newAssistantRouter(fake *fakeAssistant) *mux.Router {
	r := mux.NewRouter()
	NewAssistantHandler(fake).RegisterRoutes(r.PathPrefix("/assistant").Subrouter())
	return r
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		user       *models.User
		fake       *fakeAssistant
		wantStatus int
	}{
		{
			name:       "successful turn",
			body:       `{"message":"how am I doing?"}`,
			user:       testUser(),
			fake:       &fakeAssistant{result: &ai.TurnResult{Message: "well", TokensUsed: 12, Remaining: 49988}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no user in context",
			body:       `{"message":"hi"}`,
			user:       nil,
			fake:       &fakeAssistant{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid JSON body",
			body:       `{not json`,
			user:       testUser(),
			fake:       &fakeAssistant{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty message",
			body:       `{"message":"   "}`,
			user:       testUser(),
			fake:       &fakeAssistant{err: ai.ErrEmptyMessage},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "quota exceeded",
			body:       `{"message":"hi"}`,
			user:       testUser(),
			fake:       &fakeAssistant{err: ai.ErrDailyQuotaExceeded},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "model unavailable",
			body:       `{"message":"hi"}`,
			user:       testUser(),
			fake:       &fakeAssistant{err: ai.ErrModelUnavailable},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newAssistantRouter(tt.fake)
			req := assistantRequest(t, "POST", "/assistant/message", tt.body, tt.user)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPostMessagePassesRawMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeAssistant{result: &ai.TurnResult{Message: "ok"}}
	router := newAssistantRouter(fake)
	user := testUser()

	req := assistantRequest(t, "POST", "/assistant/message", `{"message":"使い方を教えて"}`, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if fake.lastMessage != "使い方を教えて" {
		t.Errorf("Expected raw message to reach the service, got %q", fake.lastMessage)
	}
	if fake.lastUserID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, fake.lastUserID)
	}
}

func TestGetSnapshot(t *testing.T) {
	t.Parallel()

	fake := &fakeAssistant{snapshot: &ai.Snapshot{
		History:    []*models.ConversationTurn{},
		Remaining:  50000,
		DailyLimit: 50000,
	}}
	router := newAssistantRouter(fake)

	req := assistantRequest(t, "GET", "/assistant", "", testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Remaining  int `json:"remaining"`
			DailyLimit int `json:"daily_limit"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Error("Expected success to be true")
	}
	if envelope.Data.DailyLimit != 50000 {
		t.Errorf("Expected daily limit 50000, got %d", envelope.Data.DailyLimit)
	}
}

func TestGetSnapshotUnauthorized(t *testing.T) {
	t.Parallel()

	router := newAssistantRouter(&fakeAssistant{})
	req := assistantRequest(t, "GET", "/assistant", "", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
