package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/validation"
	"github.com/gorilla/mux"
)

func newApplicationRouter() *mux.Router {
	r := mux.NewRouter()
	h := NewApplicationHandler(nil, nil)
	h.RegisterRoutes(r.PathPrefix("/applications").Subrouter())
	h.RegisterEventRoutes(r.PathPrefix("/events").Subrouter())
	return r
}

func TestUpdateResultRequestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     UpdateResultRequest
		wantErr bool
	}{
		{name: "won", req: UpdateResultRequest{ResultStatus: "won"}},
		{name: "lost", req: UpdateResultRequest{ResultStatus: "lost"}},
		{name: "pending", req: UpdateResultRequest{ResultStatus: "pending"}},
		{name: "unknown status", req: UpdateResultRequest{ResultStatus: "maybe"}, wantErr: true},
		{name: "empty status", req: UpdateResultRequest{}, wantErr: true},
		{name: "uppercase rejected", req: UpdateResultRequest{ResultStatus: "WON"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validation.Validate.Struct(&tt.req)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no validation error, got %v", err)
			}
		})
	}
}

func TestApplicationUnauthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "list", method: "GET", path: "/applications"},
		{name: "create", method: "POST", path: "/events/11111111-1111-1111-1111-111111111111/applications"},
		{name: "update result", method: "PATCH", path: "/applications/11111111-1111-1111-1111-111111111111"},
		{name: "delete", method: "DELETE", path: "/applications/11111111-1111-1111-1111-111111111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newApplicationRouter()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestApplicationInvalidID(t *testing.T) {
	t.Parallel()

	router := newApplicationRouter()
	req := httptest.NewRequest("PATCH", "/applications/not-a-uuid", strings.NewReader(`{"result_status":"won"}`))
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestListApplicationsInvalidLimit(t *testing.T) {
	t.Parallel()

	router := newApplicationRouter()
	req := httptest.NewRequest("GET", "/applications?limit=-1", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
