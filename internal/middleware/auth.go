package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/services/discord"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// Auth creates authentication middleware that validates session tokens and
// enforces guild membership. The member flag is re-checked from the database
// row on every request, not just the token claim, so revoked members lose
// access before their session expires.
func Auth(db *database.DB, sessions *discord.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := sessions.Verify(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			userID, err := uuid.Parse(claims.Sub)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid session subject")
				return
			}

			ctx := r.Context()
			userRepo := database.NewUserRepository(db)
			user, err := userRepo.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					respondError(w, http.StatusUnauthorized, "Unknown user")
					return
				}
				log.Printf("Database error while fetching user: %v", err)
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			if !user.Member {
				respondError(w, http.StatusForbidden, "Guild membership required")
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
