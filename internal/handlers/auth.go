package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/services/discord"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const stateCookieName = "dropnote_oauth_state"

// AuthHandler handles Discord OAuth and session requests
type AuthHandler struct {
	client   *discord.Client
	sessions *discord.SessionManager
	users    *database.UserRepository
	guildID  string
	roleIDs  []string
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(client *discord.Client, sessions *discord.SessionManager, users *database.UserRepository, guildID string, roleIDs []string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		client:   client,
		sessions: sessions,
		users:    users,
		guildID:  guildID,
		roleIDs:  roleIDs,
		logger:   logger,
	}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/discord/login", h.GetDiscordLogin).Methods("GET")
	r.HandleFunc("/discord/callback", h.DiscordCallback).Methods("GET")
}

// RegisterProtectedRoutes registers auth routes that require a session
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// LoginResponse carries the Discord authorization URL for the frontend
type LoginResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// GetDiscordLogin returns the Discord authorization URL with a fresh state
func (h *AuthHandler) GetDiscordLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to generate state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, LoginResponse{
		AuthorizationURL: h.client.AuthCodeURL(state),
		State:            state,
	})
}

// CallbackResponse carries the session token after a successful login
type CallbackResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// DiscordCallback exchanges the authorization code, verifies guild
// membership and issues a session token. Non-members are rejected.
func (h *AuthHandler) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing code or state")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value != state {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "State mismatch")
		return
	}

	token, err := h.client.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Warn("discord_code_exchange_failed", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authorization code exchange failed")
		return
	}

	discordUser, err := h.client.FetchUser(ctx, token.AccessToken)
	if err != nil {
		h.logger.Warn("discord_identity_fetch_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch Discord identity")
		return
	}

	member, err := h.client.FetchGuildMember(ctx, token.AccessToken, h.guildID)
	if err != nil {
		h.logger.Warn("discord_membership_fetch_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to verify guild membership")
		return
	}

	if !discord.IsMember(member, h.roleIDs) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Guild membership required")
		return
	}

	user, err := h.upsertUser(r, discordUser)
	if err != nil {
		h.logger.Error("user_upsert_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store user")
		return
	}

	sessionToken, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.Error("session_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to issue session")
		return
	}

	// state cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, CallbackResponse{Token: sessionToken, User: user})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) upsertUser(r *http.Request, discordUser *discord.DiscordUser) (*models.User, error) {
	ctx := r.Context()

	user, err := h.users.GetByDiscordID(ctx, discordUser.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		user = &models.User{
			ID:        uuid.New(),
			DiscordID: discordUser.ID,
			Username:  discordUser.Username,
			Avatar:    discordUser.Avatar,
			Member:    true,
		}
		if err := h.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	user.Username = discordUser.Username
	user.Avatar = discordUser.Avatar
	user.Member = true
	if err := h.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
