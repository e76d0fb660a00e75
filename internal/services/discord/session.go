package discord

import (
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const sessionIssuer = "dropnote"

// SessionManager issues and verifies the server's own session tokens. These
// are HS256 JWTs minted after the OAuth callback, independent of Discord's
// tokens, so the API never needs Discord on the hot path.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a session manager. secret must be non-empty.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue mints a session token for the user
func (m *SessionManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(sessionIssuer).
		Subject(user.ID.String()).
		IssuedAt(now).
		Expiration(now.Add(m.ttl)).
		Claim("discord_id", user.DiscordID).
		Claim("username", user.Username).
		Claim("member", user.Member).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return string(signed), nil
}

// Verify parses and validates a session token and extracts its claims
func (m *SessionManager) Verify(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, m.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify session token: %w", err)
	}

	claims := &models.SessionClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}

	if _, err := uuid.Parse(claims.Sub); err != nil {
		return nil, fmt.Errorf("session token subject is not a user ID: %w", err)
	}

	if v, ok := token.Get("discord_id"); ok {
		if s, ok := v.(string); ok {
			claims.DiscordID = s
		}
	}
	if v, ok := token.Get("username"); ok {
		if s, ok := v.(string); ok {
			claims.Username = s
		}
	}
	if v, ok := token.Get("member"); ok {
		if b, ok := v.(bool); ok {
			claims.Member = b
		}
	}

	return claims, nil
}
