package models

// SessionClaims represents the claims carried by a Dropnote session token.
// The server issues these after the Discord OAuth callback; they are not
// Discord's own tokens.
type SessionClaims struct {
	Sub       string `json:"sub"` // internal user ID
	DiscordID string `json:"discord_id"`
	Username  string `json:"username"`
	Member    bool   `json:"member"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
	Iss       string `json:"iss"`
}
