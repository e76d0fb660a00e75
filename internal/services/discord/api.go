package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordUser is the identity payload from /users/@me
type DiscordUser struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

// GuildMember is the membership payload from /users/@me/guilds/{id}/member
type GuildMember struct {
	Roles []string `json:"roles"`
	Nick  *string  `json:"nick"`
}

// httpClient is shared across API calls; Discord responds fast or not at all
var httpClient = &http.Client{Timeout: 10 * time.Second}

// FetchUser retrieves the authenticated user's Discord identity
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	user := &DiscordUser{}
	if err := c.getJSON(ctx, accessToken, "/users/@me", user); err != nil {
		return nil, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("discord user response missing id")
	}
	return user, nil
}

// FetchGuildMember retrieves the user's membership in the configured guild.
// Discord returns 404 when the user is not a member; that maps to (nil, nil)
// so callers can distinguish "not a member" from transport failure.
func (c *Client) FetchGuildMember(ctx context.Context, accessToken, guildID string) (*GuildMember, error) {
	member := &GuildMember{}
	err := c.getJSON(ctx, accessToken, "/users/@me/guilds/"+guildID+"/member", member)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	return member, nil
}

// IsMember reports whether the guild member holds any of the required roles.
// An empty role list means guild membership alone qualifies.
func IsMember(member *GuildMember, requiredRoleIDs []string) bool {
	if member == nil {
		return false
	}
	if len(requiredRoleIDs) == 0 {
		return true
	}
	held := make(map[string]bool, len(member.Roles))
	for _, r := range member.Roles {
		held[r] = true
	}
	for _, required := range requiredRoleIDs {
		if held[required] {
			return true
		}
	}
	return false
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("discord API returned %d for %s", e.code, e.url)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, url: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
