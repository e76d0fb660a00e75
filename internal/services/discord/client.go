package discord

import (
	"context"

	"github.com/dropnote/dropnote/internal/models"
	"golang.org/x/oauth2"
)

// Discord OAuth2 endpoints
const (
	AuthURL  = "https://discord.com/oauth2/authorize"
	TokenURL = "https://discord.com/api/oauth2/token"
	APIBase  = "https://discord.com/api/v10"
)

// Client wraps OAuth2 client functionality for Discord
type Client struct {
	config  *oauth2.Config
	apiBase string
}

// NewClient creates a new OAuth2 client from Discord config
func NewClient(discordConfig *models.DiscordConfig) *Client {
	clientSecret := ""
	if discordConfig.ClientSecret != nil {
		clientSecret = *discordConfig.ClientSecret
	}

	config := &oauth2.Config{
		ClientID:     discordConfig.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  discordConfig.RedirectURI,
		Scopes:       []string{"identify", "guilds.members.read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
	}

	return &Client{config: config, apiBase: APIBase}
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}
