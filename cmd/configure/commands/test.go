package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dropnote/dropnote/internal/config"
	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/services/discord"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test Discord configuration",
		Long:  "Validate the stored Discord OAuth configuration and check that the Discord API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			discordConfig, err := database.NewDiscordConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get Discord config: %w", err)
			}
			if discordConfig == nil {
				return fmt.Errorf("no Discord configuration found, run 'configure discord' first")
			}

			fmt.Println("Testing Discord configuration")

			if _, err := url.ParseRequestURI(discordConfig.RedirectURI); err != nil {
				return fmt.Errorf("redirect URI is not a valid URL: %w", err)
			}
			fmt.Printf("✓ Redirect URI: %s\n", discordConfig.RedirectURI)

			if discordConfig.ClientSecret == nil {
				fmt.Println("! Client secret not set, code exchange will fail")
			} else {
				fmt.Println("✓ Client secret set")
			}

			client := discord.NewClient(discordConfig)
			authURL := client.AuthCodeURL("test-state")
			if _, err := url.ParseRequestURI(authURL); err != nil {
				return fmt.Errorf("generated authorization URL is invalid: %w", err)
			}
			fmt.Printf("✓ Authorization URL: %s\n", authURL)

			httpClient := &http.Client{Timeout: 10 * time.Second}
			resp, err := httpClient.Get(discord.APIBase + "/gateway")
			if err != nil {
				return fmt.Errorf("Discord API unreachable: %w", err)
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("Discord API returned status %d", resp.StatusCode)
			}
			fmt.Println("✓ Discord API reachable")

			fmt.Println("\n✓ Discord configuration test passed")
			return nil
		},
	}

	return cmd
}
