package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dropnote/dropnote/internal/config"
	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/models"
	"github.com/spf13/cobra"
)

// NewDiscordCmd creates the Discord OAuth configuration command
func NewDiscordCmd() *cobra.Command {
	var clientID, clientSecret, redirectURI, guildID, roleIDs string

	cmd := &cobra.Command{
		Use:   "discord",
		Short: "Configure Discord OAuth",
		Long:  "Configure the Discord application used for login and guild membership checks. Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" || redirectURI == "" || guildID == "" {
				return fmt.Errorf("required flags: --client-id, --redirect-uri, --guild-id (--client-secret and --role-ids are optional)")
			}

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

			discordConfig := &models.DiscordConfig{
				ClientID:      clientID,
				RedirectURI:   redirectURI,
				GuildID:       guildID,
				MemberRoleIDs: strings.TrimSpace(roleIDs),
			}
			if clientSecret != "" {
				discordConfig.ClientSecret = &clientSecret
			}

			repo := database.NewDiscordConfigRepository(db)
			if err := repo.Set(context.Background(), discordConfig); err != nil {
				return fmt.Errorf("failed to save Discord config: %w", err)
			}

			fmt.Println("Discord configuration updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Discord application client ID (required)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Discord application client secret")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "OAuth2 redirect URI (required)")
	cmd.Flags().StringVar(&guildID, "guild-id", "", "Guild whose members may log in (required)")
	cmd.Flags().StringVar(&roleIDs, "role-ids", "", "Comma-separated role IDs required for membership (empty = any guild member)")

	return cmd
}
