package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dropnote/dropnote/internal/config"
	"github.com/dropnote/dropnote/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored configuration",
		Long:  "Show the Discord, CORS, and rate limit configuration stored in the database",
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

			ctx := context.Background()

			discordConfig, err := database.NewDiscordConfigRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get Discord config: %w", err)
			}
			if discordConfig == nil {
				fmt.Println("Discord: not configured (run 'configure discord')")
			} else {
				fmt.Println("Discord:")
				fmt.Printf("  Client ID: %s\n", discordConfig.ClientID)
				fmt.Printf("  Redirect URI: %s\n", discordConfig.RedirectURI)
				fmt.Printf("  Guild ID: %s\n", discordConfig.GuildID)
				if discordConfig.MemberRoleIDs == "" {
					fmt.Println("  Member roles: any guild member")
				} else {
					fmt.Printf("  Member roles: %s\n", discordConfig.MemberRoleIDs)
				}
				if discordConfig.ClientSecret != nil {
					fmt.Println("  Client secret: set")
				} else {
					fmt.Println("  Client secret: not set")
				}
			}
			fmt.Println()

			corsConfig, err := database.NewCorsConfigRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get CORS config: %w", err)
			}
			if corsConfig == nil {
				fmt.Println("CORS: not configured (FRONTEND_URL fallback in effect)")
			} else {
				fmt.Println("CORS:")
				fmt.Printf("  Allowed origins: %s\n", corsConfig.AllowedOrigins)
				fmt.Printf("  Allow credentials: %v\n", corsConfig.AllowCredentials)
			}
			fmt.Println()

			rateConfig, err := database.NewRatelimitConfigRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rate limit config: %w", err)
			}
			if rateConfig == nil {
				fmt.Println("Rate limit: not configured (default in effect)")
			} else {
				fmt.Printf("Rate limit: %s\n", rateConfig.Rate)
			}

			return nil
		},
	}

	return cmd
}
