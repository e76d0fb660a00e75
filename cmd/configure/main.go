package main

import (
	"fmt"
	"os"

	"github.com/dropnote/dropnote/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dropnote-configure",
		Short: "Configuration tool for the Dropnote API",
		Long:  "CLI tool for configuring Discord OAuth, CORS, and rate limits",
	}

	rootCmd.AddCommand(commands.NewDiscordCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
