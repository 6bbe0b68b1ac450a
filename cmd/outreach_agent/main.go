// Package main provides the entry point for the outreach agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach_agent",
	Short: "Rate-aware social outreach automation agent",
	Long:  "outreach_agent runs scheduled posting, feed engagement, connection campaigns, and follow-up sequences under a shared safety budget that keeps activity inside platform rate tolerances.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
