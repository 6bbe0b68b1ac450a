package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/observability"
	"github.com/jordan/outreach-agent/internal/scoring"
	"github.com/jordan/outreach-agent/internal/types"
)

var scoreCommand = &cobra.Command{
	Use:   "score",
	Short: "Score prospects from a JSON file",
	Long: `Reads a JSON array of prospects, scores each against the configured weights
and targeting lists, and prints them best first with per-factor breakdowns.
Useful for tuning weights before attaching prospects to a campaign.`,
	RunE: runScoreCmd,
}

var (
	scoreConfigPath string
	scoreInputPath  string
	scoreAsJSON     bool
)

func init() {
	scoreCommand.Flags().StringVar(&scoreConfigPath, "config", "", "Path to agent.yaml")
	scoreCommand.Flags().StringVarP(&scoreInputPath, "input", "i", "", "Path to JSON file holding an array of prospects")
	scoreCommand.Flags().BoolVar(&scoreAsJSON, "json", false, "Emit scored prospects as JSON instead of a table")

	if err := scoreCommand.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(scoreCommand)
}

func runScoreCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(scoreConfigPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(scoreInputPath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read prospects file: %w", err)
	}
	var prospects []types.Prospect
	if err := json.Unmarshal(data, &prospects); err != nil {
		return fmt.Errorf("failed to parse prospects file: %w", err)
	}
	if len(prospects) == 0 {
		return fmt.Errorf("no prospects found in %s", scoreInputPath)
	}

	engine := scoring.NewEngine(cfg.Scoring)
	scored := engine.BatchScore(prospects, time.Now())

	if scoreAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scored)
	}

	observability.NewPrinter(os.Stdout).PrintScoredProspects(scored)

	stats := scoring.Stats(scored)
	fmt.Printf("%d prospects, average %.1f, best %.1f (%d critical, %d high, %d ignore)\n",
		stats.Count, stats.Average, stats.Best,
		stats.TierCounts[types.TierCritical], stats.TierCounts[types.TierHigh], stats.TierCounts[types.TierIgnore])
	return nil
}
