package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/observability"
	"github.com/jordan/outreach-agent/internal/store"
	"github.com/jordan/outreach-agent/internal/types"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show recent activity against the configured ceilings",
	Long: `Rebuilds the budget picture from the persisted audit trail: per-kind counts
over the last hour and day, the weekly total, and the most recent cycle
summaries. This reads the database only; it does not talk to a running agent.`,
	RunE: runStatusCmd,
}

var (
	statusConfigPath  string
	statusDatabaseURL string
	statusCycles      int
)

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to agent.yaml")
	statusCommand.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	statusCommand.Flags().IntVar(&statusCycles, "cycles", 3, "How many recent cycle summaries to show")

	rootCmd.AddCommand(statusCommand)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(statusConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = statusDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	now := time.Now()
	snap := types.StatusSnapshot{
		State:        "offline",
		HourlyCounts: make(map[types.ActionKind]int, len(types.AllKinds)),
		DailyCounts:  make(map[types.ActionKind]int, len(types.AllKinds)),
	}

	var hourUsed, hourCeil, dayUsed, dayCeil int
	for _, kind := range types.AllKinds {
		h, err := st.CountActionsSince(ctx, kind, now.Add(-time.Hour))
		if err != nil {
			return fmt.Errorf("failed to count hourly actions: %w", err)
		}
		d, err := st.CountActionsSince(ctx, kind, now.Add(-24*time.Hour))
		if err != nil {
			return fmt.Errorf("failed to count daily actions: %w", err)
		}
		w, err := st.CountActionsSince(ctx, kind, now.Add(-7*24*time.Hour))
		if err != nil {
			return fmt.Errorf("failed to count weekly actions: %w", err)
		}
		snap.HourlyCounts[kind] = h
		snap.DailyCounts[kind] = d
		snap.WeeklyTotal += w

		hourUsed += h
		dayUsed += d
		if ceil, ok := cfg.Safety.HourlyCeilings[kind]; ok {
			hourCeil += ceil
		}
		if ceil, ok := cfg.Safety.DailyCeilings[kind]; ok {
			dayCeil += ceil
		}
	}
	if hourCeil > 0 {
		snap.HourlyPercent = float64(hourUsed) / float64(hourCeil) * 100
	}
	if dayCeil > 0 {
		snap.DailyPercent = float64(dayUsed) / float64(dayCeil) * 100
	}

	summaries, err := st.RecentCycleSummaries(ctx, statusCycles)
	if err != nil {
		return fmt.Errorf("failed to load cycle summaries: %w", err)
	}
	if len(summaries) > 0 {
		latest := summaries[0]
		snap.RiskScore = latest.RiskScore
		snap.Paused = latest.Paused
		snap.PauseReason = latest.PauseReason
		snap.LastCycleAt = latest.CycleEnd
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintStatus(snap)
	for _, summary := range summaries {
		printer.PrintCycleSummary(summary)
	}
	return nil
}
