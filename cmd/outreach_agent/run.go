package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/browser"
	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/contentgen"
	"github.com/jordan/outreach-agent/internal/experiment"
	"github.com/jordan/outreach-agent/internal/observability"
	"github.com/jordan/outreach-agent/internal/orchestrator"
	"github.com/jordan/outreach-agent/internal/producer"
	"github.com/jordan/outreach-agent/internal/safety"
	"github.com/jordan/outreach-agent/internal/scoring"
	"github.com/jordan/outreach-agent/internal/sequence"
	"github.com/jordan/outreach-agent/internal/store"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop",
	Long: `Runs the agent cycle on the configured tick interval: gather candidates from
the enabled producers (scheduled posts, feed engagement, campaigns, sequences),
order them, admit each through the safety budget, and execute the admitted ones.

Stops cleanly on SIGINT/SIGTERM. Use --once to run exactly one cycle.`,
	RunE: runAgentCmd,
}

var (
	runConfigPath  string
	runDatabaseURL string
	runAPIKey      string
	runDryRun      bool
	runOnce        bool
	runHeadless    bool
	runUserDataDir string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to agent.yaml (defaults are used when absent)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Simulate actions instead of driving a browser")
	runCommand.Flags().BoolVar(&runOnce, "once", false, "Run a single cycle and exit")
	runCommand.Flags().BoolVar(&runHeadless, "headless", true, "Run Chrome headless")
	runCommand.Flags().StringVar(&runUserDataDir, "user-data-dir", "", "Chrome profile directory holding the logged-in session")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCommand)
}

func runAgentCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	// Content generation: real Gemini unless this is a keyless dry run.
	var client contentgen.Client
	if cfg.APIKey == "" && runDryRun {
		client = contentgen.NewStaticClient()
	} else {
		client, err = contentgen.NewGeminiClient(ctx, contentgen.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create content client: %w", err)
		}
	}
	defer func() { _ = client.Close() }()
	generator := contentgen.NewGenerator(client)

	var executor browser.Executor
	if runDryRun {
		executor = browser.NewSimulatedExecutor("")
	} else {
		executor, err = browser.NewChromeExecutor(ctx, runUserDataDir, runHeadless, cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
	}
	defer func() { _ = executor.Close() }()

	experiments := experiment.NewEngine(cfg.Experiments)
	persisted, err := st.LoadExperiments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load experiments: %w", err)
	}
	experiments.Restore(persisted)

	scorer := scoring.NewEngine(cfg.Scoring)
	scheduler := sequence.NewScheduler(st, cfg.Sequences)

	var producers []producer.Producer
	if cfg.Agent.EnableScheduledPosts {
		producers = append(producers, producer.NewScheduledPosts(st, generator, experiments, cfg.Scoring.UserInterests))
	}
	if cfg.Agent.EnableFeedEngagement {
		producers = append(producers, producer.NewFeedEngagement(executor, generator, cfg.Scoring.UserInterests, cfg.Agent.MaxEngagementsPerCycle))
	}
	if cfg.Agent.EnableCampaigns {
		producers = append(producers, producer.NewCampaigns(st, scorer, generator, scheduler))
	}
	if cfg.Agent.EnableSequences {
		producers = append(producers, producer.NewSequenceSteps(scheduler))
	}
	if len(producers) == 0 {
		return fmt.Errorf("no producers enabled; nothing to do")
	}

	budget := safety.NewBudget(cfg.Safety)
	jitter := orchestrator.RandomJitter(cfg.Agent.JitterMin, cfg.Agent.JitterMax)
	if runDryRun {
		jitter = orchestrator.NoJitter
	}
	orch := orchestrator.New(cfg.Agent, budget, executor, st, producers, jitter)

	printer := observability.NewPrinter(os.Stdout)

	if runOnce {
		summary, err := orch.RunCycle(ctx)
		if err != nil {
			return err
		}
		printer.PrintCycleSummary(summary)
		return saveExperiments(ctx, st, experiments)
	}

	log.Printf("[AGENT] starting loop, tick interval %s, %d producers", cfg.Agent.TickInterval, len(producers))
	if err := orch.Run(ctx); err != nil {
		return err
	}

	// Persist experiment tallies accumulated during the run.
	saveCtx, cancel := context.WithTimeout(context.Background(), cfg.Agent.ActionTimeout)
	defer cancel()
	if err := saveExperiments(saveCtx, st, experiments); err != nil {
		return err
	}

	printer.PrintStatus(orch.Status())
	return nil
}

func saveExperiments(ctx context.Context, st *store.Store, engine *experiment.Engine) error {
	for _, exp := range engine.List() {
		if err := st.SaveExperiment(ctx, exp); err != nil {
			return fmt.Errorf("failed to save experiment %s: %w", exp.ID, err)
		}
	}
	return nil
}
