package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/contentgen"
	"github.com/jordan/outreach-agent/internal/experiment"
	"github.com/jordan/outreach-agent/internal/observability"
	"github.com/jordan/outreach-agent/internal/store"
	"github.com/jordan/outreach-agent/internal/types"
)

var experimentsCommand = &cobra.Command{
	Use:   "experiments",
	Short: "Manage content A/B experiments",
	Long: `Creates, starts, analyzes, and concludes content experiments. Variant arms
come from a JSON file or are drafted by the content generator from a base
text. Analysis uses a two-proportion z-test at the configured confidence
level; no winner is named below the minimum sample size.`,
}

var experimentsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	RunE:  runExperimentsListCmd,
}

var experimentsCreateCommand = &cobra.Command{
	Use:   "create",
	Short: "Create a draft experiment",
	RunE:  runExperimentsCreateCmd,
}

var experimentsStartCommand = &cobra.Command{
	Use:   "start",
	Short: "Start a draft experiment",
	RunE:  runExperimentsStartCmd,
}

var experimentsAnalyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a running or concluded experiment",
	RunE:  runExperimentsAnalyzeCmd,
}

var experimentsConcludeCommand = &cobra.Command{
	Use:   "conclude",
	Short: "Conclude an experiment and stamp its winner",
	RunE:  runExperimentsConcludeCmd,
}

var (
	experimentsConfigPath   string
	experimentsDatabaseURL  string
	experimentsID           string
	experimentsName         string
	experimentsType         string
	experimentsHypothesis   string
	experimentsVariantsPath string
	experimentsBase         string
	experimentsCount        int
	experimentsAPIKey       string
	experimentsRecommend    bool
)

func init() {
	for _, c := range []*cobra.Command{
		experimentsListCommand,
		experimentsCreateCommand,
		experimentsStartCommand,
		experimentsAnalyzeCommand,
		experimentsConcludeCommand,
	} {
		c.Flags().StringVar(&experimentsConfigPath, "config", "", "Path to agent.yaml")
		c.Flags().StringVar(&experimentsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
		experimentsCommand.AddCommand(c)
	}

	experimentsCreateCommand.Flags().StringVarP(&experimentsName, "name", "n", "", "Experiment name")
	experimentsCreateCommand.Flags().StringVarP(&experimentsType, "type", "t", string(types.ExperimentTone), "What the variants vary: headline, tone, length, cta, time_of_day, hashtag")
	experimentsCreateCommand.Flags().StringVar(&experimentsHypothesis, "hypothesis", "", "What you expect the challenger arms to improve")
	experimentsCreateCommand.Flags().StringVar(&experimentsVariantsPath, "variants", "", "Path to JSON file with variant arms [{label, content}, ...]; first is control")
	experimentsCreateCommand.Flags().StringVar(&experimentsBase, "base", "", "Base content to draft variant arms from (alternative to --variants)")
	experimentsCreateCommand.Flags().IntVar(&experimentsCount, "count", 2, "Number of arms to draft when using --base")
	experimentsCreateCommand.Flags().StringVar(&experimentsAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	if err := experimentsCreateCommand.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	for _, c := range []*cobra.Command{
		experimentsStartCommand,
		experimentsAnalyzeCommand,
		experimentsConcludeCommand,
	} {
		c.Flags().StringVar(&experimentsID, "id", "", "Experiment ID")
		if err := c.MarkFlagRequired("id"); err != nil {
			panic(err)
		}
	}
	experimentsAnalyzeCommand.Flags().BoolVar(&experimentsRecommend, "recommend", false, "Also generate a plain-language recommendation (needs a Gemini key)")
	experimentsAnalyzeCommand.Flags().StringVar(&experimentsAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(experimentsCommand)
}

// loadExperimentEngine connects to the database and rehydrates the engine
// from the persisted experiments.
func loadExperimentEngine(ctx context.Context, cmd *cobra.Command) (*store.Store, *experiment.Engine, error) {
	cfg, err := config.Load(experimentsConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = experimentsDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	engine := experiment.NewEngine(cfg.Experiments)
	persisted, err := st.LoadExperiments(ctx)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load experiments: %w", err)
	}
	engine.Restore(persisted)
	return st, engine, nil
}

func runExperimentsListCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, engine, err := loadExperimentEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	experiments := engine.List()
	if len(experiments) == 0 {
		fmt.Println("No experiments.")
		return nil
	}
	for _, exp := range experiments {
		exposures := 0
		for _, v := range exp.Variants {
			exposures += v.Exposures
		}
		fmt.Printf("%s  %-24s %-10s %-9s %d arms, %d exposures\n",
			exp.ID, exp.Name, exp.Type, exp.Status, len(exp.Variants), exposures)
	}
	return nil
}

func runExperimentsCreateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if experimentsVariantsPath == "" && experimentsBase == "" {
		return fmt.Errorf("either --variants or --base is required")
	}

	st, engine, err := loadExperimentEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var variants []types.Variant
	if experimentsVariantsPath != "" {
		data, err := os.ReadFile(experimentsVariantsPath) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return fmt.Errorf("failed to read variants file: %w", err)
		}
		if err := json.Unmarshal(data, &variants); err != nil {
			return fmt.Errorf("failed to parse variants file: %w", err)
		}
	} else {
		apiKey := experimentsAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		client, err := contentgen.NewGeminiClient(ctx, contentgen.DefaultConfig(), apiKey)
		if err != nil {
			return fmt.Errorf("failed to create content client: %w", err)
		}
		defer func() { _ = client.Close() }()

		variants, err = contentgen.NewGenerator(client).GenerateVariants(
			ctx, experimentsBase, types.ExperimentType(experimentsType), experimentsCount)
		if err != nil {
			return fmt.Errorf("failed to draft variants: %w", err)
		}
	}

	exp, err := engine.Create(experimentsName, types.ExperimentType(experimentsType),
		experimentsHypothesis, variants, time.Now())
	if err != nil {
		return err
	}
	if err := st.SaveExperiment(ctx, exp); err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}

	fmt.Printf("Created experiment %s (%s) with %d arms\n", exp.ID, exp.Name, len(exp.Variants))
	return nil
}

func runExperimentsStartCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, engine, err := loadExperimentEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := engine.Start(experimentsID, time.Now()); err != nil {
		return err
	}
	exp, err := engine.Get(experimentsID)
	if err != nil {
		return err
	}
	if err := st.SaveExperiment(ctx, exp); err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}

	fmt.Printf("Experiment %s is running\n", exp.ID)
	return nil
}

func runExperimentsAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, engine, err := loadExperimentEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	analysis, err := engine.Analyze(experimentsID)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintExperimentAnalysis(analysis)

	if experimentsRecommend {
		apiKey := experimentsAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		client, err := contentgen.NewGeminiClient(ctx, contentgen.DefaultConfig(), apiKey)
		if err != nil {
			return fmt.Errorf("failed to create content client: %w", err)
		}
		defer func() { _ = client.Close() }()

		recommendation, err := contentgen.NewGenerator(client).GenerateRecommendation(ctx, analysis)
		if err != nil {
			return err
		}
		fmt.Printf("\nRecommendation: %s\n", recommendation)
	}
	return nil
}

func runExperimentsConcludeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, engine, err := loadExperimentEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	analysis, err := engine.Conclude(experimentsID, time.Now())
	if err != nil {
		return err
	}
	exp, err := engine.Get(experimentsID)
	if err != nil {
		return err
	}
	if err := st.SaveExperiment(ctx, exp); err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintExperimentAnalysis(analysis)
	return nil
}
