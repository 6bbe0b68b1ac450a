package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/store"
	"github.com/jordan/outreach-agent/internal/types"
)

var createCampaignCommand = &cobra.Command{
	Use:   "create-campaign",
	Short: "Create an outreach campaign and attach targets",
	Long: `Creates a named campaign and optionally attaches prospects from a JSON file.
The agent loop works through pending targets best-scored first, sending one
connection request per admitted slot. Re-adding a known target is a no-op.`,
	RunE: runCreateCampaignCmd,
}

var (
	createCampaignConfigPath  string
	createCampaignDatabaseURL string
	createCampaignName        string
	createCampaignTargetsPath string
	createCampaignNoteHint    string
	createCampaignID          int64
)

func init() {
	createCampaignCommand.Flags().StringVar(&createCampaignConfigPath, "config", "", "Path to agent.yaml")
	createCampaignCommand.Flags().StringVar(&createCampaignDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	createCampaignCommand.Flags().StringVarP(&createCampaignName, "name", "n", "", "Campaign name (omit with --campaign-id to extend an existing campaign)")
	createCampaignCommand.Flags().Int64Var(&createCampaignID, "campaign-id", 0, "Existing campaign to add targets to instead of creating one")
	createCampaignCommand.Flags().StringVar(&createCampaignTargetsPath, "targets", "", "Path to JSON file holding an array of prospects")
	createCampaignCommand.Flags().StringVar(&createCampaignNoteHint, "note-hint", "", "Guidance passed to the note generator for these targets")

	rootCmd.AddCommand(createCampaignCommand)
}

func runCreateCampaignCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if createCampaignName == "" && createCampaignID == 0 {
		return fmt.Errorf("either --name or --campaign-id is required")
	}

	cfg, err := config.Load(createCampaignConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = createCampaignDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	campaignID := createCampaignID
	if campaignID == 0 {
		campaignID, err = st.CreateCampaign(ctx, createCampaignName)
		if err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		fmt.Printf("Created campaign %d (%s)\n", campaignID, createCampaignName)
	}

	if createCampaignTargetsPath == "" {
		return nil
	}

	data, err := os.ReadFile(createCampaignTargetsPath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read targets file: %w", err)
	}
	var prospects []types.Prospect
	if err := json.Unmarshal(data, &prospects); err != nil {
		return fmt.Errorf("failed to parse targets file: %w", err)
	}

	added := 0
	for _, p := range prospects {
		if p.ProfileURL == "" {
			return fmt.Errorf("prospect %q has no profile_url", p.Name)
		}
		if err := st.AddCampaignTarget(ctx, campaignID, p, createCampaignNoteHint); err != nil {
			return fmt.Errorf("failed to add target %s: %w", p.ProfileURL, err)
		}
		added++
	}

	fmt.Printf("Added %d targets to campaign %d\n", added, campaignID)
	return nil
}
