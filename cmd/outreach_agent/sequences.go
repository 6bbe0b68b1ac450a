package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/sequence"
	"github.com/jordan/outreach-agent/internal/store"
	"github.com/jordan/outreach-agent/internal/types"
)

var sequencesCommand = &cobra.Command{
	Use:   "sequences",
	Short: "Manage follow-up message sequences",
	Long: `Creates sequences and manages enrollments. A sequence is an ordered list of
message templates with delays measured from the enrollment time; branched
sequences diverge after the branch point depending on whether the target
responded. The agent loop sends due steps during normal cycles.`,
}

var sequencesCreateCommand = &cobra.Command{
	Use:   "create",
	Short: "Create a sequence from a JSON definition",
	RunE:  runSequencesCreateCmd,
}

var sequencesEnrollCommand = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a target into a sequence",
	RunE:  runSequencesEnrollCmd,
}

var sequencesTriggerCommand = &cobra.Command{
	Use:   "trigger",
	Short: "Fire a behavioral trigger and enroll into listening sequences",
	RunE:  runSequencesTriggerCmd,
}

var sequencesRespondCommand = &cobra.Command{
	Use:   "respond",
	Short: "Record that an enrolled target responded",
	RunE:  runSequencesRespondCmd,
}

var sequencesListCommand = &cobra.Command{
	Use:   "list",
	Short: "List active enrollments",
	RunE:  runSequencesListCmd,
}

var sequencesStatsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show response and completion rates for a sequence",
	RunE:  runSequencesStatsCmd,
}

var (
	sequencesConfigPath   string
	sequencesDatabaseURL  string
	sequencesFilePath     string
	sequencesID           int64
	sequencesTarget       string
	sequencesTargetName   string
	sequencesLocation     string
	sequencesTriggerType  string
	sequencesEnrollmentID int64
)

func init() {
	for _, c := range []*cobra.Command{
		sequencesCreateCommand,
		sequencesEnrollCommand,
		sequencesTriggerCommand,
		sequencesRespondCommand,
		sequencesListCommand,
		sequencesStatsCommand,
	} {
		c.Flags().StringVar(&sequencesConfigPath, "config", "", "Path to agent.yaml")
		c.Flags().StringVar(&sequencesDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
		sequencesCommand.AddCommand(c)
	}

	sequencesCreateCommand.Flags().StringVarP(&sequencesFilePath, "file", "f", "", "Path to JSON file holding the sequence definition")
	if err := sequencesCreateCommand.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	sequencesEnrollCommand.Flags().Int64Var(&sequencesID, "sequence-id", 0, "Sequence to enroll into")
	sequencesEnrollCommand.Flags().StringVar(&sequencesTarget, "target", "", "Target profile URL or stable identity")
	sequencesEnrollCommand.Flags().StringVar(&sequencesTargetName, "name", "", "Target display name, used in templates")
	sequencesEnrollCommand.Flags().StringVar(&sequencesLocation, "location", "", "Target location, used for timezone scheduling")
	for _, flag := range []string{"sequence-id", "target"} {
		if err := sequencesEnrollCommand.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	sequencesTriggerCommand.Flags().StringVar(&sequencesTriggerType, "type", "", "Trigger type: new_connection, profile_view, or post_engagement")
	sequencesTriggerCommand.Flags().StringVar(&sequencesTarget, "target", "", "Target profile URL or stable identity")
	sequencesTriggerCommand.Flags().StringVar(&sequencesTargetName, "name", "", "Target display name, used in templates")
	sequencesTriggerCommand.Flags().StringVar(&sequencesLocation, "location", "", "Target location, used for timezone scheduling")
	for _, flag := range []string{"type", "target"} {
		if err := sequencesTriggerCommand.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	sequencesRespondCommand.Flags().Int64Var(&sequencesEnrollmentID, "enrollment-id", 0, "Enrollment that received a response")
	if err := sequencesRespondCommand.MarkFlagRequired("enrollment-id"); err != nil {
		panic(err)
	}

	sequencesStatsCommand.Flags().Int64Var(&sequencesID, "sequence-id", 0, "Sequence to report on")
	if err := sequencesStatsCommand.MarkFlagRequired("sequence-id"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(sequencesCommand)
}

// connectSequenceStore loads config and opens the store for a sequences
// subcommand.
func connectSequenceStore(ctx context.Context, cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := config.Load(sequencesConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = sequencesDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return st, cfg, nil
}

func runSequencesCreateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(sequencesFilePath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read sequence file: %w", err)
	}
	var seq types.Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return fmt.Errorf("failed to parse sequence file: %w", err)
	}
	if seq.Name == "" || len(seq.Steps) == 0 {
		return fmt.Errorf("sequence needs a name and at least one step")
	}
	if seq.Trigger == "" {
		seq.Trigger = types.TriggerManual
	}
	seq.Active = true

	st, _, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.CreateSequence(ctx, seq)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	fmt.Printf("Created sequence %d (%s) with %d steps\n", id, seq.Name, len(seq.Steps))
	return nil
}

func runSequencesEnrollCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	st, cfg, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	seq, err := st.SequenceByID(ctx, sequencesID)
	if err != nil {
		return fmt.Errorf("failed to load sequence %d: %w", sequencesID, err)
	}

	scheduler := sequence.NewScheduler(st, cfg.Sequences)
	enr, err := scheduler.Enroll(ctx, seq, sequencesTarget, sequencesTargetName, sequencesLocation, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Enrolled %s into %s (enrollment %d), first step due %s\n",
		sequencesTarget, seq.Name, enr.ID, enr.NextDueAt.Format(time.RFC3339))
	return nil
}

func runSequencesTriggerCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	trigger := types.TriggerType(sequencesTriggerType)
	switch trigger {
	case types.TriggerNewConnection, types.TriggerProfileView, types.TriggerPostEngagement:
	default:
		return fmt.Errorf("unknown trigger type %q", sequencesTriggerType)
	}

	st, cfg, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	scheduler := sequence.NewScheduler(st, cfg.Sequences)
	created, err := scheduler.HandleTrigger(ctx, sequence.TriggerEvent{
		Trigger:        trigger,
		TargetRef:      sequencesTarget,
		TargetName:     sequencesTargetName,
		TargetLocation: sequencesLocation,
	}, time.Now())
	if err != nil {
		return err
	}

	if len(created) == 0 {
		fmt.Printf("No sequence listening for %s enrolled %s\n", trigger, sequencesTarget)
		return nil
	}
	for _, enr := range created {
		fmt.Printf("Enrolled %s into sequence %d (enrollment %d), first step due %s\n",
			sequencesTarget, enr.SequenceID, enr.ID, enr.NextDueAt.Format(time.RFC3339))
	}
	return nil
}

func runSequencesRespondCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	st, cfg, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	enrollments, err := st.ActiveEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}
	var enr *types.Enrollment
	for i := range enrollments {
		if enrollments[i].ID == sequencesEnrollmentID {
			enr = &enrollments[i]
			break
		}
	}
	if enr == nil {
		return fmt.Errorf("no active enrollment %d", sequencesEnrollmentID)
	}

	seq, err := st.SequenceByID(ctx, enr.SequenceID)
	if err != nil {
		return fmt.Errorf("failed to load sequence %d: %w", enr.SequenceID, err)
	}

	scheduler := sequence.NewScheduler(st, cfg.Sequences)
	updated, err := scheduler.MarkResponded(ctx, *enr, seq, time.Now())
	if err != nil {
		return err
	}

	if updated.Status == types.EnrollmentActive {
		fmt.Printf("Enrollment %d switched to the responded branch, next step due %s\n",
			updated.ID, updated.NextDueAt.Format(time.RFC3339))
	} else {
		fmt.Printf("Enrollment %d is now %s\n", updated.ID, updated.Status)
	}
	return nil
}

func runSequencesListCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	st, _, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	enrollments, err := st.ActiveEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		fmt.Println("No active enrollments.")
		return nil
	}
	for _, enr := range enrollments {
		fmt.Printf("%-6d seq %-4d step %-2d due %s  %s\n",
			enr.ID, enr.SequenceID, enr.CurrentStep, enr.NextDueAt.Format(time.RFC3339), enr.TargetRef)
	}
	return nil
}

func runSequencesStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	st, _, err := connectSequenceStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	seq, err := st.SequenceByID(ctx, sequencesID)
	if err != nil {
		return fmt.Errorf("failed to load sequence %d: %w", sequencesID, err)
	}
	enrollments, err := st.EnrollmentsBySequence(ctx, sequencesID)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}

	perf := sequence.MeasurePerformance(sequencesID, enrollments)
	fmt.Printf("%s: %d enrolled (%d active, %d completed, %d stopped)\n",
		seq.Name, perf.Enrolled, perf.Active, perf.Completed, perf.Stopped)
	fmt.Printf("response rate %.1f%%, completion rate %.1f%%\n",
		perf.ResponseRate*100, perf.CompletionRate*100)
	return nil
}
