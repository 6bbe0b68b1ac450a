package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/store"
	"github.com/jordan/outreach-agent/internal/types"
)

var schedulePostCommand = &cobra.Command{
	Use:   "schedule-post",
	Short: "Queue a post for publication",
	Long: `Queues a post the agent loop publishes once its scheduled time passes.
With --content the text is published verbatim; without it the agent drafts
the post from the topic (and any running content experiment) at publish time.`,
	RunE: runSchedulePostCmd,
}

var (
	schedulePostConfigPath  string
	schedulePostDatabaseURL string
	schedulePostTopic       string
	schedulePostContent     string
	schedulePostHashtags    string
	schedulePostAt          string
	schedulePostIn          time.Duration
)

func init() {
	schedulePostCommand.Flags().StringVar(&schedulePostConfigPath, "config", "", "Path to agent.yaml")
	schedulePostCommand.Flags().StringVar(&schedulePostDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	schedulePostCommand.Flags().StringVarP(&schedulePostTopic, "topic", "t", "", "Topic the post is about")
	schedulePostCommand.Flags().StringVar(&schedulePostContent, "content", "", "Exact post text (optional; drafted from the topic when empty)")
	schedulePostCommand.Flags().StringVar(&schedulePostHashtags, "hashtags", "", "Hashtags appended to the post, e.g. \"#hiring #golang\"")
	schedulePostCommand.Flags().StringVar(&schedulePostAt, "at", "", "Publication time, RFC 3339 (mutually exclusive with --in)")
	schedulePostCommand.Flags().DurationVar(&schedulePostIn, "in", 0, "Publication delay from now, e.g. 2h30m (mutually exclusive with --at)")

	if err := schedulePostCommand.MarkFlagRequired("topic"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(schedulePostCommand)
}

func runSchedulePostCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if schedulePostAt != "" && schedulePostIn != 0 {
		return fmt.Errorf("--at and --in are mutually exclusive")
	}

	scheduledFor := time.Now()
	switch {
	case schedulePostAt != "":
		t, err := time.Parse(time.RFC3339, schedulePostAt)
		if err != nil {
			return fmt.Errorf("invalid --at value %q: %w", schedulePostAt, err)
		}
		scheduledFor = t
	case schedulePostIn != 0:
		scheduledFor = scheduledFor.Add(schedulePostIn)
	}

	cfg, err := config.Load(schedulePostConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = schedulePostDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	id, err := st.CreateScheduledPost(ctx, types.ScheduledPost{
		Topic:        schedulePostTopic,
		Content:      schedulePostContent,
		Hashtags:     schedulePostHashtags,
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		return fmt.Errorf("failed to schedule post: %w", err)
	}

	fmt.Printf("Scheduled post %d for %s\n", id, scheduledFor.Format(time.RFC3339))
	return nil
}
