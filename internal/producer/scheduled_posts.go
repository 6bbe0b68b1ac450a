package producer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jordan/outreach-agent/internal/types"
)

// PostStore is the scheduled-post persistence the producer needs.
type PostStore interface {
	DuePosts(ctx context.Context, now time.Time) ([]types.ScheduledPost, error)
	MarkPostPublished(ctx context.Context, id int64) error
}

// PostGenerator drafts post content for topics scheduled without a body.
type PostGenerator interface {
	GeneratePost(ctx context.Context, topic string, interests []string, variantDirective string) (string, error)
}

// VariantChooser exposes the running experiments so new posts can be
// assigned a variant.
type VariantChooser interface {
	Running() []types.Experiment
	ChooseVariant(id string) (types.Variant, error)
	RecordSample(experimentID, variantID, actionID string, success bool) error
}

// ScheduledPosts proposes publication of posts whose scheduled time has
// arrived. Posts scheduled as bare topics get their content drafted at
// gather time; when a content experiment is running the draft follows a
// variant directive and the publication is recorded as a sample.
type ScheduledPosts struct {
	store       PostStore
	generator   PostGenerator
	experiments VariantChooser
	interests   []string
}

// NewScheduledPosts builds the producer. experiments may be nil when no
// experimentation is wanted.
func NewScheduledPosts(store PostStore, generator PostGenerator, experiments VariantChooser, interests []string) *ScheduledPosts {
	return &ScheduledPosts{store: store, generator: generator, experiments: experiments, interests: interests}
}

// Name identifies the producer in logs and summaries.
func (p *ScheduledPosts) Name() string { return "scheduled_posts" }

// Gather proposes one post candidate per due scheduled post. Publication is
// time-critical work: a post slot missed by hours loses its audience.
func (p *ScheduledPosts) Gather(ctx context.Context, now time.Time) ([]types.Candidate, error) {
	due, err := p.store.DuePosts(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("loading due posts: %w", err)
	}

	var candidates []types.Candidate
	for _, post := range due {
		params := map[string]string{
			ParamPostID: strconv.FormatInt(post.ID, 10),
		}

		content := post.Content
		if content == "" {
			directive := ""
			if p.experiments != nil {
				if expID, variant, ok := p.pickVariant(); ok {
					directive = variant.Content
					params[ParamExperimentID] = expID
					params[ParamVariantID] = variant.ID
				}
			}
			content, err = p.generator.GeneratePost(ctx, post.Topic, p.interests, directive)
			if err != nil {
				return candidates, fmt.Errorf("drafting post %d: %w", post.ID, err)
			}
		}
		if post.Hashtags != "" {
			content += "\n\n" + post.Hashtags
		}
		params[ParamContent] = content

		candidates = append(candidates, types.Candidate{
			Action: types.Action{
				Kind:       types.KindPost,
				TargetRef:  "feed",
				Parameters: params,
			},
			TimeCritical: true,
			DueAt:        post.ScheduledFor,
			Source:       p.Name(),
		})
	}
	return candidates, nil
}

// pickVariant selects a variant from the first running experiment.
func (p *ScheduledPosts) pickVariant() (string, types.Variant, bool) {
	for _, exp := range p.experiments.Running() {
		variant, err := p.experiments.ChooseVariant(exp.ID)
		if err != nil {
			continue
		}
		return exp.ID, variant, true
	}
	return "", types.Variant{}, false
}

// HandleResult marks the post published on success and feeds the experiment
// sample either way: a failed publication is a real exposure outcome.
func (p *ScheduledPosts) HandleResult(ctx context.Context, cand types.Candidate, rec types.ActionRecord) error {
	if expID := cand.Action.Parameters[ParamExperimentID]; expID != "" && p.experiments != nil {
		variantID := cand.Action.Parameters[ParamVariantID]
		if err := p.experiments.RecordSample(expID, variantID, rec.ID.String(), rec.Outcome == types.OutcomeSuccess); err != nil {
			return fmt.Errorf("recording sample for post: %w", err)
		}
	}
	if rec.Outcome != types.OutcomeSuccess {
		return nil
	}
	id, err := strconv.ParseInt(cand.Action.Parameters[ParamPostID], 10, 64)
	if err != nil {
		return fmt.Errorf("bad post ID on candidate: %w", err)
	}
	return p.store.MarkPostPublished(ctx, id)
}
