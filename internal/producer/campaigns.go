package producer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jordan/outreach-agent/internal/scoring"
	"github.com/jordan/outreach-agent/internal/sequence"
	"github.com/jordan/outreach-agent/internal/types"
)

// campaignBatchSize bounds how many pending targets are considered per
// cycle. The safety budget admits far fewer; there is no point scoring
// hundreds.
const campaignBatchSize = 25

// CampaignStore is the campaign persistence the producer needs.
type CampaignStore interface {
	PendingCampaignTargets(ctx context.Context, limit int) ([]types.CampaignTarget, error)
	MarkTargetContacted(ctx context.Context, campaignID int64, profileURL string) error
}

// NoteGenerator drafts connection request notes.
type NoteGenerator interface {
	GenerateConnectionNote(ctx context.Context, prospect types.Prospect, hint string) (string, error)
}

// TriggerHandler receives behavioral signals that can start sequences. A
// successful connection request is the new_connection signal.
type TriggerHandler interface {
	HandleTrigger(ctx context.Context, ev sequence.TriggerEvent, now time.Time) ([]types.Enrollment, error)
}

// Campaigns proposes connection requests to pending campaign targets,
// best-scored prospects first. Prospects in the ignore tier are skipped
// outright rather than queued at low priority.
type Campaigns struct {
	store     CampaignStore
	engine    *scoring.Engine
	generator NoteGenerator
	triggers  TriggerHandler
}

// NewCampaigns builds the producer. triggers may be nil when no sequence
// scheduler is configured.
func NewCampaigns(store CampaignStore, engine *scoring.Engine, generator NoteGenerator, triggers TriggerHandler) *Campaigns {
	return &Campaigns{store: store, engine: engine, generator: generator, triggers: triggers}
}

// Name identifies the producer in logs and summaries.
func (p *Campaigns) Name() string { return "campaigns" }

// Gather scores the pending targets and proposes connection requests with
// drafted notes for everyone above the ignore tier.
func (p *Campaigns) Gather(ctx context.Context, now time.Time) ([]types.Candidate, error) {
	targets, err := p.store.PendingCampaignTargets(ctx, campaignBatchSize)
	if err != nil {
		return nil, fmt.Errorf("loading campaign targets: %w", err)
	}

	byURL := make(map[string]types.CampaignTarget, len(targets))
	prospects := make([]types.Prospect, 0, len(targets))
	for _, t := range targets {
		if t.Prospect.ProfileURL == "" {
			continue
		}
		byURL[t.Prospect.ProfileURL] = t
		prospects = append(prospects, t.Prospect)
	}

	var candidates []types.Candidate
	for _, sp := range p.engine.BatchScore(prospects, now) {
		if sp.Score.Tier == types.TierIgnore {
			continue
		}
		target := byURL[sp.Prospect.ProfileURL]

		note, err := p.generator.GenerateConnectionNote(ctx, sp.Prospect, target.NoteHint)
		if err != nil {
			return candidates, fmt.Errorf("drafting note for %s: %w", sp.Prospect.Name, err)
		}

		candidates = append(candidates, types.Candidate{
			Action: types.Action{
				Kind:      types.KindConnectionRequest,
				TargetRef: sp.Prospect.ProfileURL,
				Parameters: map[string]string{
					ParamNote:         note,
					ParamCampaignID:   strconv.FormatInt(target.CampaignID, 10),
					ParamProfileURL:   sp.Prospect.ProfileURL,
					ParamProspectName: sp.Prospect.Name,
					ParamProspectLoc:  sp.Prospect.Location,
				},
			},
			Score:  sp.Score.Total,
			Source: p.Name(),
		})
	}
	return candidates, nil
}

// HandleResult marks the target contacted once the request actually went
// out, so failed sends stay in the queue for a later cycle. A successful
// request also fires the new_connection trigger, enrolling the prospect
// into any sequence listening for it.
func (p *Campaigns) HandleResult(ctx context.Context, cand types.Candidate, rec types.ActionRecord) error {
	if rec.Outcome != types.OutcomeSuccess {
		return nil
	}
	campaignID, err := strconv.ParseInt(cand.Action.Parameters[ParamCampaignID], 10, 64)
	if err != nil {
		return fmt.Errorf("bad campaign ID on candidate: %w", err)
	}
	if err := p.store.MarkTargetContacted(ctx, campaignID, cand.Action.Parameters[ParamProfileURL]); err != nil {
		return err
	}

	if p.triggers == nil {
		return nil
	}
	_, err = p.triggers.HandleTrigger(ctx, sequence.TriggerEvent{
		Trigger:        types.TriggerNewConnection,
		TargetRef:      cand.Action.Parameters[ParamProfileURL],
		TargetName:     cand.Action.Parameters[ParamProspectName],
		TargetLocation: cand.Action.Parameters[ParamProspectLoc],
	}, rec.PerformedAt)
	if err != nil {
		return fmt.Errorf("firing new connection trigger: %w", err)
	}
	return nil
}
