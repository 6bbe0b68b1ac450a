package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordan/outreach-agent/internal/types"
)

// CreateCampaign registers a named outreach campaign and returns its ID.
func (s *Store) CreateCampaign(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO campaigns (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create campaign: %w", err)
	}
	return id, nil
}

// AddCampaignTarget queues a prospect for outreach under a campaign. The
// prospect snapshot is stored as JSON so scoring inputs survive as they were
// at enqueue time.
func (s *Store) AddCampaignTarget(ctx context.Context, campaignID int64, prospect types.Prospect, noteHint string) error {
	blob, err := json.Marshal(prospect)
	if err != nil {
		return fmt.Errorf("failed to marshal prospect: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO campaign_targets (campaign_id, profile_url, prospect, note_hint)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (campaign_id, profile_url) DO NOTHING`,
		campaignID, prospect.ProfileURL, blob, noteHint,
	)
	if err != nil {
		return fmt.Errorf("failed to add campaign target: %w", err)
	}
	return nil
}

// PendingCampaignTargets returns up to limit uncontacted targets across
// active campaigns, oldest first.
func (s *Store) PendingCampaignTargets(ctx context.Context, limit int) ([]types.CampaignTarget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.campaign_id, c.name, t.prospect, t.note_hint
		 FROM campaign_targets t
		 JOIN campaigns c ON c.id = t.campaign_id
		 WHERE t.contacted_at IS NULL AND c.active
		 ORDER BY t.created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign targets: %w", err)
	}
	defer rows.Close()

	var targets []types.CampaignTarget
	for rows.Next() {
		var t types.CampaignTarget
		var blob []byte
		if err := rows.Scan(&t.CampaignID, &t.Campaign, &blob, &t.NoteHint); err != nil {
			return nil, fmt.Errorf("failed to scan campaign target: %w", err)
		}
		if err := json.Unmarshal(blob, &t.Prospect); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prospect: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// MarkTargetContacted records that outreach went out to a campaign target.
func (s *Store) MarkTargetContacted(ctx context.Context, campaignID int64, profileURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_targets SET contacted_at = NOW()
		 WHERE campaign_id = $1 AND profile_url = $2 AND contacted_at IS NULL`,
		campaignID, profileURL,
	)
	if err != nil {
		return fmt.Errorf("failed to mark target contacted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no pending target %s in campaign %d", profileURL, campaignID)
	}
	return nil
}
