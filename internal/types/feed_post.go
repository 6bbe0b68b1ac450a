package types

import "time"

// FeedPost is one post extracted from the rendered platform feed, a
// candidate for engagement.
type FeedPost struct {
	Author   string  `json:"author"`
	Text     string  `json:"text"`
	URL      string  `json:"url,omitempty"`
	Selector string  `json:"selector,omitempty"` // DOM anchor for the executor
	Score    float64 `json:"score,omitempty"`    // engagement potential, 0-100
}

// ScheduledPost is authored content waiting for its publish time.
type ScheduledPost struct {
	ID           int64     `json:"id"`
	Topic        string    `json:"topic"`
	Content      string    `json:"content"`
	Hashtags     string    `json:"hashtags,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Published    bool      `json:"published"`
	VariantID    string    `json:"variant_id,omitempty"` // experiment variant this post belongs to
}

// CampaignTarget is one prospect attached to an outreach campaign, pending
// a connection request.
type CampaignTarget struct {
	CampaignID int64    `json:"campaign_id"`
	Campaign   string   `json:"campaign"`
	Prospect   Prospect `json:"prospect"`
	NoteHint   string   `json:"note_hint,omitempty"` // personalization angle for the request note
}
