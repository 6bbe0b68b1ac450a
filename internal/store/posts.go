package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jordan/outreach-agent/internal/types"
)

// CreateScheduledPost queues a post for publication and returns its ID.
func (s *Store) CreateScheduledPost(ctx context.Context, post types.ScheduledPost) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scheduled_posts (topic, content, hashtags, scheduled_for, variant_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		post.Topic, post.Content, post.Hashtags, post.ScheduledFor, post.VariantID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create scheduled post: %w", err)
	}
	return id, nil
}

// DuePosts returns unpublished posts whose scheduled time has arrived,
// oldest first.
func (s *Store) DuePosts(ctx context.Context, now time.Time) ([]types.ScheduledPost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, topic, content, hashtags, scheduled_for, published, variant_id
		 FROM scheduled_posts
		 WHERE published = FALSE AND scheduled_for <= $1
		 ORDER BY scheduled_for ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due posts: %w", err)
	}
	defer rows.Close()

	var posts []types.ScheduledPost
	for rows.Next() {
		var p types.ScheduledPost
		if err := rows.Scan(&p.ID, &p.Topic, &p.Content, &p.Hashtags, &p.ScheduledFor, &p.Published, &p.VariantID); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MarkPostPublished flags a post as published.
func (s *Store) MarkPostPublished(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scheduled_posts SET published = TRUE, published_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark post %d published: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduled post %d not found", id)
	}
	return nil
}

// GetScheduledPost retrieves one post, or nil when it does not exist.
func (s *Store) GetScheduledPost(ctx context.Context, id int64) (*types.ScheduledPost, error) {
	var p types.ScheduledPost
	err := s.pool.QueryRow(ctx,
		`SELECT id, topic, content, hashtags, scheduled_for, published, variant_id
		 FROM scheduled_posts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Topic, &p.Content, &p.Hashtags, &p.ScheduledFor, &p.Published, &p.VariantID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scheduled post: %w", err)
	}
	return &p, nil
}
