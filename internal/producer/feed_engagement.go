package producer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jordan/outreach-agent/internal/browser"
	"github.com/jordan/outreach-agent/internal/types"
)

// maxFeedPosts bounds how much of the rendered feed gets parsed per cycle.
const maxFeedPosts = 20

// FeedFetcher renders the feed page.
type FeedFetcher interface {
	FetchFeed(ctx context.Context) (string, error)
}

// CommentGenerator drafts comments on feed posts.
type CommentGenerator interface {
	GenerateComment(ctx context.Context, post types.FeedPost) (string, error)
}

// FeedEngagement proposes likes and comments on the most relevant posts in
// the feed. Relevance comes from overlap with the user's interest keywords;
// posts with no overlap are never engaged, no matter how few candidates
// that leaves.
type FeedEngagement struct {
	fetcher     FeedFetcher
	generator   CommentGenerator
	interests   []string
	maxPerCycle int
}

// NewFeedEngagement builds the producer.
func NewFeedEngagement(fetcher FeedFetcher, generator CommentGenerator, interests []string, maxPerCycle int) *FeedEngagement {
	return &FeedEngagement{fetcher: fetcher, generator: generator, interests: interests, maxPerCycle: maxPerCycle}
}

// Name identifies the producer in logs and summaries.
func (p *FeedEngagement) Name() string { return "feed_engagement" }

// Gather fetches the feed, ranks posts by relevance, and proposes a like
// plus a drafted comment for each of the top posts.
func (p *FeedEngagement) Gather(ctx context.Context, _ time.Time) ([]types.Candidate, error) {
	html, err := p.fetcher.FetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	posts, err := browser.ExtractFeedPosts(html, maxFeedPosts)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		posts[i].Score = relevanceScore(posts[i].Text, p.interests)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Score > posts[j].Score })

	var candidates []types.Candidate
	engaged := 0
	for _, post := range posts {
		if post.Score <= 0 || engaged >= p.maxPerCycle {
			break
		}
		target := post.URL
		if target == "" {
			target = post.Selector
		}
		if target == "" {
			continue
		}

		candidates = append(candidates, types.Candidate{
			Action: types.Action{
				Kind:      types.KindLike,
				TargetRef: target,
			},
			Score:  post.Score,
			Source: p.Name(),
		})

		comment, err := p.generator.GenerateComment(ctx, post)
		if err != nil {
			return candidates, fmt.Errorf("drafting comment on %s: %w", target, err)
		}
		candidates = append(candidates, types.Candidate{
			Action: types.Action{
				Kind:       types.KindComment,
				TargetRef:  target,
				Parameters: map[string]string{ParamContent: comment},
			},
			Score:  post.Score,
			Source: p.Name(),
		})
		engaged++
	}
	return candidates, nil
}

// HandleResult is a no-op: feed engagement has no follow-through state.
func (p *FeedEngagement) HandleResult(context.Context, types.Candidate, types.ActionRecord) error {
	return nil
}
