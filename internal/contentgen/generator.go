package contentgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordan/outreach-agent/internal/types"
)

const (
	// maxCommentLength keeps generated comments conversational rather than
	// essay-shaped.
	maxCommentLength = 400
	// maxNoteLength matches the platform limit for connection request
	// notes.
	maxNoteLength = 300
)

// Generator produces outreach content through an LLM client.
type Generator struct {
	client Client
}

// NewGenerator creates a Generator over the given client.
func NewGenerator(client Client) *Generator {
	return &Generator{client: client}
}

// GenerateComment writes a short, substantive comment on a feed post.
func (g *Generator) GenerateComment(ctx context.Context, post types.FeedPost) (string, error) {
	prompt := fmt.Sprintf(`You are commenting on a professional networking post as a thoughtful peer.

Post by %s:
"""
%s
"""

Write one comment that adds a concrete observation or question. Rules:
- 1 to 3 sentences
- no hashtags, no emoji, no "Great post!"
- do not restate the post
Return only the comment text.`, post.Author, Truncate(post.Text, 1500))

	text, err := g.client.GenerateText(ctx, prompt, TierLite)
	if err != nil {
		return "", fmt.Errorf("generating comment: %w", err)
	}
	return Truncate(cleanLine(text), maxCommentLength), nil
}

// GeneratePost drafts a full post on a topic, optionally following a
// variant directive from a running content experiment (tone, length, CTA).
func (g *Generator) GeneratePost(ctx context.Context, topic string, interests []string, variantDirective string) (string, error) {
	var directive string
	if variantDirective != "" {
		directive = "\nStyle directive: " + variantDirective
	}
	prompt := fmt.Sprintf(`Write a professional networking post.

Topic: %s
Author's interest areas: %s%s

Rules:
- 80 to 180 words
- open with a hook, close with a question to the reader
- first person, no corporate buzzwords
- at most 3 hashtags, placed at the end
Return only the post text.`, topic, strings.Join(interests, ", "), directive)

	text, err := g.client.GenerateText(ctx, prompt, TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("generating post on %q: %w", topic, err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateConnectionNote writes a personalized note for a connection
// request, hard-capped at the platform's note length.
func (g *Generator) GenerateConnectionNote(ctx context.Context, prospect types.Prospect, hint string) (string, error) {
	var hintLine string
	if hint != "" {
		hintLine = "\nContext to reference: " + hint
	}
	prompt := fmt.Sprintf(`Write a connection request note to this person.

Name: %s
Title: %s
Company: %s%s

Rules:
- under 280 characters
- mention one specific thing about them, not generic flattery
- no links, no sales pitch
Return only the note text.`, prospect.Name, prospect.Title, prospect.Company, hintLine)

	text, err := g.client.GenerateText(ctx, prompt, TierStandard)
	if err != nil {
		return "", fmt.Errorf("generating connection note for %s: %w", prospect.Name, err)
	}
	return Truncate(cleanLine(text), maxNoteLength), nil
}

// GenerateVariants produces experiment variants of a base piece of content.
// The first returned variant is always the unmodified base, so experiments
// test challengers against the real control.
func (g *Generator) GenerateVariants(ctx context.Context, base string, expType types.ExperimentType, count int) ([]types.Variant, error) {
	if count < 1 {
		return nil, fmt.Errorf("variant count must be at least 1, got %d", count)
	}
	prompt := fmt.Sprintf(`Rewrite the content below in %d different ways, varying only the %s.

Content:
"""
%s
"""

Return a JSON array of objects with fields "label" (short description of
what changed) and "content" (the full rewritten text). Return only JSON.`, count, variantAxis(expType), base)

	raw, err := g.client.GenerateJSON(ctx, prompt, TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("generating %s variants: %w", expType, err)
	}
	payload, err := parseVariantsJSON(raw)
	if err != nil {
		return nil, err
	}

	variants := []types.Variant{{ID: "control", Label: "original", Content: base, IsControl: true}}
	for i, p := range payload {
		if i >= count {
			break
		}
		variants = append(variants, types.Variant{
			ID:      fmt.Sprintf("variant-%d", i+1),
			Label:   p.Label,
			Content: p.Content,
		})
	}
	return variants, nil
}

// GenerateRecommendation turns an experiment analysis into a short
// plain-language recommendation for the operator.
func (g *Generator) GenerateRecommendation(ctx context.Context, analysis types.ExperimentAnalysis) (string, error) {
	var b strings.Builder
	for _, v := range analysis.PerVariant {
		role := "challenger"
		if v.IsControl {
			role = "control"
		}
		fmt.Fprintf(&b, "- %s (%s): %d/%d successes, rate %.3f\n",
			v.Label, role, v.Successes, v.Exposures, v.SuccessRate)
	}
	verdict := "no statistically significant winner"
	if !analysis.SufficientSample {
		verdict = "sample size still below the minimum"
	} else if analysis.Significant {
		verdict = fmt.Sprintf("significant winner %s (p=%.4f)", analysis.WinnerID, analysis.PValue)
	}

	prompt := fmt.Sprintf(`An A/B test named %q finished analysis with these arms:

%s
Statistical verdict: %s.

In 2-3 sentences, recommend what to do next (ship a variant, keep
collecting samples, or redesign the test). Be concrete. Return only the
recommendation text.`, analysis.Name, b.String(), verdict)

	text, err := g.client.GenerateText(ctx, prompt, TierStandard)
	if err != nil {
		return "", fmt.Errorf("generating recommendation for %s: %w", analysis.ExperimentID, err)
	}
	return cleanLine(text), nil
}

// variantAxis names the dimension an experiment type varies.
func variantAxis(expType types.ExperimentType) string {
	switch expType {
	case types.ExperimentHeadline:
		return "opening line"
	case types.ExperimentTone:
		return "tone of voice"
	case types.ExperimentLength:
		return "length"
	case types.ExperimentCTA:
		return "closing call to action"
	case types.ExperimentHashtag:
		return "hashtags"
	case types.ExperimentTimeOfDay:
		return "framing for the time of day it is posted"
	default:
		return "wording"
	}
}

// cleanLine strips wrapping quotes and collapses the response to its first
// non-empty paragraph. Models sometimes preface short outputs with a label
// line such as "Comment:".
func cleanLine(text string) string {
	text = strings.TrimSpace(text)
	// Quotes may wrap the whole line or only the text after the label, so
	// trim them on both sides of the prefix strip.
	text = strings.Trim(text, `"`)
	for _, prefix := range []string{"Comment:", "Note:", "Response:"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	text = strings.Trim(text, `"`)
	return strings.TrimSpace(text)
}
