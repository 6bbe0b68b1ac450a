package contentgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/outreach-agent/internal/types"
)

// fakeClient returns canned responses and records the prompts it saw.
type fakeClient struct {
	textResponse string
	jsonResponse string
	err          error
	prompts      []string
}

func (f *fakeClient) GenerateText(_ context.Context, prompt string, _ ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.textResponse, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.jsonResponse, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestGenerateComment_CleansAndBoundsResponse(t *testing.T) {
	fc := &fakeClient{textResponse: `Comment: "The monorepo migration numbers are the interesting part here."`}
	g := NewGenerator(fc)

	got, err := g.GenerateComment(context.Background(), types.FeedPost{Author: "Dana", Text: "We migrated to a monorepo."})
	require.NoError(t, err)
	assert.Equal(t, "The monorepo migration numbers are the interesting part here.", got)

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "Post by Dana")
}

func TestGenerateComment_StripsLabelInsideWrappingQuotes(t *testing.T) {
	fc := &fakeClient{textResponse: `"Comment: Shipping weekly beats shipping perfectly."`}
	g := NewGenerator(fc)

	got, err := g.GenerateComment(context.Background(), types.FeedPost{Author: "Ravi", Text: "Release cadence thoughts."})
	require.NoError(t, err)
	assert.Equal(t, "Shipping weekly beats shipping perfectly.", got)
}

func TestGenerateComment_TruncatesLongResponses(t *testing.T) {
	fc := &fakeClient{textResponse: strings.Repeat("x", 1000)}
	g := NewGenerator(fc)

	got, err := g.GenerateComment(context.Background(), types.FeedPost{})
	require.NoError(t, err)
	assert.Len(t, got, maxCommentLength)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestGenerateConnectionNote_RespectsPlatformLimit(t *testing.T) {
	fc := &fakeClient{textResponse: strings.Repeat("y", 500)}
	g := NewGenerator(fc)

	got, err := g.GenerateConnectionNote(context.Background(), types.Prospect{Name: "Ali"}, "commented on the same post")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), maxNoteLength)
	assert.Contains(t, fc.prompts[0], "commented on the same post")
}

func TestGenerateConnectionNote_PropagatesClientError(t *testing.T) {
	fc := &fakeClient{err: errors.New("quota exhausted")}
	g := NewGenerator(fc)

	_, err := g.GenerateConnectionNote(context.Background(), types.Prospect{Name: "Ali"}, "")
	assert.ErrorContains(t, err, "quota exhausted")
}

func TestGenerateVariants_ControlFirstThenChallengers(t *testing.T) {
	fc := &fakeClient{jsonResponse: `[
		{"label": "casual", "content": "Hey, quick thought on this."},
		{"label": "direct", "content": "Three takeaways, no fluff."}
	]`}
	g := NewGenerator(fc)

	variants, err := g.GenerateVariants(context.Background(), "Original post text.", types.ExperimentTone, 2)
	require.NoError(t, err)
	require.Len(t, variants, 3)

	assert.True(t, variants[0].IsControl)
	assert.Equal(t, "Original post text.", variants[0].Content)
	assert.Equal(t, "casual", variants[1].Label)
	assert.False(t, variants[1].IsControl)
	assert.Contains(t, fc.prompts[0], "tone of voice")
}

func TestGenerateVariants_RejectsMalformedJSON(t *testing.T) {
	cases := map[string]string{
		"not an array":   `{"label": "a", "content": "b"}`,
		"missing field":  `[{"label": "a"}]`,
		"empty content":  `[{"label": "a", "content": ""}]`,
		"unknown fields": `[{"label": "a", "content": "b", "score": 1}]`,
	}
	for name, raw := range cases {
		fc := &fakeClient{jsonResponse: raw}
		g := NewGenerator(fc)

		_, err := g.GenerateVariants(context.Background(), "base", types.ExperimentCTA, 2)
		assert.Error(t, err, name)
	}
}

func TestGenerateRecommendation_SummarizesArmsInPrompt(t *testing.T) {
	fc := &fakeClient{textResponse: "Ship the casual-tone variant."}
	g := NewGenerator(fc)

	analysis := types.ExperimentAnalysis{
		ExperimentID:     "exp-1",
		Name:             "note tone",
		SufficientSample: true,
		Significant:      true,
		WinnerID:         "variant-1",
		PValue:           0.012,
		PerVariant: []types.VariantAnalysis{
			{Label: "original", IsControl: true, Exposures: 200, Successes: 40, SuccessRate: 0.2},
			{Label: "casual", Exposures: 200, Successes: 62, SuccessRate: 0.31},
		},
	}

	got, err := g.GenerateRecommendation(context.Background(), analysis)
	require.NoError(t, err)
	assert.Equal(t, "Ship the casual-tone variant.", got)

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "casual")
	assert.Contains(t, fc.prompts[0], "significant winner variant-1")
	assert.Contains(t, fc.prompts[0], "(control)")
}

func TestGenerateRecommendation_PropagatesClientError(t *testing.T) {
	fc := &fakeClient{err: errors.New("quota exceeded")}
	g := NewGenerator(fc)

	_, err := g.GenerateRecommendation(context.Background(), types.ExperimentAnalysis{ExperimentID: "exp-1"})
	assert.ErrorContains(t, err, "quota exceeded")
}
