package producer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/scoring"
	"github.com/jordan/outreach-agent/internal/sequence"
	"github.com/jordan/outreach-agent/internal/types"
)

// ---- shared fakes ----

type fakePostStore struct {
	due       []types.ScheduledPost
	published []int64
}

func (f *fakePostStore) DuePosts(context.Context, time.Time) ([]types.ScheduledPost, error) {
	return f.due, nil
}

func (f *fakePostStore) MarkPostPublished(_ context.Context, id int64) error {
	f.published = append(f.published, id)
	return nil
}

type fakeGenerator struct {
	post    string
	comment string
	note    string
}

func (f *fakeGenerator) GeneratePost(_ context.Context, topic string, _ []string, directive string) (string, error) {
	out := f.post + " about " + topic
	if directive != "" {
		out += " [" + directive + "]"
	}
	return out, nil
}

func (f *fakeGenerator) GenerateComment(context.Context, types.FeedPost) (string, error) {
	return f.comment, nil
}

func (f *fakeGenerator) GenerateConnectionNote(context.Context, types.Prospect, string) (string, error) {
	return f.note, nil
}

type fakeExperiments struct {
	running []types.Experiment
	samples []string
}

func (f *fakeExperiments) Running() []types.Experiment { return f.running }

func (f *fakeExperiments) ChooseVariant(id string) (types.Variant, error) {
	return f.running[0].Variants[0], nil
}

func (f *fakeExperiments) RecordSample(experimentID, variantID, actionID string, success bool) error {
	f.samples = append(f.samples, experimentID+"/"+variantID)
	return nil
}

func successRecord() types.ActionRecord {
	return types.ActionRecord{ID: uuid.New(), Outcome: types.OutcomeSuccess, PerformedAt: time.Now()}
}

// ---- scheduled posts ----

func TestScheduledPosts_GatherDraftsMissingContent(t *testing.T) {
	due := time.Now().Add(-time.Minute)
	store := &fakePostStore{due: []types.ScheduledPost{
		{ID: 7, Topic: "hiring", ScheduledFor: due, Hashtags: "#hiring"},
		{ID: 8, Topic: "prewritten", Content: "Already written.", ScheduledFor: due},
	}}
	exp := &fakeExperiments{running: []types.Experiment{{
		ID:       "exp-1",
		Status:   types.ExperimentRunning,
		Variants: []types.Variant{{ID: "control", Content: "formal tone"}},
	}}}
	p := NewScheduledPosts(store, &fakeGenerator{post: "draft"}, exp, []string{"go"})

	candidates, err := p.Gather(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, types.KindPost, first.Action.Kind)
	assert.True(t, first.TimeCritical)
	assert.Equal(t, due, first.DueAt)
	assert.Equal(t, "draft about hiring [formal tone]\n\n#hiring", first.Action.Parameters[ParamContent])
	assert.Equal(t, "exp-1", first.Action.Parameters[ParamExperimentID])

	// Prewritten content is published as-is, outside any experiment.
	second := candidates[1]
	assert.Equal(t, "Already written.", second.Action.Parameters[ParamContent])
	assert.Empty(t, second.Action.Parameters[ParamExperimentID])
}

func TestScheduledPosts_HandleResultMarksPublishedAndSamples(t *testing.T) {
	store := &fakePostStore{}
	exp := &fakeExperiments{}
	p := NewScheduledPosts(store, &fakeGenerator{}, exp, nil)

	cand := types.Candidate{Action: types.Action{
		Kind: types.KindPost,
		Parameters: map[string]string{
			ParamPostID:       "7",
			ParamExperimentID: "exp-1",
			ParamVariantID:    "control",
		},
	}}
	require.NoError(t, p.HandleResult(context.Background(), cand, successRecord()))

	assert.Equal(t, []int64{7}, store.published)
	assert.Equal(t, []string{"exp-1/control"}, exp.samples)
}

func TestScheduledPosts_FailureStillRecordsSampleButNotPublished(t *testing.T) {
	store := &fakePostStore{}
	exp := &fakeExperiments{}
	p := NewScheduledPosts(store, &fakeGenerator{}, exp, nil)

	cand := types.Candidate{Action: types.Action{
		Kind: types.KindPost,
		Parameters: map[string]string{
			ParamPostID:       "7",
			ParamExperimentID: "exp-1",
			ParamVariantID:    "control",
		},
	}}
	rec := types.ActionRecord{ID: uuid.New(), Outcome: types.OutcomeFailure, PerformedAt: time.Now()}
	require.NoError(t, p.HandleResult(context.Background(), cand, rec))

	assert.Empty(t, store.published)
	assert.Len(t, exp.samples, 1)
}

// ---- feed engagement ----

type fakeFetcher struct{ html string }

func (f *fakeFetcher) FetchFeed(context.Context) (string, error) { return f.html, nil }

const engagementFeedHTML = `
<html><body>
  <div class="feed-shared-update-v2">
    <span class="update-components-actor__title">Dana</span>
    <div class="update-components-text">Shipping a distributed systems course, lessons from building the scheduler included. It took a while but the results were worth the wait for everyone involved.</div>
    <a class="app-aware-link" href="https://example.com/p/1"></a>
  </div>
  <div class="feed-shared-update-v2">
    <span class="update-components-actor__title">Spam Co</span>
    <div class="update-components-text">Buy our thing today.</div>
    <a class="app-aware-link" href="https://example.com/p/2"></a>
  </div>
</body></html>`

func TestFeedEngagement_ProposesLikeAndCommentForRelevantPosts(t *testing.T) {
	p := NewFeedEngagement(&fakeFetcher{html: engagementFeedHTML}, &fakeGenerator{comment: "Solid breakdown."}, []string{"distributed systems"}, 3)

	candidates, err := p.Gather(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, candidates, 2, "irrelevant post draws no engagement")

	assert.Equal(t, types.KindLike, candidates[0].Action.Kind)
	assert.Equal(t, "https://example.com/p/1", candidates[0].Action.TargetRef)
	assert.Equal(t, types.KindComment, candidates[1].Action.Kind)
	assert.Equal(t, "Solid breakdown.", candidates[1].Action.Parameters[ParamContent])
	assert.Greater(t, candidates[0].Score, 0.0)
}

func TestFeedEngagement_RespectsPerCycleCap(t *testing.T) {
	html := engagementFeedHTML
	p := NewFeedEngagement(&fakeFetcher{html: html}, &fakeGenerator{comment: "ok"}, []string{"the"}, 1)

	candidates, err := p.Gather(context.Background(), time.Now())
	require.NoError(t, err)
	// One engaged post means one like plus one comment.
	assert.Len(t, candidates, 2)
}

// ---- campaigns ----

type fakeCampaignStore struct {
	pending   []types.CampaignTarget
	contacted []string
}

func (f *fakeCampaignStore) PendingCampaignTargets(context.Context, int) ([]types.CampaignTarget, error) {
	return f.pending, nil
}

func (f *fakeCampaignStore) MarkTargetContacted(_ context.Context, _ int64, profileURL string) error {
	f.contacted = append(f.contacted, profileURL)
	return nil
}

func campaignScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: map[types.ScoreFactor]float64{
			types.FactorProfileQuality:    0.30,
			types.FactorEngagementHistory: 0.25,
			types.FactorMutualConnections: 0.20,
			types.FactorCompanyTargeting:  0.15,
			types.FactorActivityLevel:     0.10,
		},
	}
}

func TestCampaigns_GatherOrdersByScoreAndSkipsIgnoreTier(t *testing.T) {
	mutualsHigh, mutualsNone := 25, 0
	zeroed := 0
	store := &fakeCampaignStore{pending: []types.CampaignTarget{
		{CampaignID: 1, Prospect: types.Prospect{Name: "Cold", ProfileURL: "p/cold",
			MutualConnections: &mutualsNone, RecentLikes: &zeroed, RecentComments: &zeroed}},
		{CampaignID: 1, Prospect: types.Prospect{Name: "Warm", ProfileURL: "p/warm",
			MutualConnections: &mutualsHigh}, NoteHint: "met at conf"},
	}}
	p := NewCampaigns(store, scoring.NewEngine(campaignScoringConfig()), &fakeGenerator{note: "Hi there"}, nil)

	candidates, err := p.Gather(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "p/warm", candidates[0].Action.TargetRef)
	assert.Equal(t, types.KindConnectionRequest, candidates[0].Action.Kind)
	assert.Equal(t, "Hi there", candidates[0].Action.Parameters[ParamNote])
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestCampaigns_HandleResultMarksContactedOnlyOnSuccess(t *testing.T) {
	store := &fakeCampaignStore{}
	p := NewCampaigns(store, scoring.NewEngine(campaignScoringConfig()), &fakeGenerator{}, nil)

	cand := types.Candidate{Action: types.Action{
		Kind:       types.KindConnectionRequest,
		Parameters: map[string]string{ParamCampaignID: "1", ParamProfileURL: "p/warm"},
	}}

	rec := types.ActionRecord{ID: uuid.New(), Outcome: types.OutcomeFailure}
	require.NoError(t, p.HandleResult(context.Background(), cand, rec))
	assert.Empty(t, store.contacted)

	require.NoError(t, p.HandleResult(context.Background(), cand, successRecord()))
	assert.Equal(t, []string{"p/warm"}, store.contacted)
}

func TestCampaigns_SuccessfulRequestEnrollsNewConnectionSequences(t *testing.T) {
	seq := types.Sequence{
		ID: 7, Name: "welcome", Trigger: types.TriggerNewConnection, Active: true,
		Steps: []types.SequenceStep{{Delay: 0, Template: "Thanks for connecting, {first_name}!"}},
	}
	seqStore := newMemSequenceStore(seq)
	scheduler := sequence.NewScheduler(seqStore, config.SequenceConfig{SendHour: 9, FallbackTimezone: "UTC"})
	store := &fakeCampaignStore{}
	p := NewCampaigns(store, scoring.NewEngine(campaignScoringConfig()), &fakeGenerator{}, scheduler)

	cand := types.Candidate{Action: types.Action{
		Kind: types.KindConnectionRequest,
		Parameters: map[string]string{
			ParamCampaignID:   "1",
			ParamProfileURL:   "p/ali",
			ParamProspectName: "Ali Osman",
		},
	}}

	rec := types.ActionRecord{ID: uuid.New(), Outcome: types.OutcomeFailure}
	require.NoError(t, p.HandleResult(context.Background(), cand, rec))
	assert.Empty(t, seqStore.enrollments, "failed sends must not start follow-up sequences")

	require.NoError(t, p.HandleResult(context.Background(), cand, successRecord()))
	require.Len(t, seqStore.enrollments, 1)
	for _, enr := range seqStore.enrollments {
		assert.Equal(t, seq.ID, enr.SequenceID)
		assert.Equal(t, "p/ali", enr.TargetRef)
		assert.Equal(t, types.EnrollmentActive, enr.Status)
	}
}

// ---- sequence steps ----

type memSequenceStore struct {
	sequences   map[int64]types.Sequence
	enrollments map[int64]*types.Enrollment
	nextID      int64
}

func newMemSequenceStore(seqs ...types.Sequence) *memSequenceStore {
	m := &memSequenceStore{sequences: map[int64]types.Sequence{}, enrollments: map[int64]*types.Enrollment{}}
	for _, s := range seqs {
		m.sequences[s.ID] = s
	}
	return m
}

func (m *memSequenceStore) SequenceByID(_ context.Context, id int64) (types.Sequence, error) {
	return m.sequences[id], nil
}

func (m *memSequenceStore) SequencesByTrigger(_ context.Context, trigger types.TriggerType) ([]types.Sequence, error) {
	var out []types.Sequence
	for _, s := range m.sequences {
		if s.Trigger == trigger {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSequenceStore) ActiveEnrollments(context.Context) ([]types.Enrollment, error) {
	var out []types.Enrollment
	for _, e := range m.enrollments {
		if e.Status == types.EnrollmentActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memSequenceStore) ActiveEnrollmentExists(_ context.Context, sequenceID int64, targetRef string) (bool, error) {
	for _, e := range m.enrollments {
		if e.SequenceID == sequenceID && e.TargetRef == targetRef && e.Status == types.EnrollmentActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSequenceStore) CreateEnrollment(_ context.Context, enr *types.Enrollment) error {
	m.nextID++
	enr.ID = m.nextID
	cp := *enr
	m.enrollments[enr.ID] = &cp
	return nil
}

func (m *memSequenceStore) UpdateEnrollment(_ context.Context, enr *types.Enrollment) error {
	cp := *enr
	m.enrollments[enr.ID] = &cp
	return nil
}

func TestSequenceSteps_GatherRendersDueStepAndAdvancesOnSuccess(t *testing.T) {
	seq := types.Sequence{
		ID: 1, Name: "welcome", Trigger: types.TriggerNewConnection, Active: true,
		Steps: []types.SequenceStep{
			{Delay: 0, Template: "Thanks for connecting, {first_name}!"},
			{Delay: 72 * time.Hour, Template: "Following up."},
		},
	}
	store := newMemSequenceStore(seq)
	scheduler := sequence.NewScheduler(store, config.SequenceConfig{SendHour: 9, FallbackTimezone: "UTC"})
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	_, err := scheduler.Enroll(ctx, seq, "profile/ali", "Ali Osman", "", t0)
	require.NoError(t, err)

	p := NewSequenceSteps(scheduler)
	candidates, err := p.Gather(ctx, t0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	cand := candidates[0]
	assert.Equal(t, types.KindMessage, cand.Action.Kind)
	assert.Equal(t, "profile/ali", cand.Action.TargetRef)
	assert.Equal(t, "Thanks for connecting, Ali!", cand.Action.Parameters[ParamContent])
	assert.True(t, cand.TimeCritical)

	rec := successRecord()
	rec.PerformedAt = t0
	require.NoError(t, p.HandleResult(ctx, cand, rec))

	// The enrollment moved to step two; nothing is due until its offset.
	candidates, err = p.Gather(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, candidates)

	candidates, err = p.Gather(ctx, t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestRelevanceScore_CountsInterestMatches(t *testing.T) {
	interests := []string{"Go", "distributed systems"}

	assert.Zero(t, relevanceScore("gardening tips for spring", interests))
	assert.Equal(t, 10.0, relevanceScore("short go note", interests))

	long := "We rebuilt our distributed systems stack in Go and wrote up every tradeoff we hit along the way, including the scheduler."
	assert.Equal(t, 25.0, relevanceScore(long, interests))
}
