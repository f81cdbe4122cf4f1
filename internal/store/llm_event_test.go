package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLLMEvents(t *testing.T, repo EventRepo) {
	t.Helper()
	ctx := context.Background()
	events := []LLMRequestEventData{
		{Provider: "groq", Model: "llama-3.3-70b-versatile", Purpose: "content-gen", RunID: "run-a", InputTokens: 100, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "[user]\nGrade: 3", ResponseBody: "{}"},
		{Provider: "groq", Model: "llama-3.3-70b-versatile", Purpose: "content-review", RunID: "run-a", InputTokens: 300, OutputTokens: 50, LatencyMs: 400, Success: true},
		{Provider: "groq", Model: "llama-3.3-70b-versatile", Purpose: "content-refine", InputTokens: 150, OutputTokens: 420, LatencyMs: 1000, Success: false, ErrorMessage: "rate limited"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "content-gen", RunID: "run-b", InputTokens: 90, OutputTokens: 380, LatencyMs: 700, Success: true},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}
}

func TestLLMEvents_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	seedLLMEvents(t, repo)

	recs, err := repo.QueryLLMEvents(context.Background(), QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 4)

	// Newest first.
	assert.Equal(t, "gpt-4o-mini", recs[0].Model)
	for i := 1; i < len(recs); i++ {
		assert.Greater(t, recs[i-1].Sequence, recs[i].Sequence)
	}

	failed := recs[1]
	assert.False(t, failed.Success)
	assert.Equal(t, "rate limited", failed.ErrorMessage)
	assert.False(t, failed.Timestamp.IsZero())
}

func TestLLMEvents_FilterAndLimit(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	seedLLMEvents(t, repo)
	ctx := context.Background()

	recs, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "content-gen"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = repo.QueryLLMEvents(ctx, QueryOpts{RunID: "run-a"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "content-review", recs[0].Purpose)
	assert.Equal(t, "run-a", recs[1].RunID)

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	recs, err = repo.QueryLLMEvents(ctx, QueryOpts{Before: all[0].Sequence, After: all[3].Sequence})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLLMEvents_Get(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	seedLLMEvents(t, repo)
	ctx := context.Background()

	recs, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "content-gen"})
	require.NoError(t, err)
	oldest := recs[len(recs)-1]

	got, err := repo.GetLLMEvent(ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, "[user]\nGrade: 3", got.RequestBody)
	assert.Equal(t, "{}", got.ResponseBody)

	_, err = repo.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLLMEvents_Usage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	seedLLMEvents(t, repo)
	ctx := context.Background()

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 3)

	m := map[string]UsageSummary{}
	for _, u := range byPurpose {
		m[u.Key] = u
	}
	assert.Equal(t, 2, m["content-gen"].Calls)
	assert.Equal(t, 190, m["content-gen"].InputTokens)
	assert.Equal(t, 780, m["content-gen"].OutputTokens)
	assert.Equal(t, 1, m["content-refine"].Failures)
	assert.InDelta(t, 800.0, m["content-gen"].AvgLatencyMs, 0.01)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "llama-3.3-70b-versatile", byModel[0].Key)
	assert.Equal(t, 3, byModel[0].Calls)
}
