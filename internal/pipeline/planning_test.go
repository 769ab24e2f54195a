package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/types"
)

func testDiscovery() *types.DiscoveredCompanyProfile {
	profile, err := decodeDiscoveryResults(validDiscoveryArgs())
	if err != nil {
		panic(err)
	}
	return profile
}

func TestRunPlanning_ProducesPersistedPlan(t *testing.T) {
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: validPlanJSON()}, nil
	}}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	plan, err := p.runPlanning(context.Background(), app, testDiscovery())
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", plan.TargetRole)
	require.Len(t, plan.ResearchCategories, 2)

	require.NotNil(t, store.app.CompanyProfile)
	assert.Same(t, plan, store.app.CompanyProfile.ResearchPlan)

	// planning runs as a structured call with the schema attached
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, llm.TierAdvanced, req.Tier)
	assert.NotEmpty(t, req.ResponseSchema)
	assert.Contains(t, req.Messages[0].Text, "Acme Labs")

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventSucceeded, *steps[1].Status)
	assert.Equal(t, 2, steps[1].Data["categories"])
}

func TestRunPlanning_InvalidOutputFailsAfterRetries(t *testing.T) {
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"target_role": "Backend Engineer"}`}, nil
	}}
	app := testApplication()
	p, recorder := newTestPipeline(newFakeStore(app), client, &fakeTools{})

	_, err := p.runPlanning(context.Background(), app, testDiscovery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research planning failed")
	// corrective retries were attempted before giving up
	assert.Len(t, client.requests, structuredOutputMaxRetry)

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventFailed, *steps[1].Status)
}
