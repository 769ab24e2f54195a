package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
)

func TestRunDiscovery_PersistsValidatedProfile(t *testing.T) {
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{ToolCalls: []llm.ToolCall{
			{Name: "discovery_done", Args: validDiscoveryArgs()},
		}}, nil
	}}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	profile, err := p.runDiscovery(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", profile.CompanyName)
	assert.Equal(t, "https://acmelabs.com", profile.OfficialWebsite)

	require.NotNil(t, store.app.CompanyProfile)
	assert.Same(t, profile, store.app.CompanyProfile.DiscoveryResults)

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventStarted, *steps[0].Status)
	assert.Equal(t, db.EventSucceeded, *steps[1].Status)
	assert.Equal(t, "Acme Labs", steps[1].Data["company_name"])

	artifacts := recorder.byName(db.EventArtifactGenerated)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "company_discovery", artifacts[0].Data["artifact"])
	assert.Equal(t, "high", artifacts[0].Data["discovery_confidence"])

	// loop seeds the conversation with the job context
	first := client.requests[0].Messages[0]
	assert.Contains(t, first.Text, "Acme Labs")
	assert.Contains(t, first.Text, "Backend Engineer")
}

func TestRunDiscovery_ExhaustionReturnsNoProfile(t *testing.T) {
	// the agent keeps searching and never calls discovery_done
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{ToolCalls: []llm.ToolCall{
			{Name: "web_search", Args: map[string]any{"query": "acme labs"}},
		}}, nil
	}}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	profile, err := p.runDiscovery(context.Background(), app)
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.Nil(t, store.app.CompanyProfile)

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventFailed, *steps[1].Status)
	assert.Empty(t, recorder.byName(db.EventArtifactGenerated))
}

func TestRunDiscovery_RejectsInvalidCompletion(t *testing.T) {
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{ToolCalls: []llm.ToolCall{
			{Name: "discovery_done", Args: map[string]any{
				"discovery_results": map[string]any{"company_name": "Acme Labs"},
			}},
		}}, nil
	}}
	app := testApplication()
	p, _ := newTestPipeline(newFakeStore(app), client, &fakeTools{})

	_, err := p.runDiscovery(context.Background(), app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery results rejected")
}

func TestDecodeDiscoveryResults_MissingPayload(t *testing.T) {
	_, err := decodeDiscoveryResults(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing discovery_results")
}

func TestDecodeDiscoveryResults_Valid(t *testing.T) {
	profile, err := decodeDiscoveryResults(validDiscoveryArgs())
	require.NoError(t, err)
	assert.Equal(t, "startup", profile.CompanyCharacteristics.CompanySizeEstimate)
}
