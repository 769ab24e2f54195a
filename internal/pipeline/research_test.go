package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/types"
)

func testPlan() *types.ResearchPlan {
	return &types.ResearchPlan{
		TargetRole: "Backend Engineer",
		ResearchCategories: []types.ResearchCategory{
			{CategoryName: "engineering_culture", Description: "team practices", Priority: 1, DataPoints: []string{"stack"}},
			{CategoryName: "company_strategy", Description: "market position", Priority: 2, DataPoints: []string{"products"}},
		},
		Rationale: "startup",
	}
}

// researchDoneFor answers every loop with a research_done call carrying
// findings for whichever category the seed message mentions.
func researchDoneFor(failCategories ...string) func(req llm.Request) (*llm.Response, error) {
	return func(req llm.Request) (*llm.Response, error) {
		seed := req.Messages[0].Text
		for _, category := range []string{"engineering_culture", "company_strategy"} {
			if !strings.Contains(seed, category) {
				continue
			}
			for _, fail := range failCategories {
				if category == fail {
					// findings missing for this category
					return &llm.Response{ToolCalls: []llm.ToolCall{
						{Name: "research_done", Args: map[string]any{"results": map[string]any{}}},
					}}, nil
				}
			}
			return &llm.Response{ToolCalls: []llm.ToolCall{
				{Name: "research_done", Args: map[string]any{
					"results": map[string]any{category: "findings for " + category},
				}},
			}}, nil
		}
		return &llm.Response{Text: "no category found"}, nil
	}
}

func TestRunResearch_MergesAllCategories(t *testing.T) {
	client := &scriptedLLM{invoke: researchDoneFor()}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	err := p.runResearch(context.Background(), app, testPlan(), testDiscovery())
	require.NoError(t, err)

	results := store.app.CompanyProfile.ResearchResults
	assert.Equal(t, "findings for engineering_culture", results["engineering_culture"])
	assert.Equal(t, "findings for company_strategy", results["company_strategy"])

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventSucceeded, *steps[1].Status)
	assert.Equal(t, 2, steps[1].Data["completed"])

	// succeeded category events summarize how much was found
	for _, evt := range recorder.byName(db.EventResearchCategory) {
		if evt.Status == nil || *evt.Status != db.EventSucceeded {
			continue
		}
		size, ok := evt.Data["findings_chars"].(int)
		require.True(t, ok, "succeeded category event missing findings_chars")
		assert.Equal(t, len("findings for "+*evt.CategoryName), size)
	}
}

func TestRunResearch_AlreadyFinalizedEmitsNothing(t *testing.T) {
	client := &scriptedLLM{invoke: researchDoneFor()}
	app := testApplication()
	app.CompanyProfile = &types.CompanyProfile{
		ResearchResults: map[string]string{
			"engineering_culture": "done",
			"company_strategy":    "done",
		},
	}
	p, recorder := newTestPipeline(newFakeStore(app), client, &fakeTools{})

	err := p.runResearch(context.Background(), app, testPlan(), testDiscovery())
	require.NoError(t, err)

	assert.Empty(t, client.requests)
	assert.Empty(t, recorder.events)
}

func TestRunResearch_CategoryFailureIsolated(t *testing.T) {
	client := &scriptedLLM{invoke: researchDoneFor("company_strategy")}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	err := p.runResearch(context.Background(), app, testPlan(), testDiscovery())
	require.NoError(t, err)

	results := store.app.CompanyProfile.ResearchResults
	assert.Contains(t, results, "engineering_culture")
	assert.NotContains(t, results, "company_strategy")

	var failedCategories []string
	for _, evt := range recorder.byName(db.EventResearchCategory) {
		if evt.Status != nil && *evt.Status == db.EventFailed {
			failedCategories = append(failedCategories, *evt.CategoryName)
		}
	}
	assert.Equal(t, []string{"company_strategy"}, failedCategories)

	steps := recorder.byName(db.EventPipelineStep)
	assert.Equal(t, db.EventSucceeded, *steps[1].Status)
	assert.Equal(t, 1, steps[1].Data["failed"])
}

func TestRunResearch_AllCategoriesFailed(t *testing.T) {
	client := &scriptedLLM{invoke: researchDoneFor("engineering_culture", "company_strategy")}
	app := testApplication()
	p, recorder := newTestPipeline(newFakeStore(app), client, &fakeTools{})

	err := p.runResearch(context.Background(), app, testPlan(), testDiscovery())
	assert.ErrorIs(t, err, ErrAllResearchFailed)

	steps := recorder.byName(db.EventPipelineStep)
	require.Len(t, steps, 2)
	assert.Equal(t, db.EventFailed, *steps[1].Status)
}

func TestRunResearch_SkipsCompletedCategories(t *testing.T) {
	client := &scriptedLLM{invoke: researchDoneFor()}
	app := testApplication()
	app.CompanyProfile = &types.CompanyProfile{
		ResearchResults: map[string]string{"engineering_culture": "already researched"},
	}
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	err := p.runResearch(context.Background(), app, testPlan(), testDiscovery())
	require.NoError(t, err)

	// only the missing category ran
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Text, "company_strategy")

	results := store.app.CompanyProfile.ResearchResults
	assert.Equal(t, "already researched", results["engineering_culture"])
	assert.Equal(t, "findings for company_strategy", results["company_strategy"])

	steps := recorder.byName(db.EventPipelineStep)
	assert.Equal(t, 1, steps[1].Data["skipped"])
}

func TestExtractFindings(t *testing.T) {
	findings, err := extractFindings(map[string]any{
		"results": map[string]any{"engineering_culture": "uses Go and Postgres"},
	}, "engineering_culture")
	require.NoError(t, err)
	assert.Equal(t, "uses Go and Postgres", findings)

	_, err = extractFindings(map[string]any{}, "engineering_culture")
	assert.Error(t, err)

	_, err = extractFindings(map[string]any{
		"results": map[string]any{"other": "irrelevant"},
	}, "engineering_culture")
	assert.Error(t, err)
}
