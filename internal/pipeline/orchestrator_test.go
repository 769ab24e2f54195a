package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
)

// fullPipelineScript routes every model call by its system prompt so a whole
// run can execute against fakes.
func fullPipelineScript(failAt string) func(req llm.Request) (*llm.Response, error) {
	research := researchDoneFor()
	resume := resumeScript([]int{95})
	letter := coverLetterScript([]int{95})

	return func(req llm.Request) (*llm.Response, error) {
		sys := req.System
		stage := ""
		switch {
		case strings.Contains(sys, "Company Discovery Agent"):
			stage = StageDiscovery
		case strings.Contains(sys, "Research Planner Agent"):
			stage = StagePlanning
		case strings.Contains(sys, "Research Executor"):
			stage = StageResearch
		case strings.Contains(sys, "Resume"):
			stage = StageResume
		case strings.Contains(sys, "Cover Letter"):
			stage = StageCoverLetter
		}
		if failAt != "" && stage == failAt {
			return nil, errors.New("model unavailable")
		}

		switch stage {
		case StageDiscovery:
			return &llm.Response{ToolCalls: []llm.ToolCall{
				{Name: "discovery_done", Args: validDiscoveryArgs()},
			}}, nil
		case StagePlanning:
			return &llm.Response{Text: validPlanJSON()}, nil
		case StageResearch:
			return research(req)
		case StageResume:
			return resume(req)
		case StageCoverLetter:
			return letter(req)
		}
		return &llm.Response{Text: "unexpected request"}, nil
	}
}

func TestRun_FullPipeline(t *testing.T) {
	client := &scriptedLLM{invoke: fullPipelineScript("")}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	require.NoError(t, p.Run(context.Background(), app.ID))

	assert.Equal(t, []string{
		db.StatusProcessingCompanyProfile,
		db.StatusProcessingResumeGeneration,
		db.StatusProcessingCoverLetter,
		db.StatusCompleted,
	}, store.statuses)

	require.NotNil(t, store.app.GeneratedResume)
	require.NotNil(t, store.app.GeneratedCoverLetter)
	assert.Len(t, store.app.CompanyProfile.ResearchResults, 2)

	// checkpoint cleared on success
	assert.Empty(t, store.checkpoints)
	assert.Len(t, recorder.byName(db.EventPipelineCompleted), 1)
	assert.Empty(t, recorder.byName(db.EventPipelineFailed))
}

func TestRun_DiscoveryExhaustionStillCompletes(t *testing.T) {
	base := fullPipelineScript("")
	// discovery never concludes; every other stage behaves
	client := &scriptedLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		if strings.Contains(req.System, "Company Discovery Agent") {
			return &llm.Response{ToolCalls: []llm.ToolCall{
				{Name: "web_search", Args: map[string]any{"query": "acme labs"}},
			}}, nil
		}
		return base(req)
	}}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	require.NoError(t, p.Run(context.Background(), app.ID))

	assert.Nil(t, store.app.CompanyProfile.DiscoveryResults)
	assert.Len(t, store.app.CompanyProfile.ResearchResults, 2)
	require.NotNil(t, store.app.GeneratedResume)
	require.NotNil(t, store.app.GeneratedCoverLetter)
	assert.Equal(t, db.StatusCompleted, store.app.Status)
	assert.Empty(t, recorder.byName(db.EventPipelineFailed))
	assert.Len(t, recorder.byName(db.EventPipelineCompleted), 1)
}

func TestRun_FailureKeepsCheckpointAndMarksFailed(t *testing.T) {
	client := &scriptedLLM{invoke: fullPipelineScript(StagePlanning)}
	app := testApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	err := p.Run(context.Background(), app.ID)
	require.Error(t, err)

	assert.Equal(t, db.StatusFailed, store.app.Status)

	// discovery completed and checkpointed before the failure
	cp, ok := store.checkpoints[app.ID]
	require.True(t, ok)
	assert.Equal(t, StageDiscovery, cp.Stage)

	failures := recorder.byName(db.EventPipelineFailed)
	require.Len(t, failures, 1)
	require.NotNil(t, failures[0].Step)
	assert.Equal(t, StagePlanning, *failures[0].Step)
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	client := &scriptedLLM{invoke: fullPipelineScript("")}
	app := researchedApplication()
	store := newFakeStore(app)
	store.checkpoints[app.ID] = &db.Checkpoint{JobApplicationID: app.ID, Stage: StageResearch}
	p, _ := newTestPipeline(store, client, &fakeTools{})

	require.NoError(t, p.Run(context.Background(), app.ID))

	// discovery, planning, and research were skipped entirely
	for _, req := range client.requests {
		assert.Empty(t, req.Tools, "resumed run should not re-enter agent loops")
	}
	assert.Equal(t, []string{
		db.StatusProcessingResumeGeneration,
		db.StatusProcessingCoverLetter,
		db.StatusCompleted,
	}, store.statuses)
	assert.Empty(t, store.checkpoints)
}

func TestRun_UnknownApplication(t *testing.T) {
	store := newFakeStore(testApplication())
	p, _ := newTestPipeline(store, &scriptedLLM{}, &fakeTools{})

	err := p.Run(context.Background(), testApplication().ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRun_FailureAfterCheckpointThenResume(t *testing.T) {
	app := testApplication()
	store := newFakeStore(app)

	// first run dies during resume generation
	failing := &scriptedLLM{invoke: fullPipelineScript(StageResume)}
	p, _ := newTestPipeline(store, failing, &fakeTools{})
	require.Error(t, p.Run(context.Background(), app.ID))
	require.Equal(t, StageResearch, store.checkpoints[app.ID].Stage)

	// second run finishes from the checkpoint without repeating research
	healthy := &scriptedLLM{invoke: fullPipelineScript("")}
	p2, _ := newTestPipeline(store, healthy, &fakeTools{})
	require.NoError(t, p2.Run(context.Background(), app.ID))

	for _, req := range healthy.requests {
		assert.Empty(t, req.Tools)
	}
	assert.Equal(t, db.StatusCompleted, store.app.Status)
	assert.Empty(t, store.checkpoints)
}
