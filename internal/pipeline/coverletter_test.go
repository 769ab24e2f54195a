package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/types"
)

func coverLetterScript(grades []int) func(req llm.Request) (*llm.Response, error) {
	evaluations := 0
	return func(req llm.Request) (*llm.Response, error) {
		switch {
		case strings.Contains(req.System, "Cover Letter Generator Agent"):
			return &llm.Response{Text: `{"content": "Dear Acme Labs team, I build Go services."}`}, nil
		case strings.Contains(req.System, "Cover Letter Evaluator Agent"):
			grade := grades[evaluations]
			evaluations++
			if grade >= gradeThreshold {
				return &llm.Response{Text: `{"grade": 95, "changes": [], "summary": "personal and specific"}`}, nil
			}
			return &llm.Response{Text: `{"grade": 60, "changes": ["name a concrete project"], "summary": "too vague"}`}, nil
		}
		return &llm.Response{Text: "unexpected request"}, nil
	}
}

func generatedResume(t *testing.T) *types.Resume {
	t.Helper()
	var resume types.Resume
	require.NoError(t, json.Unmarshal([]byte(generatedResumeJSON()), &resume))
	return &resume
}

func TestRunCoverLetterStage_PersistsAcceptedLetter(t *testing.T) {
	client := &scriptedLLM{invoke: coverLetterScript([]int{95})}
	app := researchedApplication()
	store := newFakeStore(app)
	p, recorder := newTestPipeline(store, client, &fakeTools{})

	letter, err := p.runCoverLetterStage(context.Background(), app, generatedResume(t))
	require.NoError(t, err)
	assert.Equal(t, "Dear Acme Labs team, I build Go services.", letter)
	assert.Equal(t, 1, store.coverLetterSaves)
	require.NotNil(t, store.app.GeneratedCoverLetter)
	assert.Equal(t, letter, *store.app.GeneratedCoverLetter)

	// the tailored resume, not the original, is the candidate context
	prompt := client.requests[0].Messages[0].Text
	assert.Contains(t, prompt, "Backend engineer focused on Go services")

	artifacts := recorder.byName(db.EventArtifactGenerated)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "cover_letter", artifacts[0].Data["artifact"])
}

func TestRunCoverLetterStage_RevisionCarriesFeedback(t *testing.T) {
	client := &scriptedLLM{invoke: coverLetterScript([]int{60, 95})}
	app := researchedApplication()
	p, _ := newTestPipeline(newFakeStore(app), client, &fakeTools{})

	_, err := p.runCoverLetterStage(context.Background(), app, generatedResume(t))
	require.NoError(t, err)

	require.Len(t, client.requests, 4)
	revision := client.requests[2].Messages[0].Text
	assert.Contains(t, revision, "name a concrete project")
	assert.Contains(t, revision, "PREVIOUS GENERATED VERSION")
}
