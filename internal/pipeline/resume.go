// Package pipeline - resume.go implements the resume generation stage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/prompts"
	"github.com/resumind/resumind/internal/schemas"
	"github.com/resumind/resumind/internal/types"
)

// runResumeStage drives the generator/evaluator cycle for the resume and
// persists the accepted draft.
func (p *Pipeline) runResumeStage(ctx context.Context, app *db.JobApplication) (*types.Resume, error) {
	p.emitter.PipelineStep(ctx, app.ID, db.StepResumeGeneration, db.EventStarted, nil)

	originalJSON, err := json.Marshal(app.OriginalResumeSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode original resume: %w", err)
	}
	researchJSON, err := researchResultsJSON(app)
	if err != nil {
		return nil, err
	}

	base := map[string]string{
		"JobRole":         app.JobTitle,
		"CurrentDate":     time.Now().Format("2006-01-02"),
		"JobDescription":  app.JobDescription,
		"OriginalResume":  string(originalJSON),
		"ResearchResults": researchJSON,
	}

	cycle := draftCycle{
		draftingStep:   db.StepResumeDrafting,
		evaluationStep: db.StepResumeEvaluation,

		generate: func(ctx context.Context, prevDraft, evaluation string, iteration int) (string, error) {
			key := "generator_user"
			vars := clonePromptVars(base)
			if iteration > 0 {
				key = "generator_revision_user"
				vars["PreviousDraft"] = prevDraft
				vars["Evaluation"] = evaluation
			}

			var resume types.Resume
			err := p.invokeStructured(ctx, llm.Request{
				Tier:     llm.TierAdvanced,
				System:   prompts.MustGet("resume.json", "generator_system"),
				Messages: []llm.Message{{Role: llm.RoleUser, Text: prompts.Format(prompts.MustGet("resume.json", key), vars)}},
			}, schemas.MustGet(schemas.Resume), &resume)
			if err != nil {
				return "", err
			}
			return encodeDraft(&resume)
		},

		evaluate: func(ctx context.Context, draft, prevEvaluation string, iteration int) (int, string, error) {
			key := "evaluator_user"
			vars := clonePromptVars(base)
			vars["Draft"] = draft
			if iteration > 0 {
				key = "evaluator_revision_user"
				vars["Iteration"] = fmt.Sprintf("%d", iteration)
				vars["Evaluation"] = prevEvaluation
			}

			var eval types.ResumeEvaluation
			err := p.invokeStructured(ctx, llm.Request{
				Tier:     llm.TierAdvanced,
				System:   prompts.MustGet("resume.json", "evaluator_system"),
				Messages: []llm.Message{{Role: llm.RoleUser, Text: prompts.Format(prompts.MustGet("resume.json", key), vars)}},
			}, schemas.MustGet(schemas.ResumeEvaluation), &eval)
			if err != nil {
				return 0, "", err
			}
			encoded, err := encodeDraft(&eval)
			if err != nil {
				return 0, "", err
			}
			return eval.Grade, encoded, nil
		},
	}

	draft, err := p.runDraftCycle(ctx, app.ID, cycle)
	if err != nil {
		p.emitter.PipelineStep(ctx, app.ID, db.StepResumeGeneration, db.EventFailed, errInfo(err))
		return nil, err
	}

	var resume types.Resume
	if err := json.Unmarshal([]byte(draft), &resume); err != nil {
		return nil, fmt.Errorf("failed to decode accepted resume draft: %w", err)
	}
	if err := p.store.SaveGeneratedResume(ctx, app.ID, &resume); err != nil {
		return nil, err
	}

	p.emitter.ArtifactGenerated(ctx, app.ID, db.StepResumeGeneration, map[string]any{"artifact": "resume"})
	p.emitter.PipelineStep(ctx, app.ID, db.StepResumeGeneration, db.EventSucceeded, nil)
	return &resume, nil
}

// researchResultsJSON serializes the accumulated research findings for
// inclusion in generator and evaluator prompts.
func researchResultsJSON(app *db.JobApplication) (string, error) {
	results := map[string]string{}
	if app.CompanyProfile != nil && app.CompanyProfile.ResearchResults != nil {
		results = app.CompanyProfile.ResearchResults
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode research results: %w", err)
	}
	return string(encoded), nil
}

func clonePromptVars(base map[string]string) map[string]string {
	vars := make(map[string]string, len(base)+3)
	for k, v := range base {
		vars[k] = v
	}
	return vars
}

func encodeDraft(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft payload: %w", err)
	}
	return string(encoded), nil
}
