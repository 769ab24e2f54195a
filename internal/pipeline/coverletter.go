// Package pipeline - coverletter.go implements the cover letter stage.
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

// runCoverLetterStage drives the generator/evaluator cycle for the cover
// letter. The generated resume, not the original, is the candidate context so
// the letter matches the document the company will actually read.
func (p *Pipeline) runCoverLetterStage(ctx context.Context, app *db.JobApplication, resume *types.Resume) (string, error) {
	p.emitter.PipelineStep(ctx, app.ID, db.StepCoverLetterGeneration, db.EventStarted, nil)

	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return "", fmt.Errorf("failed to encode generated resume: %w", err)
	}
	researchJSON, err := researchResultsJSON(app)
	if err != nil {
		return "", err
	}

	base := map[string]string{
		"JobRole":         app.JobTitle,
		"CurrentDate":     time.Now().Format("2006-01-02"),
		"JobDescription":  app.JobDescription,
		"GeneratedResume": string(resumeJSON),
		"ResearchResults": researchJSON,
	}

	cycle := draftCycle{
		draftingStep:   db.StepCoverLetterDrafting,
		evaluationStep: db.StepCoverLetterEvaluation,

		generate: func(ctx context.Context, prevDraft, evaluation string, iteration int) (string, error) {
			key := "generator_user"
			vars := clonePromptVars(base)
			if iteration > 0 {
				key = "generator_revision_user"
				vars["PreviousDraft"] = prevDraft
				vars["Evaluation"] = evaluation
			}

			var letter types.CoverLetter
			err := p.invokeStructured(ctx, llm.Request{
				Tier:     llm.TierAdvanced,
				System:   prompts.MustGet("cover_letter.json", "generator_system"),
				Messages: []llm.Message{{Role: llm.RoleUser, Text: prompts.Format(prompts.MustGet("cover_letter.json", key), vars)}},
			}, schemas.MustGet(schemas.CoverLetter), &letter)
			if err != nil {
				return "", err
			}
			return letter.Content, nil
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

			var eval types.CoverLetterEvaluation
			err := p.invokeStructured(ctx, llm.Request{
				Tier:     llm.TierAdvanced,
				System:   prompts.MustGet("cover_letter.json", "evaluator_system"),
				Messages: []llm.Message{{Role: llm.RoleUser, Text: prompts.Format(prompts.MustGet("cover_letter.json", key), vars)}},
			}, schemas.MustGet(schemas.CoverLetterEvaluation), &eval)
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

	letter, err := p.runDraftCycle(ctx, app.ID, cycle)
	if err != nil {
		p.emitter.PipelineStep(ctx, app.ID, db.StepCoverLetterGeneration, db.EventFailed, errInfo(err))
		return "", err
	}

	if err := p.store.SaveGeneratedCoverLetter(ctx, app.ID, letter); err != nil {
		return "", err
	}

	p.emitter.ArtifactGenerated(ctx, app.ID, db.StepCoverLetterGeneration, map[string]any{"artifact": "cover_letter"})
	p.emitter.PipelineStep(ctx, app.ID, db.StepCoverLetterGeneration, db.EventSucceeded, nil)
	return letter, nil
}
