// Package pipeline - draft.go implements the generator/evaluator draft cycle
// shared by the resume and cover letter stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/resumind/resumind/internal/db"
)

// draftCycle configures one generator/evaluator loop. Drafts and evaluations
// travel through the cycle as serialized strings; the concrete stages own the
// typed encoding and persistence.
type draftCycle struct {
	draftingStep   string
	evaluationStep string

	// generate produces a draft. prevDraft and evaluation are empty on the
	// first pass and carry the rejected draft plus feedback afterwards.
	generate func(ctx context.Context, prevDraft, evaluation string, iteration int) (string, error)

	// evaluate grades a draft, returning the serialized evaluation for the
	// next generation pass.
	evaluate func(ctx context.Context, draft, prevEvaluation string, iteration int) (int, string, error)
}

// runDraftCycle alternates generation and evaluation until the draft reaches
// the grade threshold or the evaluation budget is spent. Exhaustion accepts
// the final draft: the last generation pass has already incorporated the last
// round of feedback.
func (p *Pipeline) runDraftCycle(ctx context.Context, appID uuid.UUID, cycle draftCycle) (string, error) {
	var prevDraft, evaluation string

	for iteration := 0; ; iteration++ {
		iterData := map[string]any{"iteration": iteration, "max_iterations": maxEvaluations}

		p.emitter.PipelineStep(ctx, appID, cycle.draftingStep, db.EventStarted, iterData)
		draft, err := cycle.generate(ctx, prevDraft, evaluation, iteration)
		if err != nil {
			p.emitter.PipelineStep(ctx, appID, cycle.draftingStep, db.EventFailed, errInfo(err))
			return "", fmt.Errorf("%s failed: %w", cycle.draftingStep, err)
		}
		p.emitter.PipelineStep(ctx, appID, cycle.draftingStep, db.EventSucceeded, iterData)

		if iteration >= maxEvaluations {
			p.logger.Warn().
				Str("step", cycle.draftingStep).
				Int("iterations", iteration).
				Msg("evaluation budget exhausted, accepting final draft")
			return draft, nil
		}

		p.emitter.PipelineStep(ctx, appID, cycle.evaluationStep, db.EventStarted, iterData)
		grade, nextEvaluation, err := cycle.evaluate(ctx, draft, evaluation, iteration)
		if err != nil {
			p.emitter.PipelineStep(ctx, appID, cycle.evaluationStep, db.EventFailed, errInfo(err))
			return "", fmt.Errorf("%s failed: %w", cycle.evaluationStep, err)
		}

		iterRef := iteration
		p.emitter.PipelineUpdate(ctx, appID, cycle.evaluationStep,
			fmt.Sprintf("draft graded %d", grade), &iterRef, map[string]any{"grade": grade})
		p.emitter.PipelineStep(ctx, appID, cycle.evaluationStep, db.EventSucceeded, map[string]any{
			"iteration": iteration,
			"grade":     grade,
		})

		if grade >= gradeThreshold {
			return draft, nil
		}
		prevDraft, evaluation = draft, nextEvaluation
	}
}
