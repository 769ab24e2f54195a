// Package pipeline - orchestrator.go sequences the stages and owns
// checkpointing, status transitions, and terminal events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/types"
)

// Run executes the pipeline for one job application, resuming from the last
// checkpoint when a prior run was interrupted. On failure the application is
// marked failed and the checkpoint is kept so a later Run picks up after the
// last completed stage.
func (p *Pipeline) Run(ctx context.Context, id uuid.UUID) error {
	app, err := p.store.GetJobApplication(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load job application: %w", err)
	}

	completed := -1
	cp, err := p.store.GetCheckpoint(ctx, id)
	switch {
	case err == nil:
		completed = stageOrder[cp.Stage]
		p.logger.Info().
			Stringer("job_application_id", id).
			Str("last_completed_stage", cp.Stage).
			Msg("resuming from checkpoint")
	case errors.Is(err, db.ErrNotFound):
	default:
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	stage, err := p.execute(ctx, app, completed)
	if err != nil {
		if statusErr := p.store.UpdateStatus(ctx, id, db.StatusFailed); statusErr != nil {
			p.logger.Error().Err(statusErr).
				Stringer("job_application_id", id).
				Msg("failed to mark application failed")
		}
		p.emitter.PipelineFailed(ctx, id, stage, errInfo(err))
		return err
	}

	if err := p.store.UpdateStatus(ctx, id, db.StatusCompleted); err != nil {
		return fmt.Errorf("failed to mark application completed: %w", err)
	}
	if err := p.store.DeleteCheckpoint(ctx, id); err != nil {
		p.logger.Error().Err(err).
			Stringer("job_application_id", id).
			Msg("failed to clear checkpoint")
	}
	p.emitter.PipelineCompleted(ctx, id)
	return nil
}

// execute runs each stage past the last completed one. It returns the stage
// in flight when an error occurred.
func (p *Pipeline) execute(ctx context.Context, app *db.JobApplication, completed int) (string, error) {
	needs := func(stage string) bool { return completed < stageOrder[stage] }

	var discovery *types.DiscoveredCompanyProfile
	var plan *types.ResearchPlan
	if app.CompanyProfile != nil {
		discovery = app.CompanyProfile.DiscoveryResults
		plan = app.CompanyProfile.ResearchPlan
	}

	if needs(StageDiscovery) || needs(StagePlanning) || needs(StageResearch) {
		if err := p.store.UpdateStatus(ctx, app.ID, db.StatusProcessingCompanyProfile); err != nil {
			return StageDiscovery, err
		}
	}

	// A checkpoint past a stage without its persisted output means the
	// checkpoint and the application row disagree; rerunning the stage is
	// safe because stage writes are idempotent.
	if needs(StageDiscovery) || discovery == nil {
		var err error
		if discovery, err = p.runDiscovery(ctx, app); err != nil {
			return StageDiscovery, err
		}
		if err = p.checkpoint(ctx, app.ID, StageDiscovery); err != nil {
			return StageDiscovery, err
		}
	}

	if needs(StagePlanning) || plan == nil {
		var err error
		if plan, err = p.runPlanning(ctx, app, discovery); err != nil {
			return StagePlanning, err
		}
		if err = p.checkpoint(ctx, app.ID, StagePlanning); err != nil {
			return StagePlanning, err
		}
	}

	if needs(StageResearch) {
		if err := p.runResearch(ctx, app, plan, discovery); err != nil {
			return StageResearch, err
		}
		if err := p.checkpoint(ctx, app.ID, StageResearch); err != nil {
			return StageResearch, err
		}
		// Research merges findings row-side; reload so the draft stages
		// see the accumulated results.
		var err error
		if app, err = p.store.GetJobApplication(ctx, app.ID); err != nil {
			return StageResearch, fmt.Errorf("failed to reload job application: %w", err)
		}
	}

	resume := app.GeneratedResume
	if needs(StageResume) || resume == nil {
		if err := p.store.UpdateStatus(ctx, app.ID, db.StatusProcessingResumeGeneration); err != nil {
			return StageResume, err
		}
		var err error
		if resume, err = p.runResumeStage(ctx, app); err != nil {
			return StageResume, err
		}
		if err = p.checkpoint(ctx, app.ID, StageResume); err != nil {
			return StageResume, err
		}
	}

	if needs(StageCoverLetter) {
		if err := p.store.UpdateStatus(ctx, app.ID, db.StatusProcessingCoverLetter); err != nil {
			return StageCoverLetter, err
		}
		if _, err := p.runCoverLetterStage(ctx, app, resume); err != nil {
			return StageCoverLetter, err
		}
	}

	return StageCoverLetter, nil
}

func (p *Pipeline) checkpoint(ctx context.Context, id uuid.UUID, stage string) error {
	err := p.store.SaveCheckpoint(ctx, &db.Checkpoint{
		JobApplicationID: id,
		Stage:            stage,
		State:            map[string]any{"completed_at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return fmt.Errorf("failed to checkpoint after %s: %w", stage, err)
	}
	return nil
}
