// Package pipeline - research.go implements the parallel research execution
// stage and its fan-in.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/prompts"
	"github.com/resumind/resumind/internal/tools"
	"github.com/resumind/resumind/internal/types"
)

// runResearch fans out one executor per research category and merges their
// findings. Category failures are isolated; the stage fails only when every
// category failed. Categories whose results already exist (from a resumed
// run) are skipped.
func (p *Pipeline) runResearch(ctx context.Context, app *db.JobApplication, plan *types.ResearchPlan, discovery *types.DiscoveredCompanyProfile) error {
	var existing map[string]string
	if app.CompanyProfile != nil {
		existing = app.CompanyProfile.ResearchResults
	}

	var pending []types.ResearchCategory
	for _, category := range plan.ResearchCategories {
		if _, done := existing[category.CategoryName]; !done {
			pending = append(pending, category)
		}
	}
	// Re-running over a finalized application emits nothing.
	if len(pending) == 0 {
		p.logger.Info().
			Stringer("job_application_id", app.ID).
			Msg("all research categories already merged")
		return nil
	}

	p.emitter.PipelineStep(ctx, app.ID, db.StepResearch, db.EventStarted, map[string]any{
		"categories": len(plan.ResearchCategories),
	})

	discoveryJSON, err := json.Marshal(discovery)
	if err != nil {
		return fmt.Errorf("failed to encode discovery results: %w", err)
	}

	var mu sync.Mutex
	attempted := len(pending)
	var failed int

	g, gCtx := errgroup.WithContext(ctx)
	for _, category := range pending {
		g.Go(func() error {
			// Executor failures stay inside the category; the group only
			// propagates context cancellation.
			if err := p.runResearchExecutor(gCtx, app, category, string(discoveryJSON)); err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				p.logger.Error().
					Str("category", category.CategoryName).
					Err(err).
					Msg("research category failed")
				p.emitter.ResearchCategory(gCtx, app.ID, category.CategoryName, db.EventFailed, nil, errInfo(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if failed == attempted {
		p.emitter.PipelineStep(ctx, app.ID, db.StepResearch, db.EventFailed, errInfo(ErrAllResearchFailed))
		return ErrAllResearchFailed
	}

	p.emitter.PipelineStep(ctx, app.ID, db.StepResearch, db.EventSucceeded, map[string]any{
		"completed": attempted - failed,
		"failed":    failed,
		"skipped":   len(plan.ResearchCategories) - attempted,
	})
	return nil
}

// runResearchExecutor drives one category's bounded agent loop and merges the
// findings into the application's research results.
func (p *Pipeline) runResearchExecutor(ctx context.Context, app *db.JobApplication, category types.ResearchCategory, discoveryJSON string) error {
	p.emitter.ResearchCategory(ctx, app.ID, category.CategoryName, db.EventStarted, nil, nil)

	categoryJSON, err := json.Marshal(category)
	if err != nil {
		return fmt.Errorf("failed to encode research category: %w", err)
	}

	initialUser := prompts.Format(prompts.MustGet("research.json", "initial_user"), map[string]string{
		"CurrentDate":      time.Now().Format("2006-01-02"),
		"CompanyName":      app.CompanyName,
		"JobRole":          app.JobTitle,
		"Category":         string(categoryJSON),
		"DiscoveryResults": discoveryJSON,
	})

	args, err := p.runToolLoop(ctx, app.ID, toolLoop{
		step:        db.StepResearch,
		tier:        llm.TierStandard,
		system:      prompts.MustGet("research.json", "system"),
		initialUser: initialUser,
		specs:       tools.ResearchSpecs(),
		doneTool:    tools.NameResearchDone,
	})
	if err != nil {
		return err
	}

	findings, err := extractFindings(args, category.CategoryName)
	if err != nil {
		return err
	}

	if err := p.store.MergeResearchResult(ctx, app.ID, category.CategoryName, findings); err != nil {
		return err
	}

	p.emitter.ResearchCategory(ctx, app.ID, category.CategoryName, db.EventSucceeded,
		map[string]any{"findings_chars": len(findings)}, nil)
	return nil
}

// extractFindings pulls this category's findings out of the research_done
// arguments.
func extractFindings(args map[string]any, categoryName string) (string, error) {
	results, ok := args["results"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("research completion is missing results")
	}
	findings, ok := results[categoryName].(string)
	if !ok || findings == "" {
		return "", fmt.Errorf("research completion has no findings for category %s", categoryName)
	}
	return findings, nil
}
