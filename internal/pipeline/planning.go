// Package pipeline - planning.go implements the research planning stage.
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

// runPlanning turns the job context and discovery results into a research
// plan with one category per concurrent research task.
func (p *Pipeline) runPlanning(ctx context.Context, app *db.JobApplication, discovery *types.DiscoveredCompanyProfile) (*types.ResearchPlan, error) {
	p.emitter.PipelineStep(ctx, app.ID, db.StepResearchPlanning, db.EventStarted, nil)

	discoveryJSON, err := json.Marshal(discovery)
	if err != nil {
		return nil, fmt.Errorf("failed to encode discovery results: %w", err)
	}

	user := prompts.Format(prompts.MustGet("planning.json", "user"), map[string]string{
		"CurrentDate":      time.Now().Format("2006-01-02"),
		"CompanyName":      app.CompanyName,
		"JobRole":          app.JobTitle,
		"JobDescription":   app.JobDescription,
		"DiscoveryResults": string(discoveryJSON),
	})

	var plan types.ResearchPlan
	err = p.invokeStructured(ctx, llm.Request{
		Tier:     llm.TierAdvanced,
		System:   prompts.MustGet("planning.json", "system"),
		Messages: []llm.Message{{Role: llm.RoleUser, Text: user}},
	}, schemas.MustGet(schemas.ResearchPlan), &plan)
	if err != nil {
		p.emitter.PipelineStep(ctx, app.ID, db.StepResearchPlanning, db.EventFailed, errInfo(err))
		return nil, fmt.Errorf("research planning failed: %w", err)
	}

	if err := p.store.SaveResearchPlan(ctx, app.ID, &plan); err != nil {
		return nil, err
	}

	p.emitter.PipelineStep(ctx, app.ID, db.StepResearchPlanning, db.EventSucceeded, map[string]any{
		"target_role": plan.TargetRole,
		"categories":  len(plan.ResearchCategories),
	})
	return &plan, nil
}
