// Package pipeline - discovery.go implements the company discovery stage.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/prompts"
	"github.com/resumind/resumind/internal/schemas"
	"github.com/resumind/resumind/internal/tools"
	"github.com/resumind/resumind/internal/types"
)

// runDiscovery establishes the company's digital footprint through a bounded
// agent loop and persists the structured profile it returns.
func (p *Pipeline) runDiscovery(ctx context.Context, app *db.JobApplication) (*types.DiscoveredCompanyProfile, error) {
	p.emitter.PipelineStep(ctx, app.ID, db.StepCompanyDiscovery, db.EventStarted, nil)

	initialUser := prompts.Format(prompts.MustGet("discovery.json", "initial_user"), map[string]string{
		"CurrentDate":    time.Now().Format("2006-01-02"),
		"CompanyName":    app.CompanyName,
		"JobRole":        app.JobTitle,
		"JobDescription": app.JobDescription,
	})

	args, err := p.runToolLoop(ctx, app.ID, toolLoop{
		step:        db.StepCompanyDiscovery,
		tier:        llm.TierStandard,
		system:      prompts.MustGet("discovery.json", "system"),
		initialUser: initialUser,
		specs:       tools.DiscoverySpecs(),
		doneTool:    tools.NameDiscoveryDone,
	})
	if err != nil {
		// Running out of iterations is not fatal; the remaining stages work
		// from the job description alone when no profile was established.
		if errors.Is(err, errToolBudgetExhausted) {
			p.logger.Warn().
				Str("company", app.CompanyName).
				Msg("company discovery ended without results, continuing")
			p.emitter.PipelineStep(ctx, app.ID, db.StepCompanyDiscovery, db.EventFailed, errInfo(err))
			return nil, nil
		}
		return nil, err
	}

	profile, err := decodeDiscoveryResults(args)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveDiscoveryResults(ctx, app.ID, profile); err != nil {
		return nil, err
	}

	p.emitter.PipelineStep(ctx, app.ID, db.StepCompanyDiscovery, db.EventSucceeded, map[string]any{
		"company_name":         profile.CompanyName,
		"discovery_confidence": string(profile.DiscoveryConfidence),
	})
	p.emitter.ArtifactGenerated(ctx, app.ID, db.StepCompanyDiscovery, map[string]any{
		"artifact":             "company_discovery",
		"discovery_confidence": string(profile.DiscoveryConfidence),
	})
	return profile, nil
}

// decodeDiscoveryResults extracts the structured profile from the done tool's
// arguments, enforcing both the JSON schema and field-level validation.
func decodeDiscoveryResults(args map[string]any) (*types.DiscoveredCompanyProfile, error) {
	payload, ok := args["discovery_results"]
	if !ok {
		return nil, fmt.Errorf("discovery completion is missing discovery_results")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode discovery results: %w", err)
	}
	if err := schemas.Validate(schemas.DiscoveredCompanyProfile, raw); err != nil {
		return nil, fmt.Errorf("discovery results rejected: %w", err)
	}

	var profile types.DiscoveredCompanyProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode discovery results: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("discovery results rejected: %w", err)
	}
	return &profile, nil
}
