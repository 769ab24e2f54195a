// Package main implements the resumind CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/events"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a job application's pipeline progress",
	Long:  "Shows the job application's overall status and the latest recorded event for each pipeline step.",
	RunE:  runStatus,
}

var statusApplicationID string

// statusSteps are the top-level steps reported by the status command, in
// pipeline order.
var statusSteps = []string{
	db.StepCompanyDiscovery,
	db.StepResearchPlanning,
	db.StepResearch,
	db.StepResumeGeneration,
	db.StepCoverLetterGeneration,
}

func init() {
	statusCmd.Flags().StringVarP(&statusApplicationID, "application", "a", "", "Job application UUID (required)")

	if err := statusCmd.MarkFlagRequired("application"); err != nil {
		panic(fmt.Sprintf("failed to mark application flag as required: %v", err))
	}

	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	id, err := uuid.Parse(statusApplicationID)
	if err != nil {
		return fmt.Errorf("invalid application ID %q: %w", statusApplicationID, err)
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	app, err := a.db.GetJobApplication(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load job application: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s at %s: %s\n", app.JobTitle, app.CompanyName, app.Status)

	emitter := events.NewEmitter(a.db, a.logger)
	for _, step := range statusSteps {
		latest, err := emitter.LatestForStep(ctx, id, step)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				_, _ = fmt.Fprintln(os.Stdout, formatStepStatus(step, nil))
				continue
			}
			return fmt.Errorf("failed to load events for step %s: %w", step, err)
		}
		_, _ = fmt.Fprintln(os.Stdout, formatStepStatus(step, latest))
	}
	return nil
}

// formatStepStatus renders one step's latest event as a single line.
func formatStepStatus(step string, latest *db.Event) string {
	if latest == nil {
		return fmt.Sprintf("  %-25s not started", step)
	}
	line := fmt.Sprintf("  %-25s %s", step, latest.EventName)
	if latest.Status != nil {
		line += " " + *latest.Status
	}
	if latest.Message != nil {
		line += "  " + *latest.Message
	}
	return line
}
