// Package main implements the resumind CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for a job application",
	Long:  "Runs company discovery, research, resume generation, and cover letter generation for an existing job application. An interrupted run resumes from its last checkpoint.",
	RunE:  runRun,
}

var runApplicationID string

func init() {
	runCmd.Flags().StringVarP(&runApplicationID, "application", "a", "", "Job application UUID (required)")

	if err := runCmd.MarkFlagRequired("application"); err != nil {
		panic(fmt.Sprintf("failed to mark application flag as required: %v", err))
	}

	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, _ []string) error {
	id, err := uuid.Parse(runApplicationID)
	if err != nil {
		return fmt.Errorf("invalid application ID %q: %w", runApplicationID, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, cleanup, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.Run(ctx, id); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Pipeline completed for application %s\n", id)
	return nil
}
