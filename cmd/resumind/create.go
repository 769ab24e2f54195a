// Package main implements the resumind CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/types"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job application",
	Long:  "Creates a job application record from a job posting and a structured resume snapshot, ready to be processed with 'run'.",
	RunE:  runCreate,
}

var (
	createJobTitle    string
	createCompanyName string
	createJobDescFile string
	createResumeFile  string
	createUserID      string
)

func init() {
	createCmd.Flags().StringVar(&createJobTitle, "job-title", "", "Job title (required)")
	createCmd.Flags().StringVar(&createCompanyName, "company", "", "Company name (required)")
	createCmd.Flags().StringVar(&createJobDescFile, "job-description", "", "Path to job description text file (required)")
	createCmd.Flags().StringVar(&createResumeFile, "resume", "", "Path to resume snapshot JSON file (required)")
	createCmd.Flags().StringVar(&createUserID, "user-id", "", "User UUID (required)")

	for _, flag := range []string{"job-title", "company", "job-description", "resume", "user-id"} {
		if err := createCmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", flag, err))
		}
	}

	rootCmd.AddCommand(createCmd)
}

func runCreate(_ *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(createUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", createUserID, err)
	}

	description, err := os.ReadFile(createJobDescFile)
	if err != nil {
		return fmt.Errorf("failed to read job description file: %w", err)
	}

	resumeJSON, err := os.ReadFile(createResumeFile)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	var resume types.Resume
	if err := json.Unmarshal(resumeJSON, &resume); err != nil {
		return fmt.Errorf("failed to parse resume JSON: %w", err)
	}
	if err := resume.Validate(); err != nil {
		return fmt.Errorf("invalid resume snapshot: %w", err)
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.db.CreateJobApplication(ctx, &db.JobApplication{
		JobTitle:               createJobTitle,
		CompanyName:            createCompanyName,
		JobDescription:         string(description),
		UserID:                 userID,
		OriginalResumeSnapshot: &resume,
	})
	if err != nil {
		return fmt.Errorf("failed to create job application: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Created job application %s\n", created.ID)
	return nil
}
