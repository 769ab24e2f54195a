// Package main implements the resumind CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a job application",
	Long:  "Deletes a job application along with its event history and checkpoint.",
	RunE:  runDelete,
}

var deleteApplicationID string

func init() {
	deleteCmd.Flags().StringVarP(&deleteApplicationID, "application", "a", "", "Job application UUID (required)")

	if err := deleteCmd.MarkFlagRequired("application"); err != nil {
		panic(fmt.Sprintf("failed to mark application flag as required: %v", err))
	}

	rootCmd.AddCommand(deleteCmd)
}

func runDelete(_ *cobra.Command, _ []string) error {
	id, err := uuid.Parse(deleteApplicationID)
	if err != nil {
		return fmt.Errorf("invalid application ID %q: %w", deleteApplicationID, err)
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Events and the checkpoint go with the row via ON DELETE CASCADE.
	if err := a.db.DeleteJobApplication(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job application: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Deleted job application %s\n", id)
	return nil
}
