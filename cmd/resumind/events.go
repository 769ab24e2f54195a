// Package main implements the resumind CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List pipeline events for a job application",
	Long:  "Lists the event log recorded while processing a job application, with optional filters on event name, step, status, category, tool, and time range.",
	RunE:  runEvents,
}

var (
	eventsApplicationID string
	eventsName          string
	eventsStep          string
	eventsStatus        string
	eventsCategory      string
	eventsTool          string
	eventsSince         string
	eventsUntil         string
	eventsLimit         int
	eventsDescending    bool
	eventsJSON          bool
	eventsPurge         bool
)

func init() {
	eventsCmd.Flags().StringVarP(&eventsApplicationID, "application", "a", "", "Job application UUID (required)")
	eventsCmd.Flags().StringVar(&eventsName, "event", "", "Filter by event name (e.g. pipeline.step)")
	eventsCmd.Flags().StringVar(&eventsStep, "step", "", "Filter by pipeline step")
	eventsCmd.Flags().StringVar(&eventsStatus, "status", "", "Filter by status (started|succeeded|failed)")
	eventsCmd.Flags().StringVar(&eventsCategory, "category", "", "Filter by research category")
	eventsCmd.Flags().StringVar(&eventsTool, "tool", "", "Filter by tool name")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only events at or after this RFC3339 timestamp")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "Only events before this RFC3339 timestamp")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Maximum events to return (default 200)")
	eventsCmd.Flags().BoolVar(&eventsDescending, "desc", false, "Newest first")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Print events as JSON")
	eventsCmd.Flags().BoolVar(&eventsPurge, "purge", false, "Delete the application's event history instead of listing it")

	if err := eventsCmd.MarkFlagRequired("application"); err != nil {
		panic(fmt.Sprintf("failed to mark application flag as required: %v", err))
	}

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(_ *cobra.Command, _ []string) error {
	id, err := uuid.Parse(eventsApplicationID)
	if err != nil {
		return fmt.Errorf("invalid application ID %q: %w", eventsApplicationID, err)
	}

	filter := db.EventFilter{
		EventName:    eventsName,
		Step:         eventsStep,
		Status:       eventsStatus,
		CategoryName: eventsCategory,
		ToolName:     eventsTool,
		Limit:        eventsLimit,
		Descending:   eventsDescending,
	}
	if eventsSince != "" {
		since, err := time.Parse(time.RFC3339, eventsSince)
		if err != nil {
			return fmt.Errorf("invalid --since timestamp: %w", err)
		}
		filter.Since = &since
	}
	if eventsUntil != "" {
		until, err := time.Parse(time.RFC3339, eventsUntil)
		if err != nil {
			return fmt.Errorf("invalid --until timestamp: %w", err)
		}
		filter.Until = &until
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	emitter := events.NewEmitter(a.db, a.logger)

	if eventsPurge {
		deleted, err := emitter.Purge(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to purge events: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "%d events purged\n", deleted)
		return nil
	}

	list, err := emitter.List(ctx, id, filter)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if eventsJSON {
		encoded, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		_, _ = fmt.Fprintln(os.Stdout, string(encoded))
		return nil
	}

	for _, evt := range list {
		_, _ = fmt.Fprintln(os.Stdout, formatEvent(&evt))
	}
	_, _ = fmt.Fprintf(os.Stdout, "%d events\n", len(list))
	return nil
}

// formatEvent renders one event as a single log-style line.
func formatEvent(evt *db.Event) string {
	line := fmt.Sprintf("%s  %-20s", evt.CreatedAt.Format(time.RFC3339), evt.EventName)
	if evt.Step != nil {
		line += "  step=" + *evt.Step
	}
	if evt.CategoryName != nil {
		line += "  category=" + *evt.CategoryName
	}
	if evt.ToolName != nil {
		line += "  tool=" + *evt.ToolName
	}
	if evt.Status != nil {
		line += "  status=" + *evt.Status
	}
	if evt.Iteration != nil {
		line += fmt.Sprintf("  iteration=%d", *evt.Iteration)
	}
	if evt.Message != nil {
		line += "  " + *evt.Message
	}
	return line
}
