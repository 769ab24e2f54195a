// Package events - emitter.go provides the pipeline event emitter. Every
// stage transition, research category, tool execution, and artifact write is
// recorded through it, producing the append-only progress log a UI or CLI can
// poll while a pipeline runs.
package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/resumind/resumind/internal/db"
)

// Store is the persistence surface the emitter writes through. *db.DB
// satisfies it; tests substitute an in-memory recorder.
type Store interface {
	InsertEvent(ctx context.Context, evt *db.Event) (*db.Event, error)
	ListEvents(ctx context.Context, jobApplicationID uuid.UUID, filter db.EventFilter) ([]db.Event, error)
	LatestEventForStep(ctx context.Context, jobApplicationID uuid.UUID, step string) (*db.Event, error)
	DeleteEvents(ctx context.Context, jobApplicationID uuid.UUID) (int64, error)
}

// Emitter records pipeline events. Emission failures are logged and swallowed
// so a flaky event write never aborts a pipeline run.
type Emitter struct {
	store  Store
	logger zerolog.Logger
}

func NewEmitter(store Store, logger zerolog.Logger) *Emitter {
	return &Emitter{store: store, logger: logger.With().Str("component", "events").Logger()}
}

func (e *Emitter) emit(ctx context.Context, evt *db.Event) {
	if _, err := e.store.InsertEvent(ctx, evt); err != nil {
		e.logger.Error().Err(err).
			Str("event_name", evt.EventName).
			Str("job_application_id", evt.JobApplicationID.String()).
			Msg("failed to record event")
		return
	}

	log := e.logger.Info().
		Str("event_name", evt.EventName).
		Str("job_application_id", evt.JobApplicationID.String())
	if evt.Status != nil {
		log = log.Str("status", *evt.Status)
	}
	if evt.Step != nil {
		log = log.Str("step", *evt.Step)
	}
	if evt.CategoryName != nil {
		log = log.Str("category", *evt.CategoryName)
	}
	if evt.ToolName != nil {
		log = log.Str("tool", *evt.ToolName)
	}
	log.Msg("pipeline event")
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PipelineStep records the start or outcome of a top-level pipeline step.
func (e *Emitter) PipelineStep(ctx context.Context, id uuid.UUID, step, status string, data map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventPipelineStep,
		Status:           strPtr(status),
		Step:             strPtr(step),
		Data:             data,
	})
}

// PipelineUpdate records intermediate progress inside a step, such as a draft
// iteration or an evaluation grade.
func (e *Emitter) PipelineUpdate(ctx context.Context, id uuid.UUID, step, message string, iteration *int, data map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventPipelineUpdate,
		Status:           strPtr(db.EventStarted),
		Step:             strPtr(step),
		Iteration:        iteration,
		Message:          strPtr(message),
		Data:             data,
	})
}

// ResearchCategory records the lifecycle of one research category executor.
// A succeeded event carries a findings-size summary in data.
func (e *Emitter) ResearchCategory(ctx context.Context, id uuid.UUID, category, status string, data, errInfo map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventResearchCategory,
		Status:           strPtr(status),
		Step:             strPtr(db.StepResearch),
		CategoryName:     strPtr(category),
		Data:             data,
		Error:            errInfo,
	})
}

// ToolExecution records one tool call made inside an agent loop.
func (e *Emitter) ToolExecution(ctx context.Context, id uuid.UUID, step, tool, status string, iteration int, data, errInfo map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventToolExecution,
		Status:           strPtr(status),
		Step:             strPtr(step),
		ToolName:         strPtr(tool),
		Iteration:        &iteration,
		Data:             data,
		Error:            errInfo,
	})
}

// ArtifactGenerated records the persistence of a finalized artifact such as a
// customized resume or cover letter.
func (e *Emitter) ArtifactGenerated(ctx context.Context, id uuid.UUID, step string, data map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventArtifactGenerated,
		Status:           strPtr(db.EventSucceeded),
		Step:             strPtr(step),
		Data:             data,
	})
}

// PipelineCompleted marks the end of a successful run.
func (e *Emitter) PipelineCompleted(ctx context.Context, id uuid.UUID) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventPipelineCompleted,
		Status:           strPtr(db.EventSucceeded),
	})
}

// PipelineFailed marks an aborted run with the failing step and error detail.
func (e *Emitter) PipelineFailed(ctx context.Context, id uuid.UUID, step string, errInfo map[string]any) {
	e.emit(ctx, &db.Event{
		JobApplicationID: id,
		EventName:        db.EventPipelineFailed,
		Status:           strPtr(db.EventFailed),
		Step:             strPtr(step),
		Error:            errInfo,
	})
}

// List returns a job application's recorded events.
func (e *Emitter) List(ctx context.Context, id uuid.UUID, filter db.EventFilter) ([]db.Event, error) {
	return e.store.ListEvents(ctx, id, filter)
}

// LatestForStep returns the most recent event for a pipeline step.
func (e *Emitter) LatestForStep(ctx context.Context, id uuid.UUID, step string) (*db.Event, error) {
	return e.store.LatestEventForStep(ctx, id, step)
}

// Purge removes a job application's entire event history.
func (e *Emitter) Purge(ctx context.Context, id uuid.UUID) (int64, error) {
	return e.store.DeleteEvents(ctx, id)
}
