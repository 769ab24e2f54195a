package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, job_application_id, event_name, status, step, category_name,
	tool_name, iteration, message, data, error, created_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var evt Event
	var dataJSON, errorJSON []byte

	err := row.Scan(&evt.ID, &evt.JobApplicationID, &evt.EventName, &evt.Status,
		&evt.Step, &evt.CategoryName, &evt.ToolName, &evt.Iteration,
		&evt.Message, &dataJSON, &errorJSON, &evt.CreatedAt)
	if err != nil {
		return nil, err
	}

	if dataJSON != nil {
		_ = json.Unmarshal(dataJSON, &evt.Data)
	}
	if errorJSON != nil {
		_ = json.Unmarshal(errorJSON, &evt.Error)
	}

	return &evt, nil
}

// InsertEvent appends an event to a job application's log and returns the
// stored record. Events are never updated or individually deleted.
func (db *DB) InsertEvent(ctx context.Context, evt *Event) (*Event, error) {
	var dataJSON, errorJSON []byte
	var err error
	if evt.Data != nil {
		dataJSON, err = json.Marshal(evt.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
	}
	if evt.Error != nil {
		errorJSON, err = json.Marshal(evt.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event error: %w", err)
		}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO application_events
		   (job_application_id, event_name, status, step, category_name, tool_name, iteration, message, data, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+eventColumns,
		evt.JobApplicationID, evt.EventName, evt.Status, evt.Step, evt.CategoryName,
		evt.ToolName, evt.Iteration, evt.Message, dataJSON, errorJSON,
	)

	stored, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return stored, nil
}

// buildEventQuery assembles the filtered SELECT for ListEvents.
// Split out so the SQL assembly is testable without a database.
func buildEventQuery(jobApplicationID uuid.UUID, filter EventFilter) (string, []any) {
	query := `SELECT ` + eventColumns + ` FROM application_events WHERE job_application_id = $1`
	args := []any{jobApplicationID}

	addFilter := func(column, value string) {
		if value != "" {
			args = append(args, value)
			query += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	addFilter("event_name", filter.EventName)
	addFilter("step", filter.Step)
	addFilter("status", filter.Status)
	addFilter("category_name", filter.CategoryName)
	addFilter("tool_name", filter.ToolName)

	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	if filter.Descending {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

// ListEvents retrieves a job application's events, ascending by default.
func (db *DB) ListEvents(ctx context.Context, jobApplicationID uuid.UUID, filter EventFilter) ([]Event, error) {
	query, args := buildEventQuery(jobApplicationID, filter)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *evt)
	}
	return events, rows.Err()
}

// LatestEventForStep returns the most recent event tagged with a pipeline
// step, or ErrNotFound when none exists.
func (db *DB) LatestEventForStep(ctx context.Context, jobApplicationID uuid.UUID, step string) (*Event, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM application_events
		 WHERE job_application_id = $1 AND step = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		jobApplicationID, step)

	evt, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return evt, nil
}

// DeleteEvents purges a job application's full event history and returns the
// number of events removed. This is the only permitted event deletion.
func (db *DB) DeleteEvents(ctx context.Context, jobApplicationID uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM application_events WHERE job_application_id = $1`, jobApplicationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}
