package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveCheckpoint upserts the single checkpoint row for a job application.
// Re-saving overwrites the stage and state so the pipeline always resumes
// from the latest completed stage.
func (db *DB) SaveCheckpoint(ctx context.Context, cp *Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint state: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO pipeline_checkpoints (job_application_id, stage, state, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (job_application_id)
		 DO UPDATE SET stage = EXCLUDED.stage, state = EXCLUDED.state, updated_at = NOW()`,
		cp.JobApplicationID, cp.Stage, stateJSON)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint loads a job application's checkpoint, or ErrNotFound when the
// pipeline has never checkpointed.
func (db *DB) GetCheckpoint(ctx context.Context, jobApplicationID uuid.UUID) (*Checkpoint, error) {
	var cp Checkpoint
	var stateJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT job_application_id, stage, state, updated_at
		 FROM pipeline_checkpoints WHERE job_application_id = $1`,
		jobApplicationID).Scan(&cp.JobApplicationID, &cp.Stage, &stateJSON, &cp.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	if stateJSON != nil {
		if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
		}
	}
	return &cp, nil
}

// DeleteCheckpoint removes a job application's checkpoint, typically once the
// pipeline has completed. Deleting a missing checkpoint is not an error.
func (db *DB) DeleteCheckpoint(ctx context.Context, jobApplicationID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM pipeline_checkpoints WHERE job_application_id = $1`, jobApplicationID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
