package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/resumind/resumind/internal/types"
)

const applicationColumns = `id, job_title, company_name, job_description, user_id, status,
	company_profile, generated_resume, generated_cover_letter,
	original_resume_snapshot, created_at, updated_at`

func scanApplication(row pgx.Row) (*JobApplication, error) {
	var app JobApplication
	var profileJSON, resumeJSON, snapshotJSON []byte

	err := row.Scan(&app.ID, &app.JobTitle, &app.CompanyName, &app.JobDescription,
		&app.UserID, &app.Status, &profileJSON, &resumeJSON,
		&app.GeneratedCoverLetter, &snapshotJSON, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan job application: %w", err)
	}

	if profileJSON != nil {
		if err := json.Unmarshal(profileJSON, &app.CompanyProfile); err != nil {
			return nil, fmt.Errorf("failed to decode company profile: %w", err)
		}
	}
	if resumeJSON != nil {
		if err := json.Unmarshal(resumeJSON, &app.GeneratedResume); err != nil {
			return nil, fmt.Errorf("failed to decode generated resume: %w", err)
		}
	}
	if snapshotJSON != nil {
		if err := json.Unmarshal(snapshotJSON, &app.OriginalResumeSnapshot); err != nil {
			return nil, fmt.Errorf("failed to decode resume snapshot: %w", err)
		}
	}

	return &app, nil
}

// CreateJobApplication inserts a new job application and returns it.
func (db *DB) CreateJobApplication(ctx context.Context, app *JobApplication) (*JobApplication, error) {
	snapshotJSON, err := json.Marshal(app.OriginalResumeSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume snapshot: %w", err)
	}

	status := app.Status
	if status == "" {
		status = StatusStarted
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO job_applications
		   (job_title, company_name, job_description, user_id, status, original_resume_snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+applicationColumns,
		app.JobTitle, app.CompanyName, app.JobDescription, app.UserID, status, snapshotJSON,
	)
	return scanApplication(row)
}

// GetJobApplication retrieves a job application by ID.
// Returns ErrNotFound when the ID does not exist.
func (db *DB) GetJobApplication(ctx context.Context, id uuid.UUID) (*JobApplication, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE id = $1`, id)
	return scanApplication(row)
}

// UpdateStatus transitions a job application's pipeline status.
func (db *DB) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_applications SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveDiscoveryResults writes the discovery sub-document of the company
// profile. Written exactly once per pipeline run.
func (db *DB) SaveDiscoveryResults(ctx context.Context, id uuid.UUID, profile *types.DiscoveredCompanyProfile) error {
	return db.mergeCompanyProfile(ctx, id, func(cp *types.CompanyProfile) {
		cp.DiscoveryResults = profile
	})
}

// SaveResearchPlan writes the research plan sub-document of the company
// profile. Written exactly once per pipeline run.
func (db *DB) SaveResearchPlan(ctx context.Context, id uuid.UUID, plan *types.ResearchPlan) error {
	return db.mergeCompanyProfile(ctx, id, func(cp *types.CompanyProfile) {
		cp.ResearchPlan = plan
	})
}

// MergeResearchResult adds one category's findings into
// company_profile.research_results. Categories write distinct keys but the
// read-modify-write still races across concurrent executors, so the row is
// locked for the duration of the merge.
func (db *DB) MergeResearchResult(ctx context.Context, id uuid.UUID, category, findings string) error {
	return db.mergeCompanyProfile(ctx, id, func(cp *types.CompanyProfile) {
		if cp.ResearchResults == nil {
			cp.ResearchResults = make(map[string]string)
		}
		cp.ResearchResults[category] = findings
	})
}

// mergeCompanyProfile applies a mutation to the company_profile document
// under a row lock so concurrent category writers serialize.
func (db *DB) mergeCompanyProfile(ctx context.Context, id uuid.UUID, mutate func(*types.CompanyProfile)) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var profileJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT company_profile FROM job_applications WHERE id = $1 FOR UPDATE`, id,
	).Scan(&profileJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock job application: %w", err)
	}

	var profile types.CompanyProfile
	if profileJSON != nil {
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return fmt.Errorf("failed to decode company profile: %w", err)
		}
	}

	mutate(&profile)

	updated, err := json.Marshal(&profile)
	if err != nil {
		return fmt.Errorf("failed to marshal company profile: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE job_applications SET company_profile = $1, updated_at = NOW() WHERE id = $2`,
		updated, id)
	if err != nil {
		return fmt.Errorf("failed to update company profile: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveGeneratedResume persists the final resume artifact.
func (db *DB) SaveGeneratedResume(ctx context.Context, id uuid.UUID, resume *types.Resume) error {
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return fmt.Errorf("failed to marshal generated resume: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_applications SET generated_resume = $1, updated_at = NOW() WHERE id = $2`,
		resumeJSON, id)
	if err != nil {
		return fmt.Errorf("failed to save generated resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveGeneratedCoverLetter persists the final cover letter artifact.
func (db *DB) SaveGeneratedCoverLetter(ctx context.Context, id uuid.UUID, coverLetter string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_applications SET generated_cover_letter = $1, updated_at = NOW() WHERE id = $2`,
		coverLetter, id)
	if err != nil {
		return fmt.Errorf("failed to save generated cover letter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteJobApplication removes a job application. Events cascade.
func (db *DB) DeleteJobApplication(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
