package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, dataset_id, status, progress, phase, error_message, created_at, updated_at, started_at, ended_at
FROM jobs
WHERE id = $1
`, id)

	var job domain.Job
	var status string
	var phase, errMessage sql.NullString
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.DatasetID, &status, &job.Progress, &phase, &errMessage,
		&job.CreatedAt, &job.UpdatedAt, &startedAt, &endedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.Phase = phase.String
	job.Error = errMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		job.EndedAt = &t
	}
	return &job, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error {
	now := time.Now().UTC()

	var query string
	var args []any
	switch status {
	case domain.JobCompleted:
		query = `UPDATE jobs SET status = $2, error_message = $3, progress = 100, ended_at = $4, updated_at = $4 WHERE id = $1`
		args = []any{id, string(status), errMessage, now}
	case domain.JobFailed:
		query = `UPDATE jobs SET status = $2, error_message = $3, ended_at = $4, updated_at = $4 WHERE id = $1`
		args = []any{id, string(status), errMessage, now}
	case domain.JobProcessing:
		query = `UPDATE jobs SET status = $2, error_message = $3, started_at = $4, updated_at = $4 WHERE id = $1`
		args = []any{id, string(status), errMessage, now}
	default:
		query = `UPDATE jobs SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1`
		args = []any{id, string(status), errMessage, now}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return requireJobRow(result, id)
}

func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int, phase string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE jobs
SET progress = $2, phase = $3, updated_at = $4
WHERE id = $1
`, id, progress, phase, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return requireJobRow(result, id)
}

func requireJobRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update job", fmt.Errorf("id=%s", id))
	}
	return nil
}
