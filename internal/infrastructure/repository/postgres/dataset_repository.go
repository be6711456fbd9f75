package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

func (r *DatasetRepository) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, file_type, mime_type, source_path, status, output_path, uploaded_at, updated_at
FROM datasets
WHERE id = $1
`, id)

	var ds domain.Dataset
	var fileType, status string
	var mimeType, outputPath sql.NullString

	err := row.Scan(
		&ds.ID, &ds.Filename, &fileType, &mimeType, &ds.SourcePath, &status, &outputPath,
		&ds.UploadedAt, &ds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDatasetNotFound, "get dataset", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	ds.FileType = domain.FileType(fileType)
	ds.MimeType = mimeType.String
	ds.Status = domain.DatasetStatus(status)
	ds.OutputPath = outputPath.String
	return &ds, nil
}

// ListFindings reads the JSONB findings column written by the analysis stage.
func (r *DatasetRepository) ListFindings(ctx context.Context, datasetID string) ([]domain.Finding, error) {
	row := r.db.QueryRowContext(ctx, `SELECT findings FROM datasets WHERE id = $1`, datasetID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDatasetNotFound, "list findings", fmt.Errorf("id=%s", datasetID))
		}
		return nil, fmt.Errorf("scan findings: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var findings []domain.Finding
	if err := json.Unmarshal(raw, &findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	return findings, nil
}

// GetPolicy returns nil without error when the dataset carries no policy;
// the caller decides what the default is.
func (r *DatasetRepository) GetPolicy(ctx context.Context, datasetID string) (*domain.PolicyConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT policy FROM datasets WHERE id = $1`, datasetID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDatasetNotFound, "get policy", fmt.Errorf("id=%s", datasetID))
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var policy domain.PolicyConfig
	if err := json.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", err)
	}
	return &policy, nil
}

func (r *DatasetRepository) UpdateOutput(ctx context.Context, id string, status domain.DatasetStatus, outputPath string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE datasets
SET status = $2, output_path = $3, updated_at = $4
WHERE id = $1
`, id, string(status), outputPath, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update dataset output: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDatasetNotFound, "update dataset", fmt.Errorf("id=%s", id))
	}
	return nil
}
