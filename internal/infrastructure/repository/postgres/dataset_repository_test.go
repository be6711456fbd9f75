package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

func newDatasetRepoWithMock(t *testing.T) (*DatasetRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DatasetRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestDatasetGetByIDScansNullableColumns(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "file_type", "mime_type", "source_path", "status", "output_path",
		"uploaded_at", "updated_at",
	}).AddRow("ds-1", "notes.txt", "txt", nil, "uploads/notes.txt", "uploaded", nil, now, now)

	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs("ds-1").
		WillReturnRows(rows)

	ds, err := repo.GetByID(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ds.FileType != domain.FileTypeTXT || ds.MimeType != "" || ds.OutputPath != "" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDatasetGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListFindingsUnmarshalsJSONB(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	raw := `[{"entity_type":"EMAIL_ADDRESS","text":"a@b.com","start":4,"end":11,"confidence":0.91}]`
	mock.ExpectQuery("SELECT findings FROM datasets").
		WithArgs("ds-1").
		WillReturnRows(sqlmock.NewRows([]string{"findings"}).AddRow([]byte(raw)))

	findings, err := repo.ListFindings(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("ListFindings() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.EntityType != "EMAIL_ADDRESS" || f.Start != 4 || f.End != 11 || f.Confidence != 0.91 {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPolicyNilWhenColumnEmpty(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT policy FROM datasets").
		WithArgs("ds-1").
		WillReturnRows(sqlmock.NewRows([]string{"policy"}).AddRow(nil))

	policy, err := repo.GetPolicy(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if policy != nil {
		t.Fatalf("expected nil policy, got %+v", policy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPolicyUnmarshalsJSONB(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	raw := `{"default_action":"redact","entities":{"PERSON":{"action":"mask","confidence_threshold":0.8}}}`
	mock.ExpectQuery("SELECT policy FROM datasets").
		WithArgs("ds-1").
		WillReturnRows(sqlmock.NewRows([]string{"policy"}).AddRow([]byte(raw)))

	policy, err := repo.GetPolicy(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if policy.DefaultAction != domain.ActionRedact {
		t.Fatalf("unexpected default action %q", policy.DefaultAction)
	}
	if policy.Entities["PERSON"].Action != domain.ActionMask {
		t.Fatalf("unexpected entity policy %+v", policy.Entities["PERSON"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateOutputReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDatasetRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE datasets").
		WithArgs("missing", "anonymized", "/out/x.json", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOutput(context.Background(), "missing", domain.DatasetAnonymized, "/out/x.json")
	if !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
