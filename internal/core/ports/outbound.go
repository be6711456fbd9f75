package ports

import (
	"context"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

// JobRepository mutates job state. Jobs are created by the external queue
// service; this core only writes status, progress, error and end time.
type JobRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	UpdateProgress(ctx context.Context, id string, progress int, phase string) error
}

// DatasetRepository reads the upload a job works on and writes back the
// outcome. Findings and policy are attached to the dataset by the analysis
// stage and are read-only here.
type DatasetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	ListFindings(ctx context.Context, datasetID string) ([]domain.Finding, error)
	GetPolicy(ctx context.Context, datasetID string) (*domain.PolicyConfig, error)
	UpdateOutput(ctx context.Context, id string, status domain.DatasetStatus, outputPath string) error
}

// TextExtractor chooses and executes an extraction strategy with fallback.
type TextExtractor interface {
	Extract(ctx context.Context, path string, fileType domain.FileType, mimeType string) (*domain.ExtractionResult, error)
}

// ConversionBackend is the document-conversion service (Tika-style): file in,
// plain text out, metadata best-effort.
type ConversionBackend interface {
	Health(ctx context.Context) error
	ExtractText(ctx context.Context, path string) (string, error)
	ExtractMetadata(ctx context.Context, path string) (map[string]string, error)
}

// OCRBackend recognizes text in images. Engine options (language, page
// segmentation, engine mode) are adapter configuration, not call arguments.
type OCRBackend interface {
	Health(ctx context.Context) error
	Recognize(ctx context.Context, path string) (text string, confidence float64, err error)
}

// AnonymizationBackend rewrites text according to findings and operators,
// collapsing overlapping spans into one operation.
type AnonymizationBackend interface {
	Anonymize(ctx context.Context, text string, findings []domain.Finding, operators map[string]domain.Operator) (*domain.AnonymizationResult, error)
}

// DocumentEditBackend performs structure-preserving literal search/replace
// across a whole office document (paragraphs, tables, headers, footers).
type DocumentEditBackend interface {
	ReplaceAll(ctx context.Context, sourcePath string, searches, replacements []string, outputPath string) error
}

// PDFStamper applies the page-level anonymization pass: a banner on every
// page, one labeled box per entity type, and document properties.
type PDFStamper interface {
	PageCount(ctx context.Context, path string) (int, error)
	Apply(ctx context.Context, sourcePath, outputPath, banner string, boxLabels []string, properties map[string]string) error
}

// JobQueue delivers job ids to workers. Delivery/retry semantics live in the
// queue service, not here.
type JobQueue interface {
	PublishJobCreated(ctx context.Context, jobID string) error
	SubscribeJobCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// OutputStore owns the output directory layout and the cross-service
// project-root path resolution contract.
type OutputStore interface {
	ResolveSource(path string) (string, error)
	OutputPath(datasetID, extension string) string
	Write(path string, data []byte) error
	Copy(sourcePath, outputPath string) (int64, error)
}
