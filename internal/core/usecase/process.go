package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
)

// ProcessJobUseCase drives one anonymization job end to end: load the
// dataset, dispatch by file type, record progress, classify the outcome.
// It never retries; a failure is recorded and re-raised so the external
// queue's retry policy can act on it.
type ProcessJobUseCase struct {
	jobs      ports.JobRepository
	datasets  ports.DatasetRepository
	store     ports.OutputStore
	extractor ports.TextExtractor
	generic   *GenericAnonymizer
	pdf       *PDFAnonymizer
	docx      *DOCXAnonymizer

	defaultPolicy domain.PolicyConfig
}

func NewProcessJobUseCase(
	jobs ports.JobRepository,
	datasets ports.DatasetRepository,
	store ports.OutputStore,
	extractor ports.TextExtractor,
	generic *GenericAnonymizer,
	pdf *PDFAnonymizer,
	docx *DOCXAnonymizer,
	defaultPolicy domain.PolicyConfig,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		jobs:          jobs,
		datasets:      datasets,
		store:         store,
		extractor:     extractor,
		generic:       generic,
		pdf:           pdf,
		docx:          docx,
		defaultPolicy: defaultPolicy,
	}
}

func (uc *ProcessJobUseCase) ProcessJob(ctx context.Context, jobID string) error {
	job, err := uc.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetch job by id: %w", err)
	}
	if job.Terminal() {
		slog.Warn("job_already_terminal", "job_id", jobID, "status", job.Status)
		return nil
	}

	if err := job.Transition(domain.EventStart); err != nil {
		return domain.WrapError(domain.ErrValidation, "start job", err)
	}
	if err := uc.jobs.UpdateStatus(ctx, job.ID, domain.JobProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	outputPath, runErr := uc.run(ctx, job)
	if runErr != nil {
		if failErr := uc.markFailed(ctx, job, runErr); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", runErr, failErr)
		}
		// re-raise so the queue decides on retry
		return runErr
	}

	if err := uc.datasets.UpdateOutput(ctx, job.DatasetID, domain.DatasetAnonymized, outputPath); err != nil {
		if failErr := uc.markFailed(ctx, job, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("update dataset output: %w", err)
	}

	if err := job.Transition(domain.EventComplete); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if err := uc.jobs.UpdateStatus(ctx, job.ID, domain.JobCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

// run executes the per-file-type pipeline and returns the output path.
func (uc *ProcessJobUseCase) run(ctx context.Context, job *domain.Job) (string, error) {
	report := uc.progressReporter(ctx, job)

	if err := report(5, "loading dataset"); err != nil {
		return "", err
	}
	dataset, err := uc.datasets.GetByID(ctx, job.DatasetID)
	if err != nil {
		return "", fmt.Errorf("fetch dataset: %w", err)
	}

	findings, err := uc.datasets.ListFindings(ctx, dataset.ID)
	if err != nil {
		return "", fmt.Errorf("list findings: %w", err)
	}
	policy, err := uc.loadPolicy(ctx, dataset.ID)
	if err != nil {
		return "", err
	}
	findings = domain.FilterByThreshold(findings, policy)

	sourcePath, err := uc.store.ResolveSource(dataset.SourcePath)
	if err != nil {
		return "", err
	}

	switch dataset.FileType {
	case domain.FileTypePDF:
		if err := report(20, "anonymizing pdf"); err != nil {
			return "", err
		}
		result, err := uc.pdf.Anonymize(ctx, sourcePath, dataset.ID, findings, policy)
		if err != nil {
			return "", err
		}
		return uc.finishFormatPreserving(report, result)

	case domain.FileTypeDOCX:
		if err := report(20, "anonymizing docx"); err != nil {
			return "", err
		}
		result, err := uc.docx.Anonymize(ctx, sourcePath, dataset.ID, findings, policy)
		if err != nil {
			return "", err
		}
		return uc.finishFormatPreserving(report, result)

	default:
		if err := report(20, "extracting text"); err != nil {
			return "", err
		}
		extraction, err := uc.extractor.Extract(ctx, sourcePath, dataset.FileType, dataset.MimeType)
		if err != nil {
			return "", err
		}
		if err := report(60, "anonymizing text"); err != nil {
			return "", err
		}
		outputPath, err := uc.generic.Anonymize(ctx, dataset, extraction, findings, policy)
		if err != nil {
			return "", err
		}
		if err := report(90, "storing output"); err != nil {
			return "", err
		}
		return outputPath, nil
	}
}

func (uc *ProcessJobUseCase) finishFormatPreserving(report func(int, string) error, result *domain.FileAnonymizationResult) (string, error) {
	if err := report(90, "storing output"); err != nil {
		return "", err
	}
	return result.OutputPath, nil
}

// progressReporter persists monotonic progress. Regressions are a
// programming error and fail the job rather than silently rewinding.
func (uc *ProcessJobUseCase) progressReporter(ctx context.Context, job *domain.Job) func(int, string) error {
	return func(progress int, phase string) error {
		if err := job.Advance(progress, phase); err != nil {
			return err
		}
		if err := uc.jobs.UpdateProgress(ctx, job.ID, job.Progress, phase); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
		return nil
	}
}

func (uc *ProcessJobUseCase) loadPolicy(ctx context.Context, datasetID string) (domain.PolicyConfig, error) {
	policy, err := uc.datasets.GetPolicy(ctx, datasetID)
	if err != nil {
		return domain.PolicyConfig{}, fmt.Errorf("load policy: %w", err)
	}
	if policy == nil {
		return uc.defaultPolicy, nil
	}
	return *policy, nil
}

func (uc *ProcessJobUseCase) markFailed(ctx context.Context, job *domain.Job, cause error) error {
	if err := job.Transition(domain.EventFail); err != nil {
		return err
	}
	return uc.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, cause.Error())
}
