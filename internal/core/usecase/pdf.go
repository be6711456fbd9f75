package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
)

// PDFAnonymizer applies the page-level anonymization pass. No coordinate
// mapping from findings to glyph positions exists in this system, so the
// pass stamps an audit banner per page and one labeled box per entity type
// instead of attempting precise redaction boxes. That conservative behavior
// is intentional and must not silently pretend to be pixel redaction.
type PDFAnonymizer struct {
	stamper ports.PDFStamper
	store   ports.OutputStore
	now     func() time.Time
}

func NewPDFAnonymizer(stamper ports.PDFStamper, store ports.OutputStore) *PDFAnonymizer {
	return &PDFAnonymizer{stamper: stamper, store: store, now: time.Now}
}

func (a *PDFAnonymizer) Anonymize(
	ctx context.Context,
	sourcePath, datasetID string,
	findings []domain.Finding,
	policy domain.PolicyConfig,
) (*domain.FileAnonymizationResult, error) {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "stat pdf source", err)
	}

	redacted := redactGrouped(findings, policy)
	entityTypes := domain.DistinctEntityTypes(findings)

	pageCount, err := a.stamper.PageCount(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	banner := fmt.Sprintf("ANONYMIZED DOCUMENT - %d sensitive entities redacted", len(redacted))
	labels := make([]string, 0, len(entityTypes))
	for _, entityType := range entityTypes {
		labels = append(labels, fmt.Sprintf("%s [%s]", entityType, policy.ActionFor(entityType)))
	}

	outputPath := a.store.OutputPath(datasetID, "pdf")
	properties := map[string]string{
		"AnonymizationPass": "page-level audit markers, no coordinate redaction",
		"EntitiesRedacted":  fmt.Sprintf("%d", len(redacted)),
		"EntityTypes":       fmt.Sprintf("%v", entityTypes),
		"ProcessedAt":       a.now().UTC().Format(time.RFC3339),
		"Producer":          "doc-anonymizer",
	}
	if err := a.stamper.Apply(ctx, sourcePath, outputPath, banner, labels, properties); err != nil {
		return nil, err
	}

	outputInfo, err := os.Stat(outputPath)
	if err != nil || outputInfo.Size() == 0 {
		return nil, domain.WrapError(domain.ErrOutputWrite, "validate pdf output",
			fmt.Errorf("output missing or empty: %v", err))
	}

	return &domain.FileAnonymizationResult{
		OutputPath:      outputPath,
		OriginalSize:    sourceInfo.Size(),
		AnonymizedSize:  outputInfo.Size(),
		OperationsCount: pageCount + len(redacted),
		EntityTypes:     entityTypes,
	}, nil
}

// redactGrouped returns the findings whose policy action groups into redact.
// PDFs have no key management, so encrypt degrades to redact here.
func redactGrouped(findings []domain.Finding, policy domain.PolicyConfig) []domain.Finding {
	out := make([]domain.Finding, 0, len(findings))
	for _, f := range findings {
		switch policy.ActionFor(f.EntityType) {
		case domain.ActionRedact, domain.ActionEncrypt:
			out = append(out, f)
		}
	}
	return out
}
