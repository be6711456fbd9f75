package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/masking"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
)

type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputText OutputFormat = "text"
)

// GenericAnonymizer handles every non-PDF/DOCX dataset: extracted text plus
// findings go to the anonymization backend, the serialized result goes to
// the output store.
type GenericAnonymizer struct {
	backend ports.AnonymizationBackend
	store   ports.OutputStore
	format  OutputFormat
	now     func() time.Time
}

func NewGenericAnonymizer(backend ports.AnonymizationBackend, store ports.OutputStore, format OutputFormat) *GenericAnonymizer {
	switch format {
	case OutputJSON, OutputText:
	default:
		// unknown output types fall back to the structured form
		format = OutputJSON
	}
	return &GenericAnonymizer{
		backend: backend,
		store:   store,
		format:  format,
		now:     time.Now,
	}
}

type jsonOutput struct {
	DatasetID         string                    `json:"dataset_id"`
	AnonymizedText    string                    `json:"anonymized_text"`
	OriginalLength    int                       `json:"original_length"`
	AnonymizedLength  int                       `json:"anonymized_length"`
	OperationsApplied int                       `json:"operations_applied"`
	Operations        []domain.AppliedOperation `json:"operations"`
	ExtractionMethod  domain.ExtractionMethod   `json:"extraction_method"`
	GeneratedAt       time.Time                 `json:"generated_at"`
}

type imageReport struct {
	jsonOutput
	ImageNote string `json:"image_note"`
}

// imageNote is part of the output contract: consumers must know the
// original pixels were never touched.
const imageNote = "original image bytes are unmodified; only text extracted via OCR has been anonymized"

func (g *GenericAnonymizer) Anonymize(
	ctx context.Context,
	dataset *domain.Dataset,
	extraction *domain.ExtractionResult,
	findings []domain.Finding,
	policy domain.PolicyConfig,
) (string, error) {
	valid := make([]domain.Finding, 0, len(findings))
	for _, f := range findings {
		if f.SpanValid(len(extraction.Text)) {
			valid = append(valid, f)
		}
	}

	operators := masking.BuildOperators(policy, valid)
	result, err := g.backend.Anonymize(ctx, extraction.Text, valid, operators)
	if err != nil {
		return "", err
	}

	payload, extension, err := g.serialize(dataset, extraction, result)
	if err != nil {
		return "", err
	}

	outputPath := g.store.OutputPath(dataset.ID, extension)
	if err := g.store.Write(outputPath, payload); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (g *GenericAnonymizer) serialize(
	dataset *domain.Dataset,
	extraction *domain.ExtractionResult,
	result *domain.AnonymizationResult,
) ([]byte, string, error) {
	base := jsonOutput{
		DatasetID:         dataset.ID,
		AnonymizedText:    result.Text,
		OriginalLength:    len(extraction.Text),
		AnonymizedLength:  len(result.Text),
		OperationsApplied: len(result.Operations),
		Operations:        result.Operations,
		ExtractionMethod:  extraction.Method,
		GeneratedAt:       g.now().UTC(),
	}

	// image uploads always produce a structured report
	if dataset.FileType.IsImage() {
		payload, err := json.MarshalIndent(imageReport{jsonOutput: base, ImageNote: imageNote}, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal image report: %w", err)
		}
		return payload, "json", nil
	}

	if g.format == OutputText {
		return []byte(result.Text), "txt", nil
	}

	payload, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal output document: %w", err)
	}
	return payload, "json", nil
}
