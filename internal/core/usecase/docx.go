package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/masking"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
)

// DOCXAnonymizer rewrites PII inside the container through literal
// search/replace, so styles, tables and images survive. Matching is by text
// equality, not offset: when the same literal text backs two findings with
// different actions, every occurrence takes the value of whichever finding
// came first. That ambiguity exists in the underlying edit mechanism and is
// documented rather than guessed around.
type DOCXAnonymizer struct {
	editor ports.DocumentEditBackend
	store  ports.OutputStore
}

func NewDOCXAnonymizer(editor ports.DocumentEditBackend, store ports.OutputStore) *DOCXAnonymizer {
	return &DOCXAnonymizer{editor: editor, store: store}
}

func (a *DOCXAnonymizer) Anonymize(
	ctx context.Context,
	sourcePath, datasetID string,
	findings []domain.Finding,
	policy domain.PolicyConfig,
) (*domain.FileAnonymizationResult, error) {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "stat docx source", err)
	}

	searches, replacements, entityTypes := buildReplacements(findings, policy)
	outputPath := a.store.OutputPath(datasetID, "docx")

	if len(searches) == 0 {
		// nothing to replace is still a successful pass
		size, err := a.store.Copy(sourcePath, outputPath)
		if err != nil {
			return nil, err
		}
		return &domain.FileAnonymizationResult{
			OutputPath:      outputPath,
			OriginalSize:    sourceInfo.Size(),
			AnonymizedSize:  size,
			OperationsCount: 0,
			EntityTypes:     []string{},
		}, nil
	}

	if err := a.editor.ReplaceAll(ctx, sourcePath, searches, replacements, outputPath); err != nil {
		return nil, err
	}

	outputInfo, err := os.Stat(outputPath)
	if err != nil || outputInfo.Size() == 0 {
		return nil, domain.WrapError(domain.ErrOutputWrite, "validate docx output",
			fmt.Errorf("output missing or empty: %v", err))
	}

	return &domain.FileAnonymizationResult{
		OutputPath:      outputPath,
		OriginalSize:    sourceInfo.Size(),
		AnonymizedSize:  outputInfo.Size(),
		OperationsCount: len(searches),
		EntityTypes:     entityTypes,
	}, nil
}

// buildReplacements derives parallel search/replacement lists from findings.
// The first finding for a given literal text wins; later findings with the
// same text are dropped.
func buildReplacements(findings []domain.Finding, policy domain.PolicyConfig) (searches, replacements []string, entityTypes []string) {
	seenText := make(map[string]struct{}, len(findings))
	seenType := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		if f.Text == "" {
			continue
		}
		if _, ok := seenText[f.Text]; ok {
			continue
		}
		seenText[f.Text] = struct{}{}

		action := policy.ActionFor(f.EntityType)
		searches = append(searches, f.Text)
		replacements = append(replacements, masking.AnonymizedValue(f.Text, f.EntityType, action))

		if _, ok := seenType[f.EntityType]; !ok {
			seenType[f.EntityType] = struct{}{}
			entityTypes = append(entityTypes, f.EntityType)
		}
	}
	return searches, replacements, entityTypes
}
