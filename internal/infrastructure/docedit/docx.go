// Package docedit performs structure-preserving search/replace on DOCX
// containers. It edits the document markup directly so styles, images and
// layout survive the pass.
package docedit

import (
	"context"
	"fmt"

	"github.com/nguyenthenguyen/docx"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

// ReplaceAll substitutes every occurrence of each search text across body,
// headers and footers. Matching is literal text equality; offsets are not
// available inside the container.
func (b *Backend) ReplaceAll(_ context.Context, sourcePath string, searches, replacements []string, outputPath string) error {
	if len(searches) != len(replacements) {
		return domain.WrapError(domain.ErrValidation, "docx replace",
			fmt.Errorf("searches/replacements length mismatch: %d/%d", len(searches), len(replacements)))
	}

	reader, err := docx.ReadDocxFile(sourcePath)
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	doc := reader.Editable()
	for i := range searches {
		if searches[i] == "" {
			continue
		}
		if err := doc.Replace(searches[i], replacements[i], -1); err != nil {
			return fmt.Errorf("replace in body: %w", err)
		}
		if err := doc.ReplaceHeader(searches[i], replacements[i]); err != nil {
			return fmt.Errorf("replace in header: %w", err)
		}
		if err := doc.ReplaceFooter(searches[i], replacements[i]); err != nil {
			return fmt.Errorf("replace in footer: %w", err)
		}
	}

	if err := doc.WriteToFile(outputPath); err != nil {
		return domain.WrapError(domain.ErrOutputWrite, "write docx", err)
	}
	return nil
}
