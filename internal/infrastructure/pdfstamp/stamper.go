// Package pdfstamp applies the page-level PDF anonymization pass. There is
// no text-to-coordinate mapping in this system, so the pass stamps audit
// markers instead of attempting pixel redaction.
package pdfstamp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type Stamper struct{}

func NewStamper() *Stamper {
	return &Stamper{}
}

func (s *Stamper) PageCount(_ context.Context, path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return count, nil
}

// Apply copies the source, stamps the banner on every page, stamps one
// labeled box per entity type, and writes the anonymization properties.
func (s *Stamper) Apply(_ context.Context, sourcePath, outputPath, banner string, boxLabels []string, properties map[string]string) error {
	if err := copyFile(sourcePath, outputPath); err != nil {
		return domain.WrapError(domain.ErrOutputWrite, "copy pdf", err)
	}

	bannerMark, err := api.TextWatermark(banner,
		"points:12, pos:tc, off:0 -16, fillc:#000000, bgcol:#ffe100, rot:0, op:1, scale:0.9 rel",
		true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build banner stamp: %w", err)
	}
	if err := api.AddWatermarksFile(outputPath, "", nil, bannerMark, nil); err != nil {
		return domain.WrapError(domain.ErrOutputWrite, "stamp banner", err)
	}

	for i, label := range boxLabels {
		desc := fmt.Sprintf("points:10, pos:bl, off:24 %d, fillc:#ffffff, bgcol:#000000, rot:0, op:1, scale:0.5 rel", 24+i*20)
		mark, err := api.TextWatermark(label, desc, true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("build entity stamp: %w", err)
		}
		if err := api.AddWatermarksFile(outputPath, "", nil, mark, nil); err != nil {
			return domain.WrapError(domain.ErrOutputWrite, "stamp entity label", err)
		}
	}

	if len(properties) > 0 {
		if err := api.AddPropertiesFile(outputPath, "", properties, nil); err != nil {
			return domain.WrapError(domain.ErrOutputWrite, "write pdf properties", err)
		}
	}
	return nil
}

func copyFile(sourcePath, outputPath string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
