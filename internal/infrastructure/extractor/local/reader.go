// Package local reads a handful of container formats in-process. It is the
// last fallback tier before extraction gives up: no external service, lower
// fidelity, lower confidence.
package local

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

const (
	pdfConfidence      = 0.6
	workbookConfidence = 0.85
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Supports(fileType domain.FileType) bool {
	switch fileType {
	case domain.FileTypePDF, domain.FileTypeXLSX, domain.FileTypeXLS:
		return true
	}
	return false
}

func (r *Reader) Read(_ context.Context, path string, fileType domain.FileType) (string, float64, error) {
	switch fileType {
	case domain.FileTypePDF:
		text, err := readPDF(path)
		return text, pdfConfidence, err
	case domain.FileTypeXLSX, domain.FileTypeXLS:
		text, err := readWorkbook(path)
		return text, workbookConfidence, err
	default:
		return "", 0, fmt.Errorf("no local reader for file type %q", fileType)
	}
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func readWorkbook(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
