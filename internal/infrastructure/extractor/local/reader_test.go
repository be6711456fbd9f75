package local

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

func TestSupports(t *testing.T) {
	r := NewReader()

	cases := []struct {
		fileType domain.FileType
		want     bool
	}{
		{domain.FileTypePDF, true},
		{domain.FileTypeXLSX, true},
		{domain.FileTypeXLS, true},
		{domain.FileTypeDOCX, false},
		{domain.FileTypePPTX, false},
		{domain.FileTypePNG, false},
	}
	for _, tc := range cases {
		if got := r.Supports(tc.fileType); got != tc.want {
			t.Errorf("Supports(%s) = %v, want %v", tc.fileType, got, tc.want)
		}
	}
}

func TestReadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.xlsx")
	wb := excelize.NewFile()
	if err := wb.SetCellValue("Sheet1", "A1", "account"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := wb.SetCellValue("Sheet1", "B1", "owner"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := wb.SetCellValue("Sheet1", "A2", "40817810"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := wb.SetCellValue("Sheet1", "B2", "John Smith"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	text, confidence, err := NewReader().Read(context.Background(), path, domain.FileTypeXLSX)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if confidence != workbookConfidence {
		t.Fatalf("confidence = %v, want %v", confidence, workbookConfidence)
	}
	if !strings.Contains(text, "account\towner") {
		t.Fatalf("header row missing from %q", text)
	}
	if !strings.Contains(text, "40817810\tJohn Smith") {
		t.Fatalf("data row missing from %q", text)
	}
}

func TestReadUnsupportedType(t *testing.T) {
	_, _, err := NewReader().Read(context.Background(), "ignored.docx", domain.FileTypeDOCX)
	if err == nil {
		t.Fatal("expected error for a type without a local reader")
	}
}

func TestReadWorkbookMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.xlsx")
	_, _, err := NewReader().Read(context.Background(), path, domain.FileTypeXLSX)
	if err == nil {
		t.Fatal("expected error for a missing workbook")
	}
}
