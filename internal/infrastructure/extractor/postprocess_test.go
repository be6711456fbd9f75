package extractor

import (
	"strings"
	"testing"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

func TestNormalizeTextCollapsesWhitespaceAndControls(t *testing.T) {
	input := "a\t\t b\x00\x07c\r\nd\r e\n\n\n\n\nf"
	got := normalizeText(input)
	if got != "a bc\nd\n e\n\nf" {
		t.Fatalf("normalizeText() = %q", got)
	}
}

func TestNormalizeTextKeepsSingleTabsAndNewlines(t *testing.T) {
	got := normalizeText("col1\tcol2\nrow2")
	if !strings.Contains(got, "\n") {
		t.Fatalf("newline lost: %q", got)
	}
}

func TestPostProcessTruncatesWithMarker(t *testing.T) {
	result := &domain.ExtractionResult{Text: strings.Repeat("abcd ", 100)}
	postProcess(result, 40)

	if !strings.HasSuffix(result.Text, truncationMarker) {
		t.Fatalf("expected truncation marker, got %q", result.Text)
	}
	if result.Metadata["truncated"] != true {
		t.Fatalf("expected truncated=true")
	}
	if result.Metadata["original_length"] != 499 {
		t.Fatalf("expected original_length 499, got %v", result.Metadata["original_length"])
	}
}

func TestPostProcessTruncationIsRuneSafe(t *testing.T) {
	result := &domain.ExtractionResult{Text: strings.Repeat("ü", 30)}
	postProcess(result, 5)

	body := strings.TrimSuffix(result.Text, truncationMarker)
	if body != "üü" {
		t.Fatalf("expected rune-safe cut, got %q", body)
	}
}

func TestPostProcessQualitySignals(t *testing.T) {
	result := &domain.ExtractionResult{Text: "one two three"}
	postProcess(result, 1000)

	if result.Metadata["word_count"] != 3 {
		t.Fatalf("word_count = %v", result.Metadata["word_count"])
	}
	avg, _ := result.Metadata["avg_word_length"].(float64)
	if avg < 3.6 || avg > 3.7 {
		t.Fatalf("avg_word_length = %v", avg)
	}
	ratio, _ := result.Metadata["alpha_ratio"].(float64)
	if ratio <= 0.8 || ratio > 1.0 {
		t.Fatalf("alpha_ratio = %v", ratio)
	}
}
