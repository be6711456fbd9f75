package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

const truncationMarker = "\n...[truncated]"

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// postProcess normalizes extracted text in place and attaches quality
// signals so downstream consumers can judge extraction fidelity without
// re-reading the source.
func postProcess(result *domain.ExtractionResult, maxLength int) {
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}

	text := normalizeText(result.Text)
	originalLength := len(text)
	truncated := false
	if originalLength > maxLength {
		text = truncateUTF8(text, maxLength) + truncationMarker
		truncated = true
	}
	result.Text = text

	wordCount, avgWordLength, alphaRatio := qualitySignals(text)
	result.Metadata["original_length"] = originalLength
	result.Metadata["truncated"] = truncated
	result.Metadata["word_count"] = wordCount
	result.Metadata["avg_word_length"] = avgWordLength
	result.Metadata["alpha_ratio"] = alphaRatio
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncateUTF8 cuts at a byte budget without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func qualitySignals(text string) (wordCount int, avgWordLength float64, alphaRatio float64) {
	words := strings.Fields(text)
	wordCount = len(words)
	if wordCount > 0 {
		total := 0
		for _, w := range words {
			total += utf8.RuneCountInString(w)
		}
		avgWordLength = float64(total) / float64(wordCount)
	}

	runes, alpha := 0, 0
	for _, r := range text {
		runes++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if runes > 0 {
		alphaRatio = float64(alpha) / float64(runes)
	}
	return wordCount, avgWordLength, alphaRatio
}
