package usecase

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type recordingEditor struct {
	searches     []string
	replacements []string
	err          error
}

func (f *recordingEditor) ReplaceAll(_ context.Context, _ string, searches, replacements []string, out string) error {
	if f.err != nil {
		return f.err
	}
	f.searches = searches
	f.replacements = replacements
	return os.WriteFile(out, []byte("PK edited container"), 0o644)
}

func TestDOCXAnonymizeZeroFindingsCopiesByteForByte(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "memo.docx", "PK original container bytes")
	a := NewDOCXAnonymizer(&recordingEditor{}, &fsStore{dir: dir})

	result, err := a.Anonymize(context.Background(), source, "ds-1", nil, domain.DefaultPolicy())
	if err != nil {
		t.Fatalf("Anonymize() error = %v", err)
	}
	if result.OperationsCount != 0 {
		t.Fatalf("expected 0 operations, got %d", result.OperationsCount)
	}
	if result.AnonymizedSize != result.OriginalSize {
		t.Fatalf("copy must preserve size: %d != %d", result.AnonymizedSize, result.OriginalSize)
	}
	copied, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(copied) != "PK original container bytes" {
		t.Fatalf("output is not a byte-for-byte copy: %q", copied)
	}
}

func TestDOCXAnonymizeBuildsFirstWinsReplacements(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "memo.docx", "PK original container bytes")
	editor := &recordingEditor{}
	a := NewDOCXAnonymizer(editor, &fsStore{dir: dir})

	policy := domain.PolicyConfig{
		DefaultAction: domain.ActionReplace,
		Entities: map[string]domain.EntityPolicy{
			"EMAIL_ADDRESS": {Action: domain.ActionReplace},
			"PERSON":        {Action: domain.ActionRedact},
		},
	}
	findings := []domain.Finding{
		{EntityType: "EMAIL_ADDRESS", Text: "a@b.com", Start: 0, End: 7, Confidence: 0.9},
		// same literal text under a different type: the first finding wins
		{EntityType: "PERSON", Text: "a@b.com", Start: 30, End: 37, Confidence: 0.9},
		{EntityType: "PERSON", Text: "John Smith", Start: 50, End: 60, Confidence: 0.9},
		{EntityType: "PERSON", Text: "", Start: 70, End: 70, Confidence: 0.9},
	}

	result, err := a.Anonymize(context.Background(), source, "ds-2", findings, policy)
	if err != nil {
		t.Fatalf("Anonymize() error = %v", err)
	}
	if len(editor.searches) != 2 {
		t.Fatalf("expected deduplicated searches, got %v", editor.searches)
	}
	if editor.searches[0] != "a@b.com" || editor.searches[1] != "John Smith" {
		t.Fatalf("unexpected search order %v", editor.searches)
	}
	if editor.replacements[0] != "user@example.com" {
		t.Fatalf("replace action must use the canned value, got %q", editor.replacements[0])
	}
	if editor.replacements[1] != "[REDACTED]" {
		t.Fatalf("redact action must produce the redaction token, got %q", editor.replacements[1])
	}
	if result.OperationsCount != 2 {
		t.Fatalf("expected 2 operations, got %d", result.OperationsCount)
	}
	if len(result.EntityTypes) != 2 {
		t.Fatalf("expected both entity types recorded, got %v", result.EntityTypes)
	}
}

func TestDOCXAnonymizeEditorFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "memo.docx", "PK bytes")
	editor := &recordingEditor{err: domain.WrapError(domain.ErrOutputWrite, "rewrite docx", errors.New("broken zip"))}
	a := NewDOCXAnonymizer(editor, &fsStore{dir: dir})

	findings := []domain.Finding{{EntityType: "PERSON", Text: "John", Start: 0, End: 4, Confidence: 0.9}}
	_, err := a.Anonymize(context.Background(), source, "ds-3", findings, domain.DefaultPolicy())
	if !domain.IsKind(err, domain.ErrOutputWrite) {
		t.Fatalf("expected output-write error, got %v", err)
	}
}
