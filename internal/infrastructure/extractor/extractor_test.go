package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type conversionFake struct {
	healthErr   error
	text        string
	textErr     error
	metadata    map[string]string
	metadataErr error
	calls       int
}

func (f *conversionFake) Health(context.Context) error { return f.healthErr }

func (f *conversionFake) ExtractText(context.Context, string) (string, error) {
	f.calls++
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *conversionFake) ExtractMetadata(context.Context, string) (map[string]string, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata, nil
}

type ocrFake struct {
	healthErr  error
	text       string
	confidence float64
	err        error
	calls      int
}

func (f *ocrFake) Health(context.Context) error { return f.healthErr }

func (f *ocrFake) Recognize(context.Context, string) (string, float64, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.confidence, nil
}

type localFake struct {
	supported  map[domain.FileType]bool
	text       string
	confidence float64
	err        error
	calls      int
}

func (f *localFake) Supports(ft domain.FileType) bool { return f.supported[ft] }

func (f *localFake) Read(context.Context, string, domain.FileType) (string, float64, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.confidence, nil
}

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newExtractor(conversion *conversionFake, ocrBackend *ocrFake, cfg Config) *Extractor {
	return New(conversion, ocrBackend, nil, cfg)
}

func TestExtractDirectUTF8(t *testing.T) {
	path := writeFixture(t, "note.txt", []byte("hello   world\n\n\n\nsecond paragraph"))
	e := newExtractor(&conversionFake{}, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeTXT, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodDirect {
		t.Fatalf("expected direct method, got %s", result.Method)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", result.Confidence)
	}
	if result.Text != "hello world\n\nsecond paragraph" {
		t.Fatalf("unexpected normalized text: %q", result.Text)
	}
	if result.Metadata["word_count"] != 4 {
		t.Fatalf("expected word_count 4, got %v", result.Metadata["word_count"])
	}
}

func TestExtractDirectLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as standalone UTF-8
	path := writeFixture(t, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})
	e := newExtractor(&conversionFake{}, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeTXT, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8 for latin-1, got %v", result.Confidence)
	}
	if result.Text != "café" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestExtractRejectsOversizedFileBeforeAnyStrategy(t *testing.T) {
	path := writeFixture(t, "big.txt", []byte("0123456789"))
	conversion := &conversionFake{text: "never"}
	ocrBackend := &ocrFake{text: "never"}
	e := newExtractor(conversion, ocrBackend, Config{MaxFileSize: 5})

	_, err := e.Extract(context.Background(), path, domain.FileTypeTXT, "")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if conversion.calls != 0 || ocrBackend.calls != 0 {
		t.Fatalf("no strategy must run after validation failure")
	}
}

func TestExtractMissingFileRaisesValidation(t *testing.T) {
	e := newExtractor(&conversionFake{}, &ocrFake{}, Config{})
	_, err := e.Extract(context.Background(), "/nonexistent/file.txt", domain.FileTypeTXT, "")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExtractTikaFixedConfidenceAndMetadata(t *testing.T) {
	path := writeFixture(t, "report.docx", []byte("PK..."))
	conversion := &conversionFake{text: "converted body", metadata: map[string]string{"Author": "it"}}
	e := newExtractor(conversion, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeDOCX, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodTika || result.Confidence != 0.9 {
		t.Fatalf("unexpected result: method=%s confidence=%v", result.Method, result.Confidence)
	}
	if result.Metadata["doc.Author"] != "it" {
		t.Fatalf("expected document metadata, got %v", result.Metadata)
	}
}

func TestExtractTikaMetadataFailureIsNonFatal(t *testing.T) {
	path := writeFixture(t, "report.docx", []byte("PK..."))
	conversion := &conversionFake{text: "converted body", metadataErr: errors.New("metadata endpoint down")}
	e := newExtractor(conversion, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeDOCX, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "converted body" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestExtractTikaDownFallsBackToDirectForTextualType(t *testing.T) {
	path := writeFixture(t, "data.rtf", []byte("{\\rtf1 plain words}"))
	conversion := &conversionFake{textErr: errors.New("connection refused")}
	e := newExtractor(conversion, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeRTF, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodDirect {
		t.Fatalf("expected direct fallback, got %s", result.Method)
	}
}

func TestExtractTikaDownPropagatesForBinaryType(t *testing.T) {
	path := writeFixture(t, "deck.pptx", []byte{0x50, 0x4B, 0x03, 0x04})
	conversion := &conversionFake{textErr: errors.New("connection refused")}
	e := newExtractor(conversion, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypePPTX, "")
	if !domain.IsKind(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if result == nil || result.Method != domain.MethodFailed {
		t.Fatalf("expected failed method marker, got %+v", result)
	}
}

func TestExtractOCRUnhealthyDelegatesToTika(t *testing.T) {
	path := writeFixture(t, "scan.png", []byte{0x89, 'P', 'N', 'G'})
	conversion := &conversionFake{text: "text recovered by conversion backend"}
	ocrBackend := &ocrFake{healthErr: errors.New("ocr down")}
	e := newExtractor(conversion, ocrBackend, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypePNG, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodTika {
		t.Fatalf("expected tika delegate, got %s", result.Method)
	}
	if ocrBackend.calls != 0 {
		t.Fatalf("unhealthy ocr backend must not be called")
	}
}

func TestExtractOCRShortTextFallsBackToTika(t *testing.T) {
	path := writeFixture(t, "scan.png", []byte{0x89, 'P', 'N', 'G'})
	conversion := &conversionFake{text: "longer text from the conversion backend"}
	ocrBackend := &ocrFake{text: "x", confidence: 0.9}
	e := newExtractor(conversion, ocrBackend, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypePNG, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodTika {
		t.Fatalf("expected tika fallback for short ocr text, got %s", result.Method)
	}
}

func TestExtractOCRAndTikaBothDownAggregatesErrors(t *testing.T) {
	path := writeFixture(t, "scan.png", []byte{0x89, 'P', 'N', 'G'})
	conversion := &conversionFake{textErr: errors.New("tika exploded")}
	ocrBackend := &ocrFake{err: errors.New("ocr exploded")}
	e := newExtractor(conversion, ocrBackend, Config{})

	_, err := e.Extract(context.Background(), path, domain.FileTypePNG, "")
	if !domain.IsKind(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "ocr exploded") || !strings.Contains(err.Error(), "tika exploded") {
		t.Fatalf("expected aggregated error, got %v", err)
	}
}

func TestHybridAcceptsSolidTikaResult(t *testing.T) {
	path := writeFixture(t, "mixed.pdf", []byte("%PDF-1.4"))
	longText := strings.Repeat("searchable pdf text ", 5)
	conversion := &conversionFake{text: longText}
	ocrBackend := &ocrFake{text: "should not matter", confidence: 0.9}
	e := newExtractor(conversion, ocrBackend, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypePDF, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodHybrid {
		t.Fatalf("expected hybrid method, got %s", result.Method)
	}
	if result.Metadata["primary"] != "tika" {
		t.Fatalf("expected tika primary, got %v", result.Metadata["primary"])
	}
	if ocrBackend.calls != 0 {
		t.Fatalf("ocr must not run when tika result is solid")
	}
}

func TestHybridKeepsLongerTextWhenTikaIsWeak(t *testing.T) {
	path := writeFixture(t, "scan.pdf", []byte("%PDF-1.4"))
	conversion := &conversionFake{text: "thin"}
	ocrBackend := &ocrFake{text: "much longer text recovered from the page images by ocr", confidence: 0.75}
	e := newExtractor(conversion, ocrBackend, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypePDF, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodHybrid {
		t.Fatalf("expected hybrid method, got %s", result.Method)
	}
	if result.Metadata["primary"] != "ocr" {
		t.Fatalf("expected ocr primary, got %v", result.Metadata["primary"])
	}
	if !strings.Contains(result.Text, "recovered from the page images") {
		t.Fatalf("unexpected winner text: %q", result.Text)
	}
}

func TestExtractDetectsTypeFromMimeHint(t *testing.T) {
	path := writeFixture(t, "upload.bin", []byte("plain utf-8 content"))
	e := newExtractor(&conversionFake{textErr: errors.New("down")}, &ocrFake{}, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeUnknown, "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Method != domain.MethodDirect {
		t.Fatalf("expected direct via mime hint, got %s", result.Method)
	}
}

func TestExtractConversionDownFallsBackToLocalReader(t *testing.T) {
	path := writeFixture(t, "ledger.xlsx", []byte{0x50, 0x4b, 0x03, 0x04})
	conversion := &conversionFake{healthErr: errors.New("tika unreachable")}
	local := &localFake{
		supported:  map[domain.FileType]bool{domain.FileTypeXLSX: true},
		text:       "account\topening balance\nacme\t1200",
		confidence: 0.85,
	}
	e := New(conversion, &ocrFake{}, local, Config{})

	result, err := e.Extract(context.Background(), path, domain.FileTypeXLSX, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if local.calls != 1 {
		t.Fatalf("expected one local read, got %d", local.calls)
	}
	if result.Text != local.text {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Confidence != 0.85 {
		t.Fatalf("expected local reader confidence, got %v", result.Confidence)
	}
	if result.Metadata["local_fallback"] != true {
		t.Fatalf("expected local_fallback metadata, got %v", result.Metadata)
	}
	if result.Method != domain.MethodDirect {
		t.Fatalf("unexpected method %s", result.Method)
	}
}

func TestExtractLocalReaderSkippedForUnsupportedType(t *testing.T) {
	path := writeFixture(t, "slides.pptx", []byte{0x50, 0x4b, 0x03, 0x04})
	conversion := &conversionFake{healthErr: errors.New("tika unreachable")}
	local := &localFake{supported: map[domain.FileType]bool{domain.FileTypeXLSX: true}}
	e := New(conversion, &ocrFake{}, local, Config{})

	_, err := e.Extract(context.Background(), path, domain.FileTypePPTX, "")
	if err == nil {
		t.Fatal("expected failure when no strategy can read the file")
	}
	if local.calls != 0 {
		t.Fatalf("local reader must not run for unsupported types, got %d calls", local.calls)
	}
}

func TestExtractLocalReaderFailureAggregatesWithChain(t *testing.T) {
	path := writeFixture(t, "report.pdf", []byte("%PDF-1.4"))
	conversion := &conversionFake{healthErr: errors.New("tika unreachable")}
	ocrBackend := &ocrFake{healthErr: errors.New("ocr unreachable")}
	local := &localFake{
		supported: map[domain.FileType]bool{domain.FileTypePDF: true},
		err:       errors.New("encrypted document"),
	}
	e := New(conversion, ocrBackend, local, Config{})

	_, err := e.Extract(context.Background(), path, domain.FileTypePDF, "")
	if err == nil {
		t.Fatal("expected aggregated failure")
	}
	if local.calls != 1 {
		t.Fatalf("expected the local tier to be attempted, got %d calls", local.calls)
	}
	if !strings.Contains(err.Error(), "encrypted document") {
		t.Fatalf("local failure missing from aggregate: %v", err)
	}
}
