// Package extractor selects and executes a text extraction strategy per file
// type, with ordered fallback across external services. Fallback order is
// declarative data, not nested error handling, so it can be tested without
// network calls.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/core/ports"
)

const (
	defaultMaxFileSize   = 100 << 20 // 100MB
	defaultMaxTextLength = 10 << 20  // 10MB
	minOCRTextLength     = 10
	hybridMinTextLength  = 50
	hybridMinConfidence  = 0.8
)

// LocalReader is the in-process fallback tier used when the conversion
// backend is down: best-effort, container-format readers only.
type LocalReader interface {
	Supports(fileType domain.FileType) bool
	Read(ctx context.Context, path string, fileType domain.FileType) (text string, confidence float64, err error)
}

type Config struct {
	MaxFileSize   int64
	MaxTextLength int
	// HybridTypes use tika as primary and OCR as a second opinion. PDFs are
	// here by default because scanned PDFs convert to near-empty text.
	HybridTypes []domain.FileType
}

type Extractor struct {
	conversion ports.ConversionBackend
	ocr        ports.OCRBackend
	local      LocalReader
	cfg        Config
	hybrid     map[domain.FileType]bool
}

func New(conversion ports.ConversionBackend, ocr ports.OCRBackend, local LocalReader, cfg Config) *Extractor {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = defaultMaxTextLength
	}
	if cfg.HybridTypes == nil {
		cfg.HybridTypes = []domain.FileType{domain.FileTypePDF}
	}
	hybrid := make(map[domain.FileType]bool, len(cfg.HybridTypes))
	for _, ft := range cfg.HybridTypes {
		hybrid[ft] = true
	}
	return &Extractor{
		conversion: conversion,
		ocr:        ocr,
		local:      local,
		cfg:        cfg,
		hybrid:     hybrid,
	}
}

// attempt is one entry of the fallback chain. accept decides whether a
// technically successful run is good enough to stop the chain.
type attempt struct {
	name   string
	run    func(ctx context.Context) (*domain.ExtractionResult, error)
	accept func(*domain.ExtractionResult) bool
}

// Extract validates the source file, builds the fallback chain for its type
// and runs it. Validation failures raise before any strategy runs; the chain
// only reports failure once every applicable fallback is exhausted.
func (e *Extractor) Extract(ctx context.Context, path string, fileType domain.FileType, mimeType string) (*domain.ExtractionResult, error) {
	if err := e.validate(path); err != nil {
		return nil, err
	}

	ft := fileType
	if ft == domain.FileTypeUnknown {
		ft = domain.DetectFileType(path, mimeType)
	}

	result, err := e.runChain(ctx, e.chainFor(path, ft))
	if err != nil {
		return result, err
	}

	postProcess(result, e.cfg.MaxTextLength)
	return result, nil
}

func (e *Extractor) validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return domain.WrapError(domain.ErrValidation, "stat source file", err)
	}
	if info.IsDir() {
		return domain.WrapError(domain.ErrValidation, "stat source file", fmt.Errorf("%s is a directory", path))
	}
	if info.Size() > e.cfg.MaxFileSize {
		return domain.WrapError(domain.ErrValidation, "check file size",
			fmt.Errorf("file size %d exceeds limit %d", info.Size(), e.cfg.MaxFileSize))
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.WrapError(domain.ErrValidation, "open source file", err)
	}
	_ = f.Close()
	return nil
}

func (e *Extractor) chainFor(path string, ft domain.FileType) []attempt {
	direct := attempt{
		name:   "direct",
		run:    func(context.Context) (*domain.ExtractionResult, error) { return e.runDirect(path) },
		accept: acceptAny,
	}
	tika := attempt{
		name:   "tika",
		run:    func(ctx context.Context) (*domain.ExtractionResult, error) { return e.runTika(ctx, path) },
		accept: acceptNonEmpty,
	}
	ocr := attempt{
		name:   "ocr",
		run:    func(ctx context.Context) (*domain.ExtractionResult, error) { return e.runOCR(ctx, path) },
		accept: acceptOCR,
	}
	hybrid := attempt{
		name:   "hybrid",
		run:    func(ctx context.Context) (*domain.ExtractionResult, error) { return e.runHybrid(ctx, path) },
		accept: acceptNonEmpty,
	}
	local := attempt{
		name:   "local",
		run:    func(ctx context.Context) (*domain.ExtractionResult, error) { return e.runLocal(ctx, path, ft) },
		accept: acceptNonEmpty,
	}

	if e.hybrid[ft] {
		chain := []attempt{hybrid}
		if e.localSupports(ft) {
			chain = append(chain, local)
		}
		return chain
	}

	switch ft {
	case domain.FileTypeTXT, domain.FileTypeCSV, domain.FileTypeJSON, domain.FileTypeJSONL,
		domain.FileTypeHTML, domain.FileTypeXML:
		return []attempt{direct}
	case domain.FileTypePDF, domain.FileTypeDOC, domain.FileTypeDOCX, domain.FileTypeXLS,
		domain.FileTypeXLSX, domain.FileTypePPT, domain.FileTypePPTX, domain.FileTypeODT,
		domain.FileTypeODS, domain.FileTypeODP, domain.FileTypeRTF:
		chain := []attempt{tika}
		if ft.PlausiblyText() {
			chain = append(chain, direct)
		}
		if e.localSupports(ft) {
			chain = append(chain, local)
		}
		return chain
	case domain.FileTypeJPEG, domain.FileTypePNG, domain.FileTypeTIFF, domain.FileTypeBMP, domain.FileTypeGIF:
		return []attempt{ocr, tika}
	default:
		// unrecognized types get the widest net: try the conversion backend,
		// then a raw byte read
		return []attempt{tika, direct}
	}
}

func (e *Extractor) localSupports(ft domain.FileType) bool {
	return e.local != nil && e.local.Supports(ft)
}

func (e *Extractor) runChain(ctx context.Context, chain []attempt) (*domain.ExtractionResult, error) {
	var failures []error
	attempted := make([]string, 0, len(chain))

	for _, a := range chain {
		attempted = append(attempted, a.name)
		result, err := a.run(ctx)
		if err != nil {
			slog.Warn("extraction_strategy_failed", "strategy", a.name, "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", a.name, err))
			continue
		}
		if !a.accept(result) {
			slog.Warn("extraction_result_rejected", "strategy", a.name, "text_length", len(result.Text))
			failures = append(failures, fmt.Errorf("%s: result below acceptance threshold", a.name))
			continue
		}
		if result.Metadata == nil {
			result.Metadata = map[string]any{}
		}
		result.Metadata["attempts"] = attempted
		return result, nil
	}

	failed := &domain.ExtractionResult{
		Method:   domain.MethodFailed,
		Metadata: map[string]any{"attempts": attempted},
	}
	return failed, domain.WrapError(domain.ErrServiceUnavailable, "all extraction strategies exhausted", errors.Join(failures...))
}

func (e *Extractor) runDirect(path string) (*domain.ExtractionResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if utf8.Valid(raw) {
		return &domain.ExtractionResult{
			Text:       string(raw),
			Confidence: 1.0,
			Method:     domain.MethodDirect,
			Metadata:   map[string]any{"encoding": "utf-8"},
		}, nil
	}
	// Latin-1 never fails to decode, so it is the universal second try, at
	// reduced confidence.
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return &domain.ExtractionResult{
		Text:       string(runes),
		Confidence: 0.8,
		Method:     domain.MethodDirect,
		Metadata:   map[string]any{"encoding": "latin-1"},
	}, nil
}

func (e *Extractor) runTika(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	if err := e.conversion.Health(ctx); err != nil {
		return nil, fmt.Errorf("conversion backend unhealthy: %w", err)
	}
	text, err := e.conversion.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	result := &domain.ExtractionResult{
		Text:       text,
		Confidence: 0.9,
		Method:     domain.MethodTika,
		Metadata:   map[string]any{},
	}
	// metadata is best-effort only
	if meta, err := e.conversion.ExtractMetadata(ctx, path); err != nil {
		slog.Warn("tika_metadata_failed", "error", err)
	} else {
		for key, value := range meta {
			result.Metadata["doc."+key] = value
		}
	}
	return result, nil
}

func (e *Extractor) runOCR(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	if err := e.ocr.Health(ctx); err != nil {
		return nil, fmt.Errorf("ocr backend unhealthy: %w", err)
	}
	text, confidence, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		return nil, err
	}
	return &domain.ExtractionResult{
		Text:       text,
		Confidence: confidence,
		Method:     domain.MethodOCR,
		Metadata:   map[string]any{},
	}, nil
}

// runHybrid runs tika first and keeps its result when it looks solid.
// Otherwise OCR gets a shot and the longer text wins.
func (e *Extractor) runHybrid(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	tikaResult, tikaErr := e.runTika(ctx, path)
	if tikaErr == nil && len(tikaResult.Text) > hybridMinTextLength && tikaResult.Confidence >= hybridMinConfidence {
		tikaResult.Method = domain.MethodHybrid
		tikaResult.Metadata["primary"] = "tika"
		return tikaResult, nil
	}

	ocrResult, ocrErr := e.runOCR(ctx, path)
	switch {
	case tikaErr != nil && ocrErr != nil:
		return nil, errors.Join(tikaErr, ocrErr)
	case tikaErr != nil:
		ocrResult.Method = domain.MethodHybrid
		ocrResult.Metadata["primary"] = "ocr"
		return ocrResult, nil
	case ocrErr != nil:
		tikaResult.Method = domain.MethodHybrid
		tikaResult.Metadata["primary"] = "tika"
		return tikaResult, nil
	}

	winner, primary := tikaResult, "tika"
	if len(ocrResult.Text) > len(tikaResult.Text) {
		winner, primary = ocrResult, "ocr"
	}
	winner.Method = domain.MethodHybrid
	winner.Metadata["primary"] = primary
	return winner, nil
}

func (e *Extractor) runLocal(ctx context.Context, path string, ft domain.FileType) (*domain.ExtractionResult, error) {
	text, confidence, err := e.local.Read(ctx, path, ft)
	if err != nil {
		return nil, err
	}
	return &domain.ExtractionResult{
		Text:       text,
		Confidence: confidence,
		Method:     domain.MethodDirect,
		Metadata:   map[string]any{"local_fallback": true},
	}, nil
}

func acceptAny(*domain.ExtractionResult) bool { return true }

func acceptNonEmpty(result *domain.ExtractionResult) bool {
	return strings.TrimSpace(result.Text) != ""
}

func acceptOCR(result *domain.ExtractionResult) bool {
	return len(result.Text) >= minOCRTextLength
}
