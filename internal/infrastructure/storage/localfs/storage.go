// Package localfs owns the on-disk layout for anonymized output and the
// cross-service path-resolution contract: relative source paths are resolved
// against a shared project root.
package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

type Store struct {
	projectRoot string
	outputDir   string
	now         func() time.Time
	newSuffix   func() string
}

func New(projectRoot, outputDir string) (*Store, error) {
	if projectRoot == "" {
		projectRoot = "."
	}
	if outputDir == "" {
		outputDir = "./data/anonymized"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{
		projectRoot: projectRoot,
		outputDir:   outputDir,
		now:         time.Now,
		newSuffix:   shortID,
	}, nil
}

// ResolveSource turns a relative source path into an absolute one against
// the project root. Absolute paths pass through untouched.
func (s *Store) ResolveSource(path string) (string, error) {
	if path == "" {
		return "", domain.WrapError(domain.ErrValidation, "resolve source path", fmt.Errorf("empty path"))
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	abs, err := filepath.Abs(filepath.Join(s.projectRoot, path))
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	return abs, nil
}

// OutputPath keys output files by dataset id, timestamp and a random suffix.
// The suffix matters when the queue redelivers a job within the same second.
func (s *Store) OutputPath(datasetID, extension string) string {
	name := fmt.Sprintf("%s_%s_%s_anonymized.%s", datasetID, s.now().UTC().Format("20060102T150405"), s.newSuffix(), extension)
	return filepath.Join(s.outputDir, name)
}

func shortID() string {
	return uuid.NewString()[:8]
}

func (s *Store) Write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.WrapError(domain.ErrOutputWrite, "write output file", err)
	}
	return nil
}

// Copy duplicates a file byte-for-byte and returns the copied size.
func (s *Store) Copy(sourcePath, outputPath string) (int64, error) {
	in, err := os.Open(sourcePath)
	if err != nil {
		return 0, domain.WrapError(domain.ErrOutputWrite, "open copy source", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, domain.WrapError(domain.ErrOutputWrite, "create copy target", err)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, domain.WrapError(domain.ErrOutputWrite, "copy file", err)
	}
	if err := out.Sync(); err != nil {
		return 0, domain.WrapError(domain.ErrOutputWrite, "sync copy target", err)
	}
	return n, nil
}
