package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
)

func (c *Client) postFile(ctx context.Context, urlPath, filePath string, fields map[string]string, operation string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s input: %w", operation, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("build %s request body: %w", operation, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy %s input: %w", operation, err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write %s field: %w", operation, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize %s request body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+urlPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newStatusError(operation, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return raw, nil
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ocr status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ocr %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ocr %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func newStatusError(operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{RecordFailure: statusErr.StatusCode >= 500}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func wrapUnavailable(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrServiceUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrServiceUnavailable, "ocr "+operation, err)
}
