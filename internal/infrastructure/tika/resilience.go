package tika

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "tika status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("tika %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("tika %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
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
		// Server-side trouble counts against the breaker, client mistakes
		// (unsupported format and the like) do not.
		return resilience.ErrorClassification{RecordFailure: statusErr.StatusCode >= 500}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// wrapUnavailable tags backend failures as ErrServiceUnavailable so the
// extraction fallback chain recognizes them as recoverable.
func wrapUnavailable(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrServiceUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrServiceUnavailable, "tika "+operation, err)
}
