// Package tika is the client for the document-conversion backend: file in,
// plain text out, metadata best-effort.
package tika

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	healthClient *http.Client
	executor     *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	HealthTimeout      time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}
	healthTimeout := options.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: requestTimeout},
		healthClient: &http.Client{Timeout: healthTimeout},
		executor:     options.ResilienceExecutor,
	}
}

// Health is an advisory probe. A healthy answer does not guarantee the next
// call succeeds, so callers keep their fallback chain armed either way.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return wrapUnavailable("health", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return wrapUnavailable("health", newStatusError("health", resp))
	}
	return nil
}

// ExtractText converts the file to plain text.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	var text string
	call := func(callCtx context.Context) error {
		body, err := c.postFile(callCtx, "/extract", path, "text/plain", "extract")
		if err != nil {
			return err
		}
		text = string(body)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "tika.extract", call, classifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapUnavailable("extract", err)
	}
	return text, nil
}

// ExtractMetadata fetches document metadata. Best-effort only, callers
// swallow the error.
func (c *Client) ExtractMetadata(ctx context.Context, path string) (map[string]string, error) {
	body, err := c.postFile(ctx, "/metadata", path, "application/json", "metadata")
	if err != nil {
		return nil, wrapUnavailable("metadata", err)
	}
	return parseMetadata(body)
}
