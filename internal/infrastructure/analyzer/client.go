// Package analyzer is the client for the external anonymization backend. It
// receives text plus entity spans and operator configuration and returns the
// rewritten text with an operation ledger.
package analyzer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
)

// conflictResolution collapses overlapping spans into a single operation so
// the ledger never double-counts nested findings.
const conflictResolution = "merge_similar_or_contained"

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		executor:   options.ResilienceExecutor,
	}
}

type analyzerResult struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

type anonymizeRequest struct {
	Text               string                     `json:"text"`
	AnalyzerResults    []analyzerResult           `json:"analyzer_results"`
	Anonymizers        map[string]domain.Operator `json:"anonymizers"`
	ConflictResolution string                     `json:"conflict_resolution"`
}

type anonymizeResponse struct {
	Text  string `json:"text"`
	Items []struct {
		EntityType string `json:"entity_type"`
		Start      int    `json:"start"`
		End        int    `json:"end"`
		Operator   string `json:"operator"`
	} `json:"items"`
}

func (c *Client) Anonymize(
	ctx context.Context,
	text string,
	findings []domain.Finding,
	operators map[string]domain.Operator,
) (*domain.AnonymizationResult, error) {
	request := anonymizeRequest{
		Text:               text,
		AnalyzerResults:    make([]analyzerResult, 0, len(findings)),
		Anonymizers:        operators,
		ConflictResolution: conflictResolution,
	}
	for _, f := range findings {
		request.AnalyzerResults = append(request.AnalyzerResults, analyzerResult{
			EntityType: f.EntityType,
			Start:      f.Start,
			End:        f.End,
			Score:      f.Confidence,
		})
	}

	var response anonymizeResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/anonymize", request, &response, "anonymize")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "analyzer.anonymize", call, classifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapUnavailable("anonymize", err)
	}

	result := &domain.AnonymizationResult{
		Text:       response.Text,
		Operations: make([]domain.AppliedOperation, 0, len(response.Items)),
	}
	for _, item := range response.Items {
		result.Operations = append(result.Operations, domain.AppliedOperation{
			EntityType: item.EntityType,
			Start:      item.Start,
			End:        item.End,
			Operator:   domain.OperatorType(item.Operator),
		})
	}
	return result, nil
}
