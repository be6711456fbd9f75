// Package ocr is the client for the OCR backend. Recognition requests are
// rate limited because OCR capacity is the scarcest resource in the chain.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/dkraev/doc-anonymizer/internal/infrastructure/resilience"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	healthClient *http.Client
	limiter      *rate.Limiter
	executor     *resilience.Executor

	language    string
	pageSegMode int
	engineMode  int
}

type Options struct {
	// Engine options forwarded with every request.
	Language    string
	PageSegMode int
	EngineMode  int

	RequestTimeout     time.Duration
	HealthTimeout      time.Duration
	RequestsPerSecond  float64
	ResilienceExecutor *resilience.Executor
}

const (
	defaultConfidence = 0.7
	minConfidence     = 0.1
)

func New(baseURL string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}
	healthTimeout := options.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	language := options.Language
	if language == "" {
		language = "eng"
	}
	pageSegMode := options.PageSegMode
	if pageSegMode <= 0 {
		pageSegMode = 3
	}
	engineMode := options.EngineMode
	if engineMode <= 0 {
		engineMode = 3
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: requestTimeout},
		healthClient: &http.Client{Timeout: healthTimeout},
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		executor:     options.ResilienceExecutor,
		language:     language,
		pageSegMode:  pageSegMode,
		engineMode:   engineMode,
	}
}

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

// Recognize runs OCR on an image file. The backend answers either
// {"text":..., "confidence":...} or a raw text body; confidence defaults to
// 0.7 and is clamped to [0.1, 1.0].
func (c *Client) Recognize(ctx context.Context, path string) (string, float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("ocr rate limit wait: %w", err)
	}

	fields := map[string]string{
		"lang": c.language,
		"psm":  strconv.Itoa(c.pageSegMode),
		"oem":  strconv.Itoa(c.engineMode),
	}

	var raw []byte
	call := func(callCtx context.Context) error {
		body, err := c.postFile(callCtx, "/ocr", path, fields, "recognize")
		if err != nil {
			return err
		}
		raw = body
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ocr.recognize", call, classifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", 0, wrapUnavailable("recognize", err)
	}
	text, confidence := parseRecognition(raw)
	return text, confidence, nil
}

func parseRecognition(raw []byte) (string, float64) {
	var decoded struct {
		Text       string   `json:"text"`
		Confidence *float64 `json:"confidence"`
	}
	// A body that parses as the structured shape is authoritative, even when
	// its text is empty: falling through would hand the JSON envelope itself
	// to the caller as recognized text.
	if err := json.Unmarshal(raw, &decoded); err == nil {
		confidence := defaultConfidence
		if decoded.Confidence != nil {
			confidence = *decoded.Confidence
		}
		return decoded.Text, clampConfidence(confidence)
	}
	if utf8.Valid(raw) {
		return strings.TrimSpace(string(raw)), defaultConfidence
	}
	return "", defaultConfidence
}

func clampConfidence(c float64) float64 {
	if c < minConfidence {
		return minConfidence
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}
