package grading

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultGradingTimeout = 20 * time.Second

// fallbackResult is returned whenever the speech service cannot produce a
// grade. The pupil sees the feedback and keeps their current scores; a
// zero-accuracy attempt never lowers a stored score.
var fallbackResult = Result{
	Transcription: "",
	Feedback:      "Có lỗi khi chấm điểm. Vui lòng thử lại.",
	Accuracy:      0,
}

// HTTPClient is an Analyzer backed by the speech grading service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient creates a client for the grading service at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultGradingTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// gradeRequest is the request body for the grading service.
type gradeRequest struct {
	ExpectedText string `json:"expectedText"`
	AudioBase64  string `json:"audioBase64"`
	MIMEType     string `json:"mimeType"`
}

// Analyze sends the recording to the grading service. Any failure, from
// transport errors to malformed responses, yields the fallback result.
func (c *HTTPClient) Analyze(ctx context.Context, req Request) Result {
	res, err := c.analyze(ctx, req)
	if err != nil {
		c.logger.Warn("grading degraded to fallback", "error", err)
		return fallbackResult
	}
	return res
}

func (c *HTTPClient) analyze(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(gradeRequest{
		ExpectedText: req.ExpectedText,
		AudioBase64:  base64.StdEncoding.EncodeToString(req.Audio),
		MIMEType:     req.MIMEType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/grade", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("grading service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var res Result
	if err := json.Unmarshal(respBody, &res); err != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if res.Accuracy < 0 || res.Accuracy > 100 {
		return Result{}, fmt.Errorf("accuracy %d out of range", res.Accuracy)
	}
	return res, nil
}
