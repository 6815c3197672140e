// Package trainer is an HTTP client for the decision tree training service.
//
// The service fits a tree on POST /decision-trees:
//
//	{"parameters": {"criterion": "gini", "max_depth": 3, ...}}
//
// and answers with the evaluation of the new model under "ml_results":
//
//	{"ml_results": {
//	    "class_labels": ["setosa", "versicolor"],
//	    "confusion_matrix": [[50, 0], [1, 49]],
//	    "important_features": [["petal_width", 0.93], ["sepal_length", 0.07]]
//	}}
package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/time/rate"
)

const trainPath = "/decision-trees"

// Client implements ports.Trainer over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each training request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps how often the service is asked to train.
// Requests over the limit wait for a token (or for ctx to end).
func WithRateLimit(every time.Duration, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the service at baseURL (e.g. http://localhost:5000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type trainRequest struct {
	Parameters domain.Hyperparameters `json:"parameters"`
}

type trainResponse struct {
	MLResults map[string]any `json:"ml_results"`
}

// Train fits a tree with params and returns the evaluation summary.
func (c *Client) Train(ctx context.Context, params domain.Hyperparameters) (*domain.TrainingSummary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(trainRequest{Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal training request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trainPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build training request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("training request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var tr trainResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode training response: %w", err)
	}

	summary, err := DecodeSummary(tr.MLResults)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("tree trained",
		"max_depth", params.MaxDepth,
		"min_samples_split", params.MinSamplesSplit,
		"min_samples_leaf", params.MinSamplesLeaf,
		"min_impurity_decrease", params.MinImpurityDecrease,
		"classes", len(summary.ClassLabels),
		"duration", time.Since(start))
	return summary, nil
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("training service returned %d", e.Code)
	}
	return fmt.Sprintf("training service returned %d: %s", e.Code, e.Body)
}

// DecodeSummary converts the "ml_results" object into a TrainingSummary.
// Class labels are stringified; important features are [name, score] pairs.
func DecodeSummary(raw map[string]any) (*domain.TrainingSummary, error) {
	if raw == nil {
		return nil, fmt.Errorf("training response has no ml_results")
	}

	var s domain.TrainingSummary
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode ml_results: %w", err)
	}

	var pairs [][]any
	if err := mapstructure.Decode(raw["important_features"], &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode important_features: %w", err)
	}
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("important_features[%d]: expected [name, score], got %d elements", i, len(p))
		}
		var f domain.FeatureImportance
		if err := mapstructure.WeakDecode(p[0], &f.Feature); err != nil {
			return nil, fmt.Errorf("important_features[%d]: %w", i, err)
		}
		if err := mapstructure.WeakDecode(p[1], &f.Score); err != nil {
			return nil, fmt.Errorf("important_features[%d]: %w", i, err)
		}
		s.ImportantFeatures = append(s.ImportantFeatures, f)
	}
	return &s, nil
}
