// Package client is a thin caller for the prediction service's JSON-over-HTTP API.
package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"wine-classifier/internal/common"
	"wine-classifier/internal/features"
	"wine-classifier/internal/serving"
)

type Client struct {
	base string
	rest *resty.Client

	HealthTimeout  time.Duration
	PredictTimeout time.Duration
}

func New(base string) *Client {
	r := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{
		base:           base,
		rest:           r,
		HealthTimeout:  common.DefaultHealthTimeout,
		PredictTimeout: common.DefaultRequestTimeout,
	}
}

// Health calls GET /v1/health.
func (c *Client) Health(ctx context.Context) (serving.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.HealthTimeout)
	defer cancel()

	var out serving.HealthStatus
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&serving.StatusError{}).
		Get(c.base + "/v1/health")
	if err != nil {
		return serving.HealthStatus{}, fmt.Errorf("health request failed: %w", err)
	}
	if resp.IsError() {
		return serving.HealthStatus{}, faultFrom(resp)
	}
	return out, nil
}

// Predict sends values, ordered by name so identical inputs produce identical requests.
// A service fault is returned as *serving.StatusError.
func (c *Client) Predict(ctx context.Context, values map[string]float64) (serving.PredictionResponse, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	req := serving.PredictRequest{Features: make([]features.Entry, 0, len(names))}
	for _, name := range names {
		req.Features = append(req.Features, features.Entry{Name: name, Value: values[name]})
	}

	ctx, cancel := context.WithTimeout(ctx, c.PredictTimeout)
	defer cancel()

	var out serving.PredictionResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&serving.StatusError{}).
		Post(c.base + "/v1/predict")
	if err != nil {
		return serving.PredictionResponse{}, fmt.Errorf("predict request failed: %w", err)
	}
	if resp.IsError() {
		return serving.PredictionResponse{}, faultFrom(resp)
	}
	return out, nil
}

func faultFrom(resp *resty.Response) error {
	if se, ok := resp.Error().(*serving.StatusError); ok && se.Code != "" {
		return se
	}
	return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode(), resp.String())
}
