package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

// Client calls the remote price/demand/yield prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, breaker *util.CircuitBreaker, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// Predict runs one prediction. Calls are refused while the breaker is open.
func (c *Client) Predict(ctx context.Context, kind domain.ActionType, req PredictRequest) (*domain.PredictionResult, error) {
	path, ok := endpointFor(kind)
	if !ok {
		return nil, errors.NewValidationError("unsupported prediction kind", "kind", kind.String())
	}

	if c.breaker != nil && !c.breaker.CanExecute() {
		return nil, errors.NewAPIError("prediction service unavailable", http.StatusServiceUnavailable, map[string]any{
			"breaker": c.breaker.Status().State.String(),
		})
	}

	var resp PredictResponse
	err := c.doRequest(ctx, http.MethodPost, path, req, &resp)
	c.record(err)
	if err != nil {
		c.logger.Error("Prediction request failed",
			zap.String("kind", kind.String()),
			zap.String("crop", req.Crop),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.PredictionResult{
		Kind:       kind,
		Crop:       req.Crop,
		Market:     req.Market,
		Timeframe:  req.Timeframe,
		Value:      resp.Prediction,
		Unit:       resp.Unit,
		Confidence: util.Clamp01(resp.Confidence),
		Factors:    resp.Factors,
	}, nil
}

func (c *Client) Ping(ctx context.Context) bool {
	var health HealthResponse
	return c.doRequest(ctx, http.MethodGet, "/health", nil, &health) == nil
}

// record feeds the breaker. Client errors (4xx) say nothing about the
// service's health and are ignored.
func (c *Client) record(err error) {
	if c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if apiErr, ok := err.(*errors.APIError); ok && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return
	}
	c.breaker.RecordFailure()
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 502, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewAPIError(
			fmt.Sprintf("prediction API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"url":  url,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 502, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}
