package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paygate/config"
	"paygate/internal/models"
	"paygate/internal/util"

	"go.uber.org/zap"
)

// Analyzer performs the paid analysis action for a consumed order.
type Analyzer interface {
	Analyze(ctx context.Context, order *models.Order) (string, error)
}

// AnalyzerClient calls the external AI analysis endpoint over HTTP.
type AnalyzerClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// NewAnalyzerClient creates an analyzer backed by the configured endpoint.
func NewAnalyzerClient(cfg config.AnalysisConfig) *AnalyzerClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnalyzerClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   util.GetLogger(),
	}
}

type analyzeRequest struct {
	OrderNo  string `json:"order_no"`
	ClientID string `json:"client_id"`
}

// Analyze posts the consumed order to the analysis endpoint and returns the
// raw response body. The gate has already been consumed by the time this
// runs; a failure here does not refund the order.
func (a *AnalyzerClient) Analyze(ctx context.Context, order *models.Order) (string, error) {
	body, err := json.Marshal(analyzeRequest{
		OrderNo:  order.OrderNo,
		ClientID: order.ClientID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read analysis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Analysis endpoint returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("order_no", order.OrderNo))
		return "", fmt.Errorf("analysis endpoint returned status %d", resp.StatusCode)
	}

	return string(respBody), nil
}
