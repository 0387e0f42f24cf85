// Package gate provides the client for the external anti-manipulation
// decision service. The engine only ever sees the TradeGate interface; this
// is the production implementation.
package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"curve-engine/internal/model"
	"curve-engine/internal/ratelimit"

	"go.uber.org/zap"
)

// HTTPGate calls the risk service over HTTP. Outbound calls go through a
// sliding-window limiter so a burst of launches cannot exhaust the
// collaborator's quota. Any transport failure, non-200 status or undecodable
// body surfaces as an error; the processor maps all of them to a
// maximum-risk deny.
type HTTPGate struct {
	url     string
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewHTTPGate(url string, limiter *ratelimit.Limiter, logger *zap.Logger) *HTTPGate {
	return &HTTPGate{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
	}
}

func (g *HTTPGate) ValidateTradeAttempt(ctx context.Context, attempt model.TradeAttempt) (model.GateDecision, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return model.GateDecision{}, fmt.Errorf("gate rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(attempt)
	if err != nil {
		return model.GateDecision{}, fmt.Errorf("marshal attempt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return model.GateDecision{}, fmt.Errorf("build gate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return model.GateDecision{}, fmt.Errorf("gate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GateDecision{}, fmt.Errorf("gate returned HTTP %d", resp.StatusCode)
	}

	var decision model.GateDecision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return model.GateDecision{}, fmt.Errorf("decode gate response: %w", err)
	}

	g.logger.Debug("gate decision",
		zap.String("token", attempt.TokenID),
		zap.Bool("allowed", decision.Allowed),
		zap.Float64("risk_score", decision.RiskScore))

	return decision, nil
}
