package engine

import (
	"context"
	"time"

	"curve-engine/internal/infrastructure"
	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// maxRiskScore is assigned whenever the gate cannot produce a decision.
	// Uncertainty is always priced as maximum risk, never as an allow.
	maxRiskScore = 100

	internalErrorReason = "Internal error"
	invalidAmountReason = "Invalid trade amount"

	// DefaultGateTimeout bounds the gate call when config does not say
	// otherwise. A gate that misses the deadline is treated as a gate error.
	DefaultGateTimeout = 3 * time.Second
)

// TradeGate is the external anti-manipulation decision service. It is the
// only blocking collaborator in the pipeline and must be substitutable in
// tests.
type TradeGate interface {
	ValidateTradeAttempt(ctx context.Context, attempt model.TradeAttempt) (model.GateDecision, error)
}

// SessionTracker receives the audit side effect after a successful trade.
// Implementations must not block the trade path; failures are logged and
// never roll anything back.
type SessionTracker interface {
	UpdateTradingSession(ctx context.Context, update model.SessionUpdate)
}

// TradeRecorder receives successful trade records for durable audit
// storage. Add must be non-blocking.
type TradeRecorder interface {
	Add(rec model.TradeRecord)
}

// Processor orchestrates one trade: consult the gate, price the buy, mutate
// the curve state, notify the session tracker. Gate denial and gate failure
// are soft outcomes, not errors.
type Processor struct {
	registry    *Registry
	gate        TradeGate
	sessions    SessionTracker
	recorder    TradeRecorder
	policy      model.ClassificationPolicy
	gateTimeout time.Duration
	logger      *zap.Logger
}

func NewProcessor(registry *Registry, gate TradeGate, sessions SessionTracker, policy model.ClassificationPolicy, gateTimeout time.Duration, logger *zap.Logger) *Processor {
	if policy == nil {
		policy = model.DefaultClassificationPolicy()
	}
	if gateTimeout <= 0 {
		gateTimeout = DefaultGateTimeout
	}
	return &Processor{
		registry:    registry,
		gate:        gate,
		sessions:    sessions,
		policy:      policy,
		gateTimeout: gateTimeout,
		logger:      logger,
	}
}

// WithRecorder attaches a durable audit recorder. Optional; the in-memory
// trade log is kept either way.
func (p *Processor) WithRecorder(r TradeRecorder) *Processor {
	p.recorder = r
	return p
}

func deny(reason string, riskScore float64) model.TradeOutcome {
	return model.TradeOutcome{
		Success:        false,
		TokensReceived: decimal.Zero,
		NewPrice:       decimal.Zero,
		RiskScore:      riskScore,
		Reason:         reason,
	}
}

// ProcessTrade runs the full pipeline for one attempt. Every attempt gets a
// definitive outcome; a failed outcome always carries a reason.
func (p *Processor) ProcessTrade(ctx context.Context, attempt model.TradeAttempt) model.TradeOutcome {
	state, err := p.registry.Get(attempt.TokenID)
	if err != nil {
		return deny(err.Error(), 0)
	}

	// Local validation, never consults the gate.
	if attempt.Amount.LessThanOrEqual(decimal.Zero) {
		infrastructure.TradesProcessed.WithLabelValues(attempt.TokenID, "invalid").Inc()
		return deny(invalidAmountReason, 0)
	}

	decision, err := p.consultGate(ctx, attempt)
	if err != nil {
		p.logger.Warn("trade gate unavailable, denying",
			zap.String("token", attempt.TokenID),
			zap.String("user", attempt.UserID),
			zap.Error(err))
		state.recordBlocked()
		infrastructure.BlockedTrades.WithLabelValues(attempt.TokenID).Inc()
		infrastructure.TradesProcessed.WithLabelValues(attempt.TokenID, "error").Inc()
		return deny(internalErrorReason, maxRiskScore)
	}

	if !decision.Allowed {
		state.recordBlocked()
		infrastructure.BlockedTrades.WithLabelValues(attempt.TokenID).Inc()
		infrastructure.TradesProcessed.WithLabelValues(attempt.TokenID, "denied").Inc()
		return deny(decision.Reason, decision.RiskScore)
	}

	class := p.policy.Classify(attempt.VerificationLevel)
	rec, tokens, newPrice, err := state.applyTrade(attempt, class, decision.RiskScore)
	if err != nil {
		// Pricing against a non-positive price would be an invariant break;
		// surface it as an internal failure rather than trading on it.
		p.logger.Error("pricing invariant violated",
			zap.String("token", attempt.TokenID),
			zap.Error(err))
		infrastructure.TradesProcessed.WithLabelValues(attempt.TokenID, "error").Inc()
		return deny(internalErrorReason, maxRiskScore)
	}

	// Side effects only after the state mutation committed, only on allow.
	if p.recorder != nil {
		p.recorder.Add(rec)
	}
	if p.sessions != nil {
		p.sessions.UpdateTradingSession(ctx, model.SessionUpdate{
			UserID:  attempt.UserID,
			TokenID: attempt.TokenID,
			Amount:  attempt.Amount,
			Tokens:  tokens,
			Price:   newPrice,
		})
	}

	infrastructure.TradesProcessed.WithLabelValues(attempt.TokenID, "success").Inc()
	p.logger.Info("trade executed",
		zap.String("token", rec.TokenID),
		zap.String("user", rec.UserID),
		zap.String("amount", rec.Amount.String()),
		zap.String("tokens", tokens.String()),
		zap.String("new_price", newPrice.String()),
		zap.String("classification", string(class)))

	return model.TradeOutcome{
		Success:        true,
		TokensReceived: tokens,
		NewPrice:       newPrice,
		RiskScore:      decision.RiskScore,
	}
}

func (p *Processor) consultGate(ctx context.Context, attempt model.TradeAttempt) (model.GateDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, p.gateTimeout)
	defer cancel()

	start := time.Now()
	decision, err := p.gate.ValidateTradeAttempt(ctx, attempt)
	infrastructure.GateLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return model.GateDecision{}, err
	}
	return decision, nil
}
