// Package engine owns the mutable trading state of launched tokens and the
// trade-processing pipeline that is the only writer to it.
package engine

import (
	"sync"
	"time"

	"curve-engine/internal/curve"
	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
)

// rateWindow is the trailing window for the trades-per-minute statistic.
const rateWindow = time.Minute

// CurveState is the trading record of one token. All mutation goes through
// the processor while holding mu; price, supply and raised only ever grow.
// The trade log is append-only: windowed statistics filter it on read, the
// audit trail is never pruned.
type CurveState struct {
	mu sync.Mutex

	tokenID string
	cfg     model.CurveConfig

	currentPrice decimal.Decimal
	totalSupply  decimal.Decimal
	totalRaised  decimal.Decimal

	humanTradeCount int
	botTradeCount   int
	blockedTrades   int

	tradeLog []model.TradeRecord
}

func NewCurveState(tokenID string, cfg model.CurveConfig) *CurveState {
	return &CurveState{
		tokenID:      tokenID,
		cfg:          cfg,
		currentPrice: cfg.InitialPrice,
		totalSupply:  decimal.Zero,
		totalRaised:  decimal.Zero,
	}
}

func (s *CurveState) TokenID() string { return s.tokenID }

func (s *CurveState) Config() model.CurveConfig { return s.cfg }

// applyTrade runs the pricing critical section: price against the pre-trade
// state, advance it, append the audit record. Called with the gate decision
// already in hand; mu serializes trades per token.
func (s *CurveState) applyTrade(attempt model.TradeAttempt, class model.Classification, riskScore float64) (model.TradeRecord, decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	priceAtTrade := s.currentPrice
	tokens, err := curve.TokensFor(attempt.Amount, priceAtTrade)
	if err != nil {
		return model.TradeRecord{}, decimal.Zero, decimal.Zero, err
	}

	newSupply := s.totalSupply.Add(tokens)
	newPrice := curve.NextPrice(priceAtTrade, newSupply, s.cfg)

	ts := attempt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := model.TradeRecord{
		UserID:         attempt.UserID,
		TokenID:        s.tokenID,
		Side:           "buy",
		Amount:         attempt.Amount,
		TokensReceived: tokens,
		Price:          priceAtTrade,
		Classification: class,
		RiskScore:      riskScore,
		Timestamp:      ts,
	}

	s.currentPrice = newPrice
	s.totalSupply = newSupply
	s.totalRaised = s.totalRaised.Add(attempt.Amount)
	s.tradeLog = append(s.tradeLog, rec)
	if class == model.ClassificationHuman {
		s.humanTradeCount++
	} else {
		s.botTradeCount++
	}

	return rec, tokens, newPrice, nil
}

// recordBlocked counts a gate refusal. Blocked attempts never touch price,
// supply or the trade counters.
func (s *CurveState) recordBlocked() {
	s.mu.Lock()
	s.blockedTrades++
	s.mu.Unlock()
}

// Snapshot computes the read-only state view as of now.
func (s *CurveState) Snapshot(now time.Time) model.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.humanTradeCount + s.botTradeCount
	var humanPct float64
	avgSize := decimal.Zero
	if total > 0 {
		humanPct = float64(s.humanTradeCount) / float64(total) * 100
		avgSize = s.totalRaised.Div(decimal.NewFromInt(int64(total)))
	}
	botPct := float64(0)
	if total > 0 {
		botPct = 100 - humanPct
	}

	// Full scan: records carry caller-supplied timestamps, so the log is
	// not guaranteed to be time-ordered.
	cutoff := now.Add(-rateWindow)
	perMinute := 0
	for _, rec := range s.tradeLog {
		if rec.Timestamp.After(cutoff) {
			perMinute++
		}
	}

	return model.StateSnapshot{
		TokenID:          s.tokenID,
		CurrentPrice:     s.currentPrice,
		TotalSupply:      s.totalSupply,
		TotalRaised:      s.totalRaised,
		HumanTradeCount:  s.humanTradeCount,
		BotTradeCount:    s.botTradeCount,
		HumanPercentage:  humanPct,
		BotPercentage:    botPct,
		AverageTradeSize: avgSize,
		TradesPerMinute:  perMinute,
		TakenAt:          now,
	}
}

// Simulate prices a hypothetical trade against the current position without
// mutating anything.
func (s *CurveState) Simulate(amount decimal.Decimal) (model.Quote, error) {
	s.mu.Lock()
	price := s.currentPrice
	supply := s.totalSupply
	s.mu.Unlock()
	return curve.Simulate(s.cfg, price, supply, amount)
}

// TradeLog returns a copy of the full audit trail.
func (s *CurveState) TradeLog() []model.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TradeRecord, len(s.tradeLog))
	copy(out, s.tradeLog)
	return out
}
