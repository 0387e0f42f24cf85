package engine

import (
	"math"

	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
)

// suspiciousRiskThreshold marks successful trades whose gate score exceeded
// it as suspicious in the dashboard metrics.
const suspiciousRiskThreshold = 70.0

// AntiManipulationMetrics aggregates the trade log into the dashboard view.
// It is derived purely from recorded state; calling it never mutates.
func (s *CurveState) AntiManipulationMetrics() model.AntiManipulationMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := model.AntiManipulationMetrics{
		TokenID:               s.tokenID,
		BlockedTrades:         s.blockedTrades,
		AverageHumanTradeSize: decimal.Zero,
		AverageBotTradeSize:   decimal.Zero,
	}

	humanTotal := decimal.Zero
	botTotal := decimal.Zero
	for _, rec := range s.tradeLog {
		if rec.Classification == model.ClassificationHuman {
			m.HumanTrades++
			humanTotal = humanTotal.Add(rec.Amount)
		} else {
			m.BotTrades++
			botTotal = botTotal.Add(rec.Amount)
		}
		if rec.RiskScore > suspiciousRiskThreshold {
			m.SuspiciousTrades++
		}
	}

	if m.HumanTrades > 0 {
		m.AverageHumanTradeSize = humanTotal.Div(decimal.NewFromInt(int64(m.HumanTrades)))
	}
	if m.BotTrades > 0 {
		m.AverageBotTradeSize = botTotal.Div(decimal.NewFromInt(int64(m.BotTrades)))
	}

	if total := m.HumanTrades + m.BotTrades; total > 0 {
		pct := float64(m.HumanTrades) / float64(total) * 100
		// Two decimals for display stability, e.g. 66.67.
		m.HumanPercentage = math.Round(pct*100) / 100
	}

	return m
}
