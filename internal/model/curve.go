package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CurveConfig is the immutable pricing configuration a token is launched
// with. Validate must pass before a curve is created; the engine assumes a
// valid config everywhere else.
type CurveConfig struct {
	InitialPrice   decimal.Decimal `json:"initial_price" db:"initial_price"`
	MaxPrice       decimal.Decimal `json:"max_price" db:"max_price"`
	PriceIncrement decimal.Decimal `json:"price_increment" db:"price_increment"`
	// HumanOnlyPhase is a reserved policy flag: classification is recorded
	// regardless, rejection of bot trades stays with the gate.
	HumanOnlyPhase bool `json:"human_only_phase" db:"human_only_phase"`
}

func (c CurveConfig) Validate() error {
	if c.InitialPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("initial price must be positive, got %s", c.InitialPrice)
	}
	if c.MaxPrice.LessThan(c.InitialPrice) {
		return fmt.Errorf("max price %s below initial price %s", c.MaxPrice, c.InitialPrice)
	}
	if c.PriceIncrement.IsNegative() {
		return fmt.Errorf("price increment must not be negative, got %s", c.PriceIncrement)
	}
	return nil
}

// CurvePoint is one sampled point of the full curve, used for charting.
type CurvePoint struct {
	Price  decimal.Decimal `json:"price"`
	Supply decimal.Decimal `json:"supply"`
	Raised decimal.Decimal `json:"raised"`
}

// StateSnapshot is a read-only view of one token's trading state at a point
// in time. Percentages are display figures, not money.
type StateSnapshot struct {
	TokenID          string          `json:"token_id"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	TotalSupply      decimal.Decimal `json:"total_supply"`
	TotalRaised      decimal.Decimal `json:"total_raised"`
	HumanTradeCount  int             `json:"human_trade_count"`
	BotTradeCount    int             `json:"bot_trade_count"`
	HumanPercentage  float64         `json:"human_percentage"`
	BotPercentage    float64         `json:"bot_percentage"`
	AverageTradeSize decimal.Decimal `json:"average_trade_size"`
	TradesPerMinute  int             `json:"trades_per_minute"`
	TakenAt          time.Time       `json:"taken_at"`
}

// AntiManipulationMetrics aggregates the trade log for the launch dashboard.
type AntiManipulationMetrics struct {
	TokenID               string          `json:"token_id"`
	HumanTrades           int             `json:"human_trades"`
	BotTrades             int             `json:"bot_trades"`
	AverageHumanTradeSize decimal.Decimal `json:"average_human_trade_size"`
	AverageBotTradeSize   decimal.Decimal `json:"average_bot_trade_size"`
	SuspiciousTrades      int             `json:"suspicious_trades"`
	BlockedTrades         int             `json:"blocked_trades"`
	HumanPercentage       float64         `json:"human_percentage"`
}
