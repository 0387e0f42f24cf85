package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationLevel is the identity proof a trader presented.
type VerificationLevel string

const (
	VerificationOrb    VerificationLevel = "orb"
	VerificationPhone  VerificationLevel = "phone"
	VerificationDevice VerificationLevel = "device"
	VerificationNone   VerificationLevel = "none"
)

// Classification is the human/bot label derived from the verification
// level. It only feeds metrics, never pricing.
type Classification string

const (
	ClassificationHuman Classification = "human"
	ClassificationBot   Classification = "bot"
)

// ClassificationPolicy maps verification levels to classifications. The
// mapping is injected at engine construction so product can change it
// without touching the processor.
type ClassificationPolicy map[VerificationLevel]Classification

// DefaultClassificationPolicy returns the inherited mapping: orb and phone
// verification count as human, device and none as bot.
func DefaultClassificationPolicy() ClassificationPolicy {
	return ClassificationPolicy{
		VerificationOrb:    ClassificationHuman,
		VerificationPhone:  ClassificationHuman,
		VerificationDevice: ClassificationBot,
		VerificationNone:   ClassificationBot,
	}
}

// Classify resolves a level against the policy. Unknown levels fall back to
// bot, the conservative bucket.
func (p ClassificationPolicy) Classify(level VerificationLevel) Classification {
	if c, ok := p[level]; ok {
		return c
	}
	return ClassificationBot
}

// TradeAttempt is a single buy request entering the processor.
type TradeAttempt struct {
	UserID            string            `json:"user_id"`
	TokenID           string            `json:"token_id"`
	Amount            decimal.Decimal   `json:"amount"`
	VerificationLevel VerificationLevel `json:"verification_level"`
	ReputationScore   decimal.Decimal   `json:"reputation_score"`
	Timestamp         time.Time         `json:"timestamp"`
}

// TradeRecord is the immutable audit entry appended for every successful
// trade. Side is always "buy" while sells stay off-curve.
type TradeRecord struct {
	UserID         string          `json:"user_id" db:"user_id"`
	TokenID        string          `json:"token_id" db:"token_id"`
	Side           string          `json:"side" db:"side"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	TokensReceived decimal.Decimal `json:"tokens_received" db:"tokens_received"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Classification Classification  `json:"classification" db:"classification"`
	RiskScore      float64         `json:"risk_score" db:"risk_score"`
	Timestamp      time.Time       `json:"timestamp" db:"time"`
}

// TradeOutcome is the definitive answer for one processed attempt. Reason is
// non-empty exactly when Success is false.
type TradeOutcome struct {
	Success        bool            `json:"success"`
	TokensReceived decimal.Decimal `json:"tokens_received"`
	NewPrice       decimal.Decimal `json:"new_price"`
	RiskScore      float64         `json:"risk_score"`
	Reason         string          `json:"reason,omitempty"`
}

// GateDecision is what the external trade gate returns for an attempt.
type GateDecision struct {
	Allowed   bool    `json:"allowed"`
	Reason    string  `json:"reason,omitempty"`
	RiskScore float64 `json:"risk_score"`
}

// SessionUpdate is the fire-and-forget audit payload emitted after a
// successful trade.
type SessionUpdate struct {
	UserID  string          `json:"user_id"`
	TokenID string          `json:"token_id"`
	Amount  decimal.Decimal `json:"amount"`
	Tokens  decimal.Decimal `json:"tokens"`
	Price   decimal.Decimal `json:"price"`
}

// Quote is a simulated trade against the current curve position, no state
// touched. PriceImpact is the relative move in percent.
type Quote struct {
	TokensReceived decimal.Decimal `json:"tokens_received"`
	NewPrice       decimal.Decimal `json:"new_price"`
	PriceImpact    decimal.Decimal `json:"price_impact"`
}
