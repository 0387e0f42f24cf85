// Package curve implements the deterministic bonding-curve pricing model.
// Everything here is pure decimal arithmetic on an immutable config;
// mutation lives in the engine package.
package curve

import (
	"fmt"

	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ErrNonPositivePrice is returned when pricing is attempted against a price
// at or below zero. The engine's invariants keep price above zero, so
// hitting this outside tests is a programming error.
var ErrNonPositivePrice = fmt.Errorf("price at trade must be positive")

// TokensFor returns the tokens received for spending amount at the given
// pre-trade price.
func TokensFor(amount, priceAtTrade decimal.Decimal) (decimal.Decimal, error) {
	if priceAtTrade.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNonPositivePrice
	}
	return amount.Div(priceAtTrade), nil
}

// NextPrice advances the curve after a trade. Price responds to cumulative
// supply, not to the single trade size, and is clamped at the configured cap
// (the clamp is policy, not an error).
func NextPrice(currentPrice, totalSupplyAfter decimal.Decimal, cfg model.CurveConfig) decimal.Decimal {
	next := currentPrice.Add(totalSupplyAfter.Mul(cfg.PriceIncrement))
	if next.GreaterThan(cfg.MaxPrice) {
		return cfg.MaxPrice
	}
	return next
}

// Simulate prices a hypothetical buy against the given curve position
// without touching any state.
func Simulate(cfg model.CurveConfig, currentPrice, totalSupply, amount decimal.Decimal) (model.Quote, error) {
	tokens, err := TokensFor(amount, currentPrice)
	if err != nil {
		return model.Quote{}, err
	}
	newPrice := NextPrice(currentPrice, totalSupply.Add(tokens), cfg)
	impact := newPrice.Sub(currentPrice).Div(currentPrice).Mul(hundred)
	return model.Quote{
		TokensReceived: tokens,
		NewPrice:       newPrice,
		PriceImpact:    impact,
	}, nil
}
