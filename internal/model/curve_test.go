package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurveConfig_Validate(t *testing.T) {
	valid := CurveConfig{
		InitialPrice:   decimal.RequireFromString("0.0001"),
		MaxPrice:       decimal.RequireFromString("0.01"),
		PriceIncrement: decimal.RequireFromString("0.000001"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	// Max equal to initial is allowed; zero increment is allowed.
	flat := CurveConfig{
		InitialPrice: decimal.NewFromInt(1),
		MaxPrice:     decimal.NewFromInt(1),
	}
	if err := flat.Validate(); err != nil {
		t.Fatalf("flat config rejected: %v", err)
	}

	bad := []CurveConfig{
		{InitialPrice: decimal.Zero, MaxPrice: decimal.NewFromInt(1)},
		{InitialPrice: decimal.NewFromInt(-1), MaxPrice: decimal.NewFromInt(1)},
		{InitialPrice: decimal.NewFromInt(2), MaxPrice: decimal.NewFromInt(1)},
		{InitialPrice: decimal.NewFromInt(1), MaxPrice: decimal.NewFromInt(2), PriceIncrement: decimal.NewFromInt(-1)},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %d should have been rejected", i)
		}
	}
}
