package engine

import (
	"testing"

	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	reg := NewRegistry()

	created, err := reg.Create("tok", launchConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := reg.Get("tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatal("Get returned a different state instance")
	}
}

func TestRegistry_DuplicateLaunch(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Create("tok", launchConfig()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := reg.Create("tok", launchConfig()); err == nil {
		t.Fatal("expected duplicate launch to be rejected")
	}
}

func TestRegistry_InvalidConfig(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		cfg  model.CurveConfig
	}{
		{"zero initial price", model.CurveConfig{
			InitialPrice: decimal.Zero,
			MaxPrice:     decimal.NewFromInt(1),
		}},
		{"max below initial", model.CurveConfig{
			InitialPrice: decimal.NewFromInt(2),
			MaxPrice:     decimal.NewFromInt(1),
		}},
		{"negative increment", model.CurveConfig{
			InitialPrice:   decimal.NewFromInt(1),
			MaxPrice:       decimal.NewFromInt(2),
			PriceIncrement: decimal.NewFromInt(-1),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reg.Create("tok-"+tt.name, tt.cfg); err == nil {
				t.Fatal("expected config validation to fail")
			}
		})
	}
}

func TestRegistry_UnknownToken(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
