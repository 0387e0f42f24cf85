package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curve-engine/internal/model"
	"curve-engine/internal/ratelimit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testAttempt() model.TradeAttempt {
	return model.TradeAttempt{
		UserID:            "u1",
		TokenID:           "tok",
		Amount:            decimal.NewFromInt(100),
		VerificationLevel: model.VerificationPhone,
		Timestamp:         time.Now(),
	}
}

func TestHTTPGate_Allow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var attempt model.TradeAttempt
		if err := json.NewDecoder(r.Body).Decode(&attempt); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(model.GateDecision{Allowed: true, RiskScore: 20})
	}))
	defer srv.Close()

	g := NewHTTPGate(srv.URL, nil, zap.NewNop())
	decision, err := g.ValidateTradeAttempt(context.Background(), testAttempt())

	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, float64(20), decision.RiskScore)
}

func TestHTTPGate_Deny(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.GateDecision{
			Allowed:   false,
			Reason:    "Insufficient verification level",
			RiskScore: 90,
		})
	}))
	defer srv.Close()

	g := NewHTTPGate(srv.URL, nil, zap.NewNop())
	decision, err := g.ValidateTradeAttempt(context.Background(), testAttempt())

	assert.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Insufficient verification level", decision.Reason)
	assert.Equal(t, float64(90), decision.RiskScore)
}

func TestHTTPGate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGate(srv.URL, nil, zap.NewNop())
	_, err := g.ValidateTradeAttempt(context.Background(), testAttempt())
	assert.Error(t, err)
}

func TestHTTPGate_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	g := NewHTTPGate(srv.URL, nil, zap.NewNop())
	_, err := g.ValidateTradeAttempt(context.Background(), testAttempt())
	assert.Error(t, err)
}

func TestHTTPGate_Unreachable(t *testing.T) {
	g := NewHTTPGate("http://127.0.0.1:1", nil, zap.NewNop())
	_, err := g.ValidateTradeAttempt(context.Background(), testAttempt())
	assert.Error(t, err)
}

func TestHTTPGate_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.GateDecision{Allowed: true})
	}))
	defer srv.Close()

	limiter := ratelimit.New(1, time.Hour)
	g := NewHTTPGate(srv.URL, limiter, zap.NewNop())

	_, err := g.ValidateTradeAttempt(context.Background(), testAttempt())
	assert.NoError(t, err)

	// Quota exhausted: the second call must give up when the context does.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.ValidateTradeAttempt(ctx, testAttempt())
	assert.Error(t, err)
}
