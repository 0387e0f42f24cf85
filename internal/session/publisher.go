package session

import (
	"encoding/json"
	"fmt"

	"curve-engine/internal/model"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// TradePublisher fans successful trade records out on NATS so the push
// gateway and the persistence service can consume them independently.
type TradePublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

func NewTradePublisher(js nats.JetStreamContext, logger *zap.Logger) *TradePublisher {
	return &TradePublisher{js: js, logger: logger}
}

// Add implements engine.TradeRecorder.
func (p *TradePublisher) Add(rec model.TradeRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		p.logger.Error("failed to marshal trade record", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("curve.trades.%s", rec.TokenID)
	if _, err := p.js.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish trade record",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
