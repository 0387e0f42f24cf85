// Package session forwards trading-session audit updates to downstream
// consumers over NATS JetStream. Delivery is fire-and-forget: a publish
// failure is logged, never propagated into the trade path.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"curve-engine/internal/model"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NATSTracker struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

func NewNATSTracker(js nats.JetStreamContext, logger *zap.Logger) *NATSTracker {
	return &NATSTracker{js: js, logger: logger}
}

func (t *NATSTracker) UpdateTradingSession(ctx context.Context, update model.SessionUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		t.logger.Error("failed to marshal session update", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("curve.sessions.%s", update.TokenID)
	if _, err := t.js.Publish(subject, data); err != nil {
		t.logger.Error("failed to publish session update",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
