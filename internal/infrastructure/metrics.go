package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curve_trades_processed_total",
		Help: "Trade attempts processed, by token and result",
	}, []string{"token", "result"})

	BlockedTrades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curve_trades_blocked_total",
		Help: "Trade attempts refused by the gate",
	}, []string{"token"})

	GateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "trade_gate_latency_seconds",
		Help: "Latency of trade gate decisions",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	DBInsertRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_insert_total",
		Help: "Total number of records inserted into DB",
	}, []string{"table"})
)
