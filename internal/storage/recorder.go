// Package storage persists trade audit records to Postgres in batches.
package storage

import (
	"context"
	"time"

	"curve-engine/internal/infrastructure"
	"curve-engine/internal/model"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// BatchSender executes a queued batch. *pgxpool.Pool satisfies it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// BatchRecorder buffers trade records and writes them on a ticker or when
// the buffer fills, whichever comes first. Add never blocks the trade path:
// if the buffer channel is full the record is dropped with a warning (the
// in-memory trade log still has it).
type BatchRecorder struct {
	db        BatchSender
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
	in        chan model.TradeRecord
	done      chan struct{}
}

func NewBatchRecorder(db BatchSender, logger *zap.Logger, interval time.Duration, batchSize int) *BatchRecorder {
	r := &BatchRecorder{
		db:        db,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		in:        make(chan model.TradeRecord, batchSize*4),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// Add implements engine.TradeRecorder.
func (r *BatchRecorder) Add(rec model.TradeRecord) {
	select {
	case r.in <- rec:
	default:
		r.logger.Warn("trade recorder buffer full, dropping record",
			zap.String("token", rec.TokenID))
	}
}

// Close flushes whatever is buffered and stops the background loop.
func (r *BatchRecorder) Close() {
	close(r.in)
	<-r.done
}

func (r *BatchRecorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	buf := make([]model.TradeRecord, 0, r.batchSize)
	for {
		select {
		case rec, ok := <-r.in:
			if !ok {
				r.flush(buf)
				return
			}
			buf = append(buf, rec)
			if len(buf) >= r.batchSize {
				r.flush(buf)
				buf = buf[:0]
			}
		case <-ticker.C:
			if len(buf) > 0 {
				r.flush(buf)
				buf = buf[:0]
			}
		}
	}
}

func (r *BatchRecorder) flush(records []model.TradeRecord) {
	if len(records) == 0 {
		return
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO curve_trades (user_id, token_id, side, amount, tokens_received, price, classification, risk_score, time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.UserID, rec.TokenID, rec.Side, rec.Amount, rec.TokensReceived,
			rec.Price, string(rec.Classification), rec.RiskScore, rec.Timestamp)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			r.logger.Error("failed to insert trade record", zap.Error(err))
		}
	}
	infrastructure.DBInsertRate.WithLabelValues("curve_trades").Add(float64(len(records)))
}

// History loads the most recent persisted trades for a token.
func History(ctx context.Context, db *pgxpool.Pool, tokenID string, limit int) ([]model.TradeRecord, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id, token_id, side, amount, tokens_received, price, classification, risk_score, time
		FROM curve_trades
		WHERE token_id = $1
		ORDER BY time DESC
		LIMIT $2`,
		tokenID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.TradeRecord, 0, limit)
	for rows.Next() {
		var rec model.TradeRecord
		var class string
		if err := rows.Scan(&rec.UserID, &rec.TokenID, &rec.Side, &rec.Amount,
			&rec.TokensReceived, &rec.Price, &class, &rec.RiskScore, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Classification = model.Classification(class)
		records = append(records, rec)
	}
	return records, rows.Err()
}
