package outcomes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists emitted signals and appended outcomes in Postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository around an existing pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the signal and outcome tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			direction TEXT NOT NULL,
			tier TEXT NOT NULL,
			entry DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			tp1 DOUBLE PRECISION NOT NULL,
			tp2 DOUBLE PRECISION NOT NULL,
			tp3 DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			risk_reward DOUBLE PRECISION NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS signal_outcomes (
			id BIGSERIAL PRIMARY KEY,
			signal_id TEXT NOT NULL REFERENCES signals(id),
			result TEXT NOT NULL,
			features JSONB,
			recorded_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_signal_outcomes_signal_id
			ON signal_outcomes(signal_id);
	`
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate outcome schema: %w", err)
	}
	return nil
}

// SignalRow is the persisted shape of an emitted signal
type SignalRow struct {
	ID          string
	Symbol      string
	Timeframe   string
	Direction   string
	Tier        string
	Entry       float64
	StopLoss    float64
	TakeProfits [3]float64
	Confidence  float64
	RiskReward  float64
	GeneratedAt time.Time
}

// SaveSignal persists an emitted signal
func (r *Repository) SaveSignal(ctx context.Context, row SignalRow) error {
	query := `
		INSERT INTO signals (
			id, symbol, timeframe, direction, tier,
			entry, stop_loss, tp1, tp2, tp3,
			confidence, risk_reward, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		row.ID, row.Symbol, row.Timeframe, row.Direction, row.Tier,
		row.Entry, row.StopLoss,
		row.TakeProfits[0], row.TakeProfits[1], row.TakeProfits[2],
		row.Confidence, row.RiskReward, row.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save signal %s: %w", row.ID, err)
	}
	return nil
}

// RecordOutcome appends an outcome row for a signal. The signal row itself
// is never updated.
func (r *Repository) RecordOutcome(ctx context.Context, rec Record) error {
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	query := `
		INSERT INTO signal_outcomes (signal_id, result, features, recorded_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, rec.SignalID, string(rec.Result), features, rec.RecordedAt); err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", rec.SignalID, err)
	}
	return nil
}

// ConfidenceBucket aggregates outcomes per confidence band
type ConfidenceBucket struct {
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	TotalSignals  int     `json:"total_signals"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
}

// ConfidenceBuckets aggregates recorded outcomes into 10-point confidence
// bands, for threshold analysis
func (r *Repository) ConfidenceBuckets(ctx context.Context) ([]ConfidenceBucket, error) {
	query := `
		SELECT
			FLOOR(s.confidence / 10) * 10 AS bucket,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE o.result = 'win') AS wins,
			COUNT(*) FILTER (WHERE o.result = 'loss') AS losses
		FROM signal_outcomes o
		JOIN signals s ON s.id = o.signal_id
		GROUP BY bucket
		ORDER BY bucket
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query confidence buckets: %w", err)
	}
	defer rows.Close()

	var buckets []ConfidenceBucket
	for rows.Next() {
		var bucket float64
		var total, wins, losses int
		if err := rows.Scan(&bucket, &total, &wins, &losses); err != nil {
			return nil, fmt.Errorf("failed to scan confidence bucket: %w", err)
		}
		b := ConfidenceBucket{
			MinConfidence: bucket,
			MaxConfidence: bucket + 10,
			TotalSignals:  total,
			Wins:          wins,
			Losses:        losses,
		}
		if wins+losses > 0 {
			b.WinRate = float64(wins) / float64(wins+losses) * 100
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
