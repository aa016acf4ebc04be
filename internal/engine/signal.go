package engine

import (
	"time"

	"github.com/google/uuid"

	"smc-signal-engine/internal/bias"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/zones"
)

// signalNamespace scopes deterministic signal IDs
var signalNamespace = uuid.MustParse("7f1c3c2e-9a44-4d8b-b1f0-5e2a6d9c4b31")

// Signal is the terminal, immutable pipeline output. It is created only by
// the emitter after every gate passes and is never mutated afterward;
// outcomes append separate records keyed by ID.
type Signal struct {
	ID          string           `json:"id"`
	Symbol      string           `json:"symbol"`
	Timeframe   string           `json:"timeframe"`
	Direction   market.Direction `json:"direction"`
	Tier        market.Tier      `json:"tier"`
	Entry       float64          `json:"entry"`
	StopLoss    float64          `json:"stop_loss"`
	TakeProfits [3]float64       `json:"take_profits"`
	Confidence  float64          `json:"confidence"`
	RiskReward  float64          `json:"risk_reward"`
	Bias        bias.Context     `json:"bias"`
	Zones       zones.ScanResult `json:"zones"`
	Reasoning   []string         `json:"reasoning"`
	Warnings    []string         `json:"warnings,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// signalID derives a deterministic identity from the evaluation inputs, so
// identical candle input and config reproduce the identical signal,
// ID included.
func signalID(symbol, timeframe string, dir market.Direction, closeTime int64) string {
	seed := symbol + "|" + timeframe + "|" + string(dir) + "|" + time.UnixMilli(closeTime).UTC().Format(time.RFC3339)
	return uuid.NewSHA1(signalNamespace, []byte(seed)).String()
}
