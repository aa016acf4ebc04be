package gates

import (
	"time"

	"smc-signal-engine/internal/market"
)

// RecentSignal is the minimal record of a previously emitted signal used
// for duplicate and cooldown checks
type RecentSignal struct {
	Symbol    string           `json:"symbol"`
	Direction market.Direction `json:"direction"`
	EmittedAt time.Time        `json:"emitted_at"`
}

// SystemState captures system-level validity for the entry gate
type SystemState struct {
	Operational  bool `json:"operational"`
	MarketHalted bool `json:"market_halted"`
	Illiquid     bool `json:"illiquid"`
}

// ExecutionState captures downstream execution readiness for the
// eligibility gate
type ExecutionState struct {
	Ready            bool `json:"ready"`
	SymbolLocked     bool `json:"symbol_locked"`
	OpenPositions    int  `json:"open_positions"`
	MaxOpenPositions int  `json:"max_open_positions"`
	EmergencyHalt    bool `json:"emergency_halt"`
}

// RiskSnapshot is the portfolio collaborator's open-risk metrics, consumed
// read-only by the risk admission gate. Fields are pointers so that a
// missing value is distinguishable from zero: missing is always a block,
// never a pass-by-default.
type RiskSnapshot struct {
	SignalRiskPct        *float64 `json:"signal_risk_pct"`
	TotalOpenRiskPct     *float64 `json:"total_open_risk_pct"`
	SymbolExposurePct    *float64 `json:"symbol_exposure_pct"`
	DirectionExposurePct *float64 `json:"direction_exposure_pct"`
	DailyLossPct         *float64 `json:"daily_loss_pct"`
}

// Context is the immutable input every gate evaluates against. Gates never
// mutate it; re-running the pipeline on the same context yields the same
// outcome.
type Context struct {
	Symbol         string           `json:"symbol"`
	Direction      market.Direction `json:"direction"`
	Tier           market.Tier      `json:"tier"`
	Confidence     float64          `json:"confidence"`
	EvaluationTime time.Time        `json:"evaluation_time"`

	System    SystemState    `json:"system"`
	Recent    []RecentSignal `json:"recent,omitempty"`
	Execution ExecutionState `json:"execution"`
	Risk      RiskSnapshot   `json:"risk"`
}
