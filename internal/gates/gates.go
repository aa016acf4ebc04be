package gates

import (
	"fmt"
	"time"

	"smc-signal-engine/internal/market"
)

// Result is a single gate's verdict
type Result struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Gate is a pure boolean evaluator over the pipeline context
type Gate interface {
	Name() string
	Evaluate(ctx *Context) Result
}

// Config holds gate thresholds and limits
type Config struct {
	OrdinaryThreshold float64 `json:"ordinary_threshold"`
	StrongThreshold   float64 `json:"strong_threshold"`
	CooldownMinutes   int     `json:"cooldown_minutes"`

	MaxSignalRiskPct        float64 `json:"max_signal_risk_pct"`
	MaxTotalOpenRiskPct     float64 `json:"max_total_open_risk_pct"`
	MaxSymbolExposurePct    float64 `json:"max_symbol_exposure_pct"`
	MaxDirectionExposurePct float64 `json:"max_direction_exposure_pct"`
	MaxDailyLossPct         float64 `json:"max_daily_loss_pct"`
}

// DefaultConfig returns the default gate configuration
func DefaultConfig() Config {
	return Config{
		OrdinaryThreshold:       60,
		StrongThreshold:         70,
		CooldownMinutes:         30,
		MaxSignalRiskPct:        1.5,
		MaxTotalOpenRiskPct:     7.0,
		MaxSymbolExposurePct:    3.0,
		MaxDirectionExposurePct: 4.0,
		MaxDailyLossPct:         4.0,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.OrdinaryThreshold <= 0 {
		c.OrdinaryThreshold = def.OrdinaryThreshold
	}
	if c.StrongThreshold <= 0 {
		c.StrongThreshold = def.StrongThreshold
	}
	if c.CooldownMinutes <= 0 {
		c.CooldownMinutes = def.CooldownMinutes
	}
	if c.MaxSignalRiskPct <= 0 {
		c.MaxSignalRiskPct = def.MaxSignalRiskPct
	}
	if c.MaxTotalOpenRiskPct <= 0 {
		c.MaxTotalOpenRiskPct = def.MaxTotalOpenRiskPct
	}
	if c.MaxSymbolExposurePct <= 0 {
		c.MaxSymbolExposurePct = def.MaxSymbolExposurePct
	}
	if c.MaxDirectionExposurePct <= 0 {
		c.MaxDirectionExposurePct = def.MaxDirectionExposurePct
	}
	if c.MaxDailyLossPct <= 0 {
		c.MaxDailyLossPct = def.MaxDailyLossPct
	}
	return c
}

// EntryGate checks system-state validity, duplicate/cooldown collisions
// and basic market admissibility
type EntryGate struct {
	cfg Config
}

func (g *EntryGate) Name() string { return "entry_gating" }

func (g *EntryGate) Evaluate(ctx *Context) Result {
	if !ctx.System.Operational {
		return blocked("system not operational")
	}
	if ctx.System.MarketHalted {
		return blocked("market halted for %s", ctx.Symbol)
	}
	if ctx.System.Illiquid {
		return blocked("market illiquid for %s", ctx.Symbol)
	}

	cooldown := ctx.EvaluationTime.Add(-minutes(g.cfg.CooldownMinutes))
	for _, recent := range ctx.Recent {
		if recent.Symbol != ctx.Symbol || recent.Direction != ctx.Direction {
			continue
		}
		if recent.EmittedAt.After(cooldown) {
			return blocked("duplicate %s %s signal within %dm cooldown",
				ctx.Symbol, ctx.Direction, g.cfg.CooldownMinutes)
		}
	}

	return passed()
}

// ConfidenceGate applies the fixed per-tier thresholds. It is a pure
// comparison; confidence is never soft-adjusted here.
type ConfidenceGate struct {
	cfg Config
}

func (g *ConfidenceGate) Name() string { return "confidence_threshold" }

func (g *ConfidenceGate) Evaluate(ctx *Context) Result {
	threshold := g.cfg.OrdinaryThreshold
	if ctx.Tier == market.TierStrong {
		threshold = g.cfg.StrongThreshold
	}
	if ctx.Confidence < threshold {
		return blocked("confidence %.1f below %s threshold %.0f",
			ctx.Confidence, ctx.Tier, threshold)
	}
	return passed()
}

// ExecutionGate checks downstream execution-system readiness
type ExecutionGate struct {
	cfg Config
}

func (g *ExecutionGate) Name() string { return "execution_eligibility" }

func (g *ExecutionGate) Evaluate(ctx *Context) Result {
	exec := ctx.Execution
	if exec.EmergencyHalt {
		return blocked("emergency halt active")
	}
	if !exec.Ready {
		return blocked("execution system not ready")
	}
	if exec.SymbolLocked {
		return blocked("symbol %s is locked", ctx.Symbol)
	}
	if exec.MaxOpenPositions > 0 && exec.OpenPositions >= exec.MaxOpenPositions {
		return blocked("open position capacity reached (%d/%d)",
			exec.OpenPositions, exec.MaxOpenPositions)
	}
	return passed()
}

// RiskGate applies the five fixed-limit checks in order with short-circuit.
// A missing field in the risk snapshot is treated as exceeding its limit.
type RiskGate struct {
	cfg Config
}

func (g *RiskGate) Name() string { return "risk_admission" }

func (g *RiskGate) Evaluate(ctx *Context) Result {
	checks := []struct {
		name  string
		value *float64
		limit float64
	}{
		{"signal_risk", ctx.Risk.SignalRiskPct, g.cfg.MaxSignalRiskPct},
		{"total_open_risk", ctx.Risk.TotalOpenRiskPct, g.cfg.MaxTotalOpenRiskPct},
		{"symbol_exposure", ctx.Risk.SymbolExposurePct, g.cfg.MaxSymbolExposurePct},
		{"direction_exposure", ctx.Risk.DirectionExposurePct, g.cfg.MaxDirectionExposurePct},
		{"daily_loss", ctx.Risk.DailyLossPct, g.cfg.MaxDailyLossPct},
	}

	for _, check := range checks {
		if check.value == nil {
			return blocked("risk context missing %s", check.name)
		}
		if *check.value > check.limit {
			return blocked("%s %.2f%% exceeds limit %.2f%%",
				check.name, *check.value, check.limit)
		}
	}

	return passed()
}

func passed() Result {
	return Result{Passed: true}
}

func blocked(format string, args ...interface{}) Result {
	return Result{Passed: false, Reason: fmt.Sprintf(format, args...)}
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
