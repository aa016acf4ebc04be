package solver

import (
	"fmt"
	"math"

	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/zones"
)

// InvariantError reports a violated solver invariant after correction
// logic already ran. This is loud by design: it means the solver itself is
// broken, not that the market lacked a valid setup.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "solver invariant violated: " + e.Detail
}

// RiskContext is the solved entry/SL/TP set. RiskReward is always at or
// above the configured floor by the time a RiskContext leaves the solver.
type RiskContext struct {
	Entry             float64    `json:"entry"`
	StopLoss          float64    `json:"stop_loss"`
	TakeProfits       [3]float64 `json:"take_profits"`
	RiskReward        float64    `json:"risk_reward"`
	EntryZone         zones.Zone `json:"-"`
	EntryZoneKind     zones.Kind `json:"entry_zone_kind,omitempty"`
	OutOfOptimalRange bool       `json:"out_of_optimal_range"`
	FallbackEntry     bool       `json:"fallback_entry"`
}

// Config holds solver configuration
type Config struct {
	MinRiskReward     float64 `json:"min_risk_reward"`
	TP2RMultiple      float64 `json:"tp2_r_multiple"`
	TP3RMultiple      float64 `json:"tp3_r_multiple"`
	ATRBufferMult     float64 `json:"atr_buffer_mult"`
	MinSLDistancePct  float64 `json:"min_sl_distance_pct"` // % of price floor
	ZonePushFactor    float64 `json:"zone_push_factor"`    // forced SL push outside zone
	OptimalRangeATRs  float64 `json:"optimal_range_atrs"`  // soft distance limit
	FallbackBufferPct float64 `json:"fallback_buffer_pct"` // entry buffer with no zone
	PoolSnapRange     float64 `json:"pool_snap_range"`     // in R, for TP2/TP3 alignment
}

// DefaultConfig returns the default solver configuration
func DefaultConfig() Config {
	return Config{
		MinRiskReward:     3.0,
		TP2RMultiple:      5.0,
		TP3RMultiple:      8.0,
		ATRBufferMult:     0.5,
		MinSLDistancePct:  0.2,
		ZonePushFactor:    0.002,
		OptimalRangeATRs:  3.0,
		FallbackBufferPct: 0.15,
		PoolSnapRange:     1.0,
	}
}

// Solver computes entry, stop-loss and take-profit levels
type Solver struct {
	cfg Config
}

// NewSolver creates a solver, filling zero config fields with defaults
func NewSolver(cfg Config) *Solver {
	def := DefaultConfig()
	if cfg.MinRiskReward <= 0 {
		cfg.MinRiskReward = def.MinRiskReward
	}
	if cfg.TP2RMultiple <= 0 {
		cfg.TP2RMultiple = def.TP2RMultiple
	}
	if cfg.TP3RMultiple <= 0 {
		cfg.TP3RMultiple = def.TP3RMultiple
	}
	if cfg.ATRBufferMult <= 0 {
		cfg.ATRBufferMult = def.ATRBufferMult
	}
	if cfg.MinSLDistancePct <= 0 {
		cfg.MinSLDistancePct = def.MinSLDistancePct
	}
	if cfg.ZonePushFactor <= 0 {
		cfg.ZonePushFactor = def.ZonePushFactor
	}
	if cfg.OptimalRangeATRs <= 0 {
		cfg.OptimalRangeATRs = def.OptimalRangeATRs
	}
	if cfg.FallbackBufferPct <= 0 {
		cfg.FallbackBufferPct = def.FallbackBufferPct
	}
	if cfg.PoolSnapRange <= 0 {
		cfg.PoolSnapRange = def.PoolSnapRange
	}
	return &Solver{cfg: cfg}
}

// Solve selects an entry zone, validates the stop-loss against the zone
// boundary and solves take-profits under the reward-to-risk floor.
// The returned RiskContext always satisfies RiskReward >= MinRiskReward;
// anything else is an InvariantError.
func (s *Solver) Solve(ctx *market.CandleContext, scan zones.ScanResult, dir market.Direction) (*RiskContext, error) {
	if dir != market.Bullish && dir != market.Bearish {
		return nil, fmt.Errorf("solver requires a directional bias, got %q", dir)
	}

	rc := &RiskContext{}
	price := ctx.CurrentPrice

	entryZone, distance := s.selectEntryZone(scan, dir, price)
	if entryZone != nil {
		rc.EntryZone = entryZone
		rc.EntryZoneKind = entryZone.Kind()
		rc.Entry = zones.Midpoint(entryZone)
		if ctx.ATR > 0 && distance > s.cfg.OptimalRangeATRs*ctx.ATR {
			// Soft constraint: flag and penalize confidence downstream,
			// never discard the signal
			rc.OutOfOptimalRange = true
		}
	} else {
		// No structural zone anywhere: fall back to an entry near price
		rc.FallbackEntry = true
		buffer := price * (s.cfg.FallbackBufferPct / 100)
		if dir == market.Bullish {
			rc.Entry = price - buffer
		} else {
			rc.Entry = price + buffer
		}
	}

	if err := s.solveStopLoss(rc, ctx, dir); err != nil {
		return nil, err
	}

	s.solveTakeProfits(rc, scan, dir)

	// Final recompute from the solved levels; below-floor here means the
	// correction logic itself is broken
	risk := math.Abs(rc.Entry - rc.StopLoss)
	reward := math.Abs(rc.TakeProfits[0] - rc.Entry)
	if risk <= 0 {
		return nil, &InvariantError{Detail: fmt.Sprintf("non-positive risk: entry %.8f sl %.8f", rc.Entry, rc.StopLoss)}
	}
	rc.RiskReward = reward / risk
	if rc.RiskReward < s.cfg.MinRiskReward-1e-9 {
		return nil, &InvariantError{Detail: fmt.Sprintf("risk_reward %.4f below floor %.2f after correction", rc.RiskReward, s.cfg.MinRiskReward)}
	}

	return rc, nil
}

// selectEntryZone quality-ranks the directional zones. Distance from price
// is returned for the soft out-of-range flag, never used to reject.
func (s *Solver) selectEntryZone(scan zones.ScanResult, dir market.Direction, price float64) (zones.Zone, float64) {
	var best zones.Zone
	bestQuality := -1.0
	bestDistance := 0.0

	consider := func(z zones.Zone, quality float64) {
		if z.Bias() != dir {
			return
		}
		if quality > bestQuality {
			best = z
			bestQuality = quality
			bestDistance = math.Abs(price - zones.Midpoint(z))
		}
	}

	for _, z := range scan.OrderBlocks {
		consider(z, z.(zones.OrderBlock).Strength)
	}
	for _, z := range scan.BreakerBlocks {
		consider(z, z.(zones.BreakerBlock).Strength)
	}
	for _, z := range scan.MitigationBlocks {
		consider(z, z.(zones.MitigationBlock).Strength)
	}
	for _, z := range scan.FairValueGaps {
		fvg := z.(zones.FairValueGap)
		if fvg.Filled {
			continue
		}
		consider(z, 50) // unfilled FVGs carry a fixed mid quality
	}
	for _, z := range scan.ImbalanceZones {
		consider(z, 55)
	}

	return best, bestDistance
}

// solveStopLoss places the stop beyond the supporting zone boundary with an
// ATR buffer and a minimum-distance floor, then force-pushes it outside the
// zone if the computation left it inside
func (s *Solver) solveStopLoss(rc *RiskContext, ctx *market.CandleContext, dir market.Direction) error {
	buffer := ctx.ATR * s.cfg.ATRBufferMult
	if floor := rc.Entry * (s.cfg.MinSLDistancePct / 100); buffer < floor {
		buffer = floor
	}

	if rc.EntryZone == nil {
		if dir == market.Bullish {
			rc.StopLoss = rc.Entry - buffer
		} else {
			rc.StopLoss = rc.Entry + buffer
		}
		return nil
	}

	zoneLow, zoneHigh := rc.EntryZone.Bounds()

	if dir == market.Bullish {
		rc.StopLoss = zoneLow - buffer
		if rc.StopLoss >= zoneLow {
			rc.StopLoss = zoneLow * (1 - s.cfg.ZonePushFactor)
		}
		if rc.StopLoss >= zoneLow {
			return &InvariantError{Detail: fmt.Sprintf("bullish SL %.8f not below zone low %.8f after push", rc.StopLoss, zoneLow)}
		}
	} else {
		rc.StopLoss = zoneHigh + buffer
		if rc.StopLoss <= zoneHigh {
			rc.StopLoss = zoneHigh * (1 + s.cfg.ZonePushFactor)
		}
		if rc.StopLoss <= zoneHigh {
			return &InvariantError{Detail: fmt.Sprintf("bearish SL %.8f not above zone high %.8f after push", rc.StopLoss, zoneHigh)}
		}
	}
	return nil
}

// solveTakeProfits sets TP1 from the nearer of the natural opposing target
// and the floor-implied level, recomputing outright from the floor when the
// natural target would undershoot it. TP2/TP3 extend to fixed R multiples,
// snapping to further liquidity pools when one sits close enough.
func (s *Solver) solveTakeProfits(rc *RiskContext, scan zones.ScanResult, dir market.Direction) {
	risk := math.Abs(rc.Entry - rc.StopLoss)
	floorTP := applyR(rc.Entry, risk, s.cfg.MinRiskReward, dir)

	tp1 := floorTP
	if natural, ok := s.nearestOpposingTarget(scan, rc.Entry, dir); ok {
		if math.Abs(natural-rc.Entry) < math.Abs(floorTP-rc.Entry) {
			tp1 = natural
		}
		// Below-floor natural target: recompute outright from the floor
		if math.Abs(tp1-rc.Entry)/risk < s.cfg.MinRiskReward {
			tp1 = floorTP
		}
	}

	tp2 := s.snapToPool(scan, applyR(rc.Entry, risk, s.cfg.TP2RMultiple, dir), risk, dir)
	tp3 := s.snapToPool(scan, applyR(rc.Entry, risk, s.cfg.TP3RMultiple, dir), risk, dir)

	rc.TakeProfits = [3]float64{tp1, tp2, tp3}
}

// nearestOpposingTarget finds the closest liquidity pool or opposing FVG
// beyond the entry in the profit direction
func (s *Solver) nearestOpposingTarget(scan zones.ScanResult, entry float64, dir market.Direction) (float64, bool) {
	best := 0.0
	found := false

	consider := func(level float64) {
		if dir == market.Bullish && level <= entry {
			return
		}
		if dir == market.Bearish && level >= entry {
			return
		}
		if !found || math.Abs(level-entry) < math.Abs(best-entry) {
			best = level
			found = true
		}
	}

	for _, z := range scan.LiquidityPools {
		pool := z.(zones.LiquidityPool)
		if dir == market.Bullish && pool.Side == zones.PoolAboveHighs {
			consider(pool.Price)
		}
		if dir == market.Bearish && pool.Side == zones.PoolBelowLows {
			consider(pool.Price)
		}
	}
	for _, z := range scan.FairValueGaps {
		fvg := z.(zones.FairValueGap)
		if fvg.Filled || fvg.Direction != dir.Opposite() {
			continue
		}
		consider(zones.Midpoint(z))
	}

	return best, found
}

// snapToPool aligns a TP level to a nearby liquidity pool beyond it when
// one sits within the snap range, otherwise keeps the R-multiple level
func (s *Solver) snapToPool(scan zones.ScanResult, level, risk float64, dir market.Direction) float64 {
	snapDist := risk * s.cfg.PoolSnapRange

	for _, z := range scan.LiquidityPools {
		pool := z.(zones.LiquidityPool)
		if dir == market.Bullish && pool.Side == zones.PoolAboveHighs &&
			pool.Price > level && pool.Price-level <= snapDist {
			return pool.Price
		}
		if dir == market.Bearish && pool.Side == zones.PoolBelowLows &&
			pool.Price < level && level-pool.Price <= snapDist {
			return pool.Price
		}
	}
	return level
}

func applyR(entry, risk, multiple float64, dir market.Direction) float64 {
	if dir == market.Bullish {
		return entry + risk*multiple
	}
	return entry - risk*multiple
}
