package confidence

import (
	"fmt"

	"smc-signal-engine/internal/bias"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/solver"
	"smc-signal-engine/internal/zones"
)

// Score is the scorer output: a base confidence in [0,100] plus the
// reasoning trail behind it
type Score struct {
	Base        float64  `json:"base"`
	Detectors   float64  `json:"detectors"`
	Adjustments float64  `json:"adjustments"`
	Total       float64  `json:"total"` // clamped to [0,100]
	Reasoning   []string `json:"reasoning"`
}

// Config holds scorer weights and caps
type Config struct {
	FullConsensusBase  float64 `json:"full_consensus_base"`
	MajorityBase       float64 `json:"majority_base"`
	MinorityBase       float64 `json:"minority_base"`
	OpposedBase        float64 `json:"opposed_base"`
	OrderBlockCap      float64 `json:"order_block_cap"`
	FVGCap             float64 `json:"fvg_cap"`
	AuxiliaryZoneCap   float64 `json:"auxiliary_zone_cap"` // breaker/mitigation/imbalance, each
	SessionBonus       float64 `json:"session_bonus"`
	VolumeBonus        float64 `json:"volume_bonus"`
	LowVolumePenalty   float64 `json:"low_volume_penalty"`
	StructureBreakAdj  float64 `json:"structure_break_adj"`
	DisplacementBonus  float64 `json:"displacement_bonus"`
	OutOfRangePenalty  float64 `json:"out_of_range_penalty"`
	HighVolumeRatio    float64 `json:"high_volume_ratio"`
	LowVolumeRatio     float64 `json:"low_volume_ratio"`
	DisplacementATRMul float64 `json:"displacement_atr_mult"`
}

// DefaultConfig returns the default scorer configuration
func DefaultConfig() Config {
	return Config{
		FullConsensusBase:  50,
		MajorityBase:       40,
		MinorityBase:       30,
		OpposedBase:        20,
		OrderBlockCap:      15,
		FVGCap:             10,
		AuxiliaryZoneCap:   5,
		SessionBonus:       5,
		VolumeBonus:        5,
		LowVolumePenalty:   5,
		StructureBreakAdj:  5,
		DisplacementBonus:  5,
		OutOfRangePenalty:  10,
		HighVolumeRatio:    2.0,
		LowVolumeRatio:     0.7,
		DisplacementATRMul: 1.5,
	}
}

// Scorer combines detector output, bias alignment and context adjustments
// into a base confidence
type Scorer struct {
	cfg Config
}

// NewScorer creates a confidence scorer
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.FullConsensusBase <= 0 {
		cfg = def
	}
	return &Scorer{cfg: cfg}
}

// ScoreSignal computes the base confidence for a directional setup.
// Contextual adjustments never contradict each other: the low-volume
// penalty is suppressed during sessions classified as peak liquidity.
func (s *Scorer) ScoreSignal(
	ctx *market.CandleContext,
	biasCtx bias.Context,
	scan zones.ScanResult,
	rc *solver.RiskContext,
	dir market.Direction,
) Score {
	score := Score{Reasoning: make([]string, 0, 8)}

	score.Base = s.alignmentBase(biasCtx, dir, &score)
	score.Detectors = s.detectorContribution(scan, dir, &score)
	score.Adjustments = s.contextAdjustments(ctx, rc, dir, &score)

	score.Total = clamp(score.Base+score.Detectors+score.Adjustments, 0, 100)
	return score
}

// alignmentBase picks a discrete tier from HTF bias agreement and MTF
// confluence rather than a continuous blend
func (s *Scorer) alignmentBase(biasCtx bias.Context, dir market.Direction, score *Score) float64 {
	agrees := biasCtx.HTFBias == dir
	opposed := biasCtx.HTFBias == dir.Opposite()

	switch {
	case agrees && biasCtx.MTFConfluence >= 80:
		score.Reasoning = append(score.Reasoning,
			fmt.Sprintf("Full timeframe consensus (%s bias from %s, %d%% confluence)", dir, biasCtx.HTFSource, biasCtx.MTFConfluence))
		return s.cfg.FullConsensusBase
	case agrees || biasCtx.MTFConfluence >= 60:
		score.Reasoning = append(score.Reasoning,
			fmt.Sprintf("Majority timeframe alignment (%d%% confluence)", biasCtx.MTFConfluence))
		return s.cfg.MajorityBase
	case opposed:
		score.Reasoning = append(score.Reasoning,
			fmt.Sprintf("Counter-trend setup against %s %s bias", biasCtx.HTFSource, biasCtx.HTFBias))
		return s.cfg.OpposedBase
	default:
		score.Reasoning = append(score.Reasoning, "Neutral higher-timeframe bias")
		return s.cfg.MinorityBase
	}
}

// detectorContribution sums per-category scores. Breaker, mitigation and
// imbalance zones are each capped low so auxiliary detectors refine rather
// than dominate.
func (s *Scorer) detectorContribution(scan zones.ScanResult, dir market.Direction, score *Score) float64 {
	total := 0.0

	if strength, n := bestDirectionalStrength(scan.OrderBlocks, dir); n > 0 {
		pts := (strength / 100) * s.cfg.OrderBlockCap
		total += pts
		score.Reasoning = append(score.Reasoning, fmt.Sprintf("Order block support (strength %.0f)", strength))
	}

	unfilled := 0
	for _, z := range scan.FairValueGaps {
		fvg := z.(zones.FairValueGap)
		if !fvg.Filled && fvg.Direction == dir {
			unfilled++
		}
	}
	if unfilled > 0 {
		pts := s.cfg.FVGCap
		if unfilled == 1 {
			pts = s.cfg.FVGCap / 2
		}
		total += pts
		score.Reasoning = append(score.Reasoning, fmt.Sprintf("%d unfilled fair value gap(s)", unfilled))
	}

	if _, n := bestDirectionalStrength(scan.BreakerBlocks, dir); n > 0 {
		total += s.cfg.AuxiliaryZoneCap
		score.Reasoning = append(score.Reasoning, "Breaker block confluence")
	}
	if _, n := bestDirectionalStrength(scan.MitigationBlocks, dir); n > 0 {
		total += s.cfg.AuxiliaryZoneCap
		score.Reasoning = append(score.Reasoning, "Mitigation block confluence")
	}
	for _, z := range scan.ImbalanceZones {
		if z.Bias() == dir {
			total += s.cfg.AuxiliaryZoneCap
			score.Reasoning = append(score.Reasoning, "Imbalance zone confluence")
			break
		}
	}

	return total
}

// contextAdjustments applies session, volume, structure-break and
// displacement adjustments plus the soft distance penalty
func (s *Scorer) contextAdjustments(ctx *market.CandleContext, rc *solver.RiskContext, dir market.Direction, score *Score) float64 {
	total := 0.0
	candles := ctx.Candles
	last := candles[len(candles)-1]
	session := market.ClassifySession(last.Time())

	if session.IsPeakLiquidity() {
		total += s.cfg.SessionBonus
		score.Reasoning = append(score.Reasoning, fmt.Sprintf("Peak liquidity session (%s)", session))
	}

	if ctx.VolumeRatio >= s.cfg.HighVolumeRatio {
		total += s.cfg.VolumeBonus
		score.Reasoning = append(score.Reasoning, fmt.Sprintf("Volume anomaly (%.1fx median)", ctx.VolumeRatio))
	} else if ctx.VolumeRatio > 0 && ctx.VolumeRatio < s.cfg.LowVolumeRatio && !session.IsPeakLiquidity() {
		// Suppressed during peak sessions so "low volume" never fires
		// alongside a peak-liquidity bonus
		total -= s.cfg.LowVolumePenalty
		score.Reasoning = append(score.Reasoning, fmt.Sprintf("Low volume (%.1fx median)", ctx.VolumeRatio))
	}

	if breakDir, ok := structureBreak(candles); ok {
		if breakDir == dir {
			total += s.cfg.StructureBreakAdj
			score.Reasoning = append(score.Reasoning, "Structure break in signal direction")
		} else {
			total -= s.cfg.StructureBreakAdj
			score.Reasoning = append(score.Reasoning, "Structure break against signal direction")
		}
	}

	if ctx.ATR > 0 && last.Body() >= s.cfg.DisplacementATRMul*ctx.ATR {
		candleDir := market.Bearish
		if last.IsBullish() {
			candleDir = market.Bullish
		}
		if candleDir == dir {
			total += s.cfg.DisplacementBonus
			score.Reasoning = append(score.Reasoning, "Displacement candle in signal direction")
		}
	}

	if rc != nil && rc.OutOfOptimalRange {
		total -= s.cfg.OutOfRangePenalty
		score.Reasoning = append(score.Reasoning, "Entry zone out of optimal range")
	}

	return total
}

// structureBreak reports whether the latest close broke the prior 10-candle
// swing high or low
func structureBreak(candles []market.Candle) (market.Direction, bool) {
	const lookback = 10
	if len(candles) < lookback+1 {
		return market.Neutral, false
	}

	last := candles[len(candles)-1]
	prior := candles[len(candles)-1-lookback : len(candles)-1]

	high := prior[0].High
	low := prior[0].Low
	for _, c := range prior {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}

	if last.Close > high {
		return market.Bullish, true
	}
	if last.Close < low {
		return market.Bearish, true
	}
	return market.Neutral, false
}

func bestDirectionalStrength(zs []zones.Zone, dir market.Direction) (float64, int) {
	best := 0.0
	count := 0
	for _, z := range zs {
		if z.Bias() != dir {
			continue
		}
		count++
		var strength float64
		switch v := z.(type) {
		case zones.OrderBlock:
			strength = v.Strength
		case zones.BreakerBlock:
			strength = v.Strength
		case zones.MitigationBlock:
			strength = v.Strength
		default:
			strength = 50
		}
		if strength > best {
			best = strength
		}
	}
	return best, count
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
