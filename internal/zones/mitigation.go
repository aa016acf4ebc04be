package zones

import "smc-signal-engine/internal/market"

// MitigationDetector finds order blocks retested without breach.
// Each clean retest compounds the block's strength.
type MitigationDetector struct {
	cfg DetectorConfig
}

// NewMitigationDetector creates a mitigation block detector
func NewMitigationDetector(cfg DetectorConfig) *MitigationDetector {
	return &MitigationDetector{cfg: cfg.normalized()}
}

// Detect walks later price action for each order block. A retest is a
// candle wicking into the block without closing through its far boundary;
// the first close-through ends the block's life as a mitigation candidate.
func (d *MitigationDetector) Detect(candles []market.Candle, blocks []Zone) []Zone {
	if len(candles) == 0 || len(blocks) == 0 {
		return nil
	}

	var found []Zone

	for _, z := range blocks {
		ob, ok := z.(OrderBlock)
		if !ok {
			continue
		}

		retests, breached := d.countRetests(candles, ob)
		if breached || retests == 0 {
			continue
		}

		strength := ob.Strength
		for r := 0; r < retests; r++ {
			strength *= d.cfg.RetestStrengthMult
		}
		if strength > d.cfg.MaxZoneStrength {
			strength = d.cfg.MaxZoneStrength
		}

		found = append(found, MitigationBlock{
			Low:         ob.Low,
			High:        ob.High,
			Direction:   ob.Direction,
			RetestCount: retests,
			Strength:    strength,
			CandleIndex: ob.CandleIndex,
		})
	}

	return found
}

// countRetests counts wicks into the block and reports whether a breach
// occurred first. Consecutive candles inside the block count as one retest.
func (d *MitigationDetector) countRetests(candles []market.Candle, ob OrderBlock) (int, bool) {
	retests := 0
	inside := false

	for i := ob.CandleIndex + 2; i < len(candles); i++ {
		c := candles[i]

		if ob.Direction == market.Bullish && c.Close < ob.Low {
			return retests, true
		}
		if ob.Direction == market.Bearish && c.Close > ob.High {
			return retests, true
		}

		touching := c.Low <= ob.High && c.High >= ob.Low
		if touching && !inside {
			retests++
		}
		inside = touching
	}

	return retests, false
}
