package zones

import "smc-signal-engine/internal/market"

// OrderBlockDetector finds consolidation candles preceding impulsive moves
type OrderBlockDetector struct {
	cfg DetectorConfig
}

// NewOrderBlockDetector creates an order block detector
func NewOrderBlockDetector(cfg DetectorConfig) *OrderBlockDetector {
	return &OrderBlockDetector{cfg: cfg.normalized()}
}

// Detect scans for order blocks. A bullish order block is the last bearish
// candle before an impulsive move up that closes beyond the block's high;
// bearish is the mirror. Blocks below the minimum strength threshold are
// dropped rather than emitted weak.
func (d *OrderBlockDetector) Detect(candles []market.Candle) []Zone {
	if len(candles) < 5 {
		return nil
	}

	atr := market.CalculateATR(candles, 14)
	if atr == 0 {
		return nil
	}

	var found []Zone

	for i := 1; i < len(candles)-1; i++ {
		block := candles[i]
		impulse := candles[i+1]

		// Bullish OB: bearish consolidation candle, then impulsive close
		// above its high
		if block.IsBearish() && impulse.IsBullish() &&
			impulse.Body() >= d.cfg.DisplacementATRMult*atr &&
			impulse.Close > block.High {

			strength := d.scoreBlock(candles, i, atr, market.Bullish)
			if strength >= d.cfg.MinOrderBlockStrength {
				found = append(found, OrderBlock{
					Low:         block.Low,
					High:        block.High,
					Direction:   market.Bullish,
					Strength:    strength,
					CandleIndex: i,
				})
			}
		}

		// Bearish OB: bullish consolidation candle, then impulsive close
		// below its low
		if block.IsBullish() && impulse.IsBearish() &&
			impulse.Body() >= d.cfg.DisplacementATRMult*atr &&
			impulse.Close < block.Low {

			strength := d.scoreBlock(candles, i, atr, market.Bearish)
			if strength >= d.cfg.MinOrderBlockStrength {
				found = append(found, OrderBlock{
					Low:         block.Low,
					High:        block.High,
					Direction:   market.Bearish,
					Strength:    strength,
					CandleIndex: i,
				})
			}
		}
	}

	return found
}

// scoreBlock rates an order block from displacement magnitude and the
// follow-through reaction over the next few candles
func (d *OrderBlockDetector) scoreBlock(candles []market.Candle, idx int, atr float64, dir market.Direction) float64 {
	impulse := candles[idx+1]

	// Displacement component, up to 60 points
	displacement := (impulse.Body() / atr) * 25
	if displacement > 60 {
		displacement = 60
	}

	// Reaction component: how far price extended beyond the impulse close
	// in the following candles, up to 40 points
	reaction := 0.0
	end := idx + 6
	if end > len(candles) {
		end = len(candles)
	}
	for j := idx + 2; j < end; j++ {
		var extension float64
		if dir == market.Bullish {
			extension = candles[j].High - impulse.Close
		} else {
			extension = impulse.Close - candles[j].Low
		}
		if score := (extension / atr) * 20; score > reaction {
			reaction = score
		}
	}
	if reaction > 40 {
		reaction = 40
	}

	total := displacement + reaction
	if total > d.cfg.MaxZoneStrength {
		total = d.cfg.MaxZoneStrength
	}
	return total
}
