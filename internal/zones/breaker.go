package zones

import "smc-signal-engine/internal/market"

// BreakerDetector finds order blocks whose boundary has been breached.
// A breached bullish block flips into bearish resistance and vice versa.
type BreakerDetector struct {
	cfg DetectorConfig
}

// NewBreakerDetector creates a breaker block detector
func NewBreakerDetector(cfg DetectorConfig) *BreakerDetector {
	return &BreakerDetector{cfg: cfg.normalized()}
}

// Detect inspects the detected order blocks for breaches by later candles.
// Strength is the origin strength scaled by the retention factor, with a
// bonus when the breach candle carried a volume spike, capped at the max.
func (d *BreakerDetector) Detect(candles []market.Candle, blocks []Zone) []Zone {
	if len(candles) == 0 || len(blocks) == 0 {
		return nil
	}

	avgVolume := averageVolume(candles, 20)

	var found []Zone

	for _, z := range blocks {
		ob, ok := z.(OrderBlock)
		if !ok {
			continue
		}

		breachIdx := d.findBreach(candles, ob)
		if breachIdx < 0 {
			continue
		}

		strength := ob.Strength * d.cfg.BreakerRetention
		if avgVolume > 0 && candles[breachIdx].Volume > 2*avgVolume {
			strength += d.cfg.BreakerVolumeBonus
		}
		if strength > d.cfg.MaxZoneStrength {
			strength = d.cfg.MaxZoneStrength
		}

		found = append(found, BreakerBlock{
			Low:            ob.Low,
			High:           ob.High,
			Direction:      ob.Direction.Opposite(),
			OriginStrength: ob.Strength,
			Strength:       strength,
			CandleIndex:    breachIdx,
		})
	}

	return found
}

// findBreach returns the index of the first candle closing through the
// block boundary, or -1 when the block holds
func (d *BreakerDetector) findBreach(candles []market.Candle, ob OrderBlock) int {
	for i := ob.CandleIndex + 2; i < len(candles); i++ {
		if ob.Direction == market.Bullish && candles[i].Close < ob.Low {
			return i
		}
		if ob.Direction == market.Bearish && candles[i].Close > ob.High {
			return i
		}
	}
	return -1
}

func averageVolume(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}
	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Volume
	}
	return sum / float64(period)
}
