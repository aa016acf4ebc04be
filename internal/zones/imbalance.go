package zones

import "smc-signal-engine/internal/market"

// ImbalanceDetector finds SIBI/SSIB zones. A zone requires all three of:
// a displacement candle beyond the minimum body percentage, a co-located
// fair value gap, and a liquidity void (volume well below local average).
// Missing any one condition disqualifies the zone outright.
type ImbalanceDetector struct {
	cfg DetectorConfig
}

// NewImbalanceDetector creates an imbalance zone detector
func NewImbalanceDetector(cfg DetectorConfig) *ImbalanceDetector {
	return &ImbalanceDetector{cfg: cfg.normalized()}
}

// Detect cross-references detected FVGs with their displacement candle and
// the surrounding volume profile
func (d *ImbalanceDetector) Detect(candles []market.Candle, gaps []Zone) []Zone {
	if len(candles) < 3 || len(gaps) == 0 {
		return nil
	}

	avgVolume := averageVolume(candles, 20)
	if avgVolume == 0 {
		return nil
	}

	var found []Zone

	for _, z := range gaps {
		fvg, ok := z.(FairValueGap)
		if !ok {
			continue
		}
		if fvg.CandleIndex+2 >= len(candles) {
			continue
		}

		// Condition 1: displacement candle (the gap creator) beyond the
		// minimum body percentage
		displacement := candles[fvg.CandleIndex+1]
		if displacement.BodyPercent() < d.cfg.MinDisplacementBodyPct {
			continue
		}

		// Condition 2 is the FVG itself, already co-located by construction

		// Condition 3: liquidity void, the quietest of the three candles
		// traded well below the local average
		minVol := candles[fvg.CandleIndex].Volume
		for j := fvg.CandleIndex + 1; j <= fvg.CandleIndex+2; j++ {
			if candles[j].Volume < minVol {
				minVol = candles[j].Volume
			}
		}
		if minVol >= d.cfg.LiquidityVoidRatio*avgVolume {
			continue
		}

		kind := SIBI
		if displacement.IsBullish() {
			kind = SSIB
		}

		found = append(found, ImbalanceZone{
			Low:         fvg.Low,
			High:        fvg.High,
			ZoneKind:    kind,
			CandleIndex: fvg.CandleIndex,
		})
	}

	return found
}
