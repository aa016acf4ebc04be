package zones

import "smc-signal-engine/internal/market"

// LiquidityDetector finds swing highs/lows where resting orders cluster
type LiquidityDetector struct {
	cfg DetectorConfig
}

// NewLiquidityDetector creates a liquidity pool detector
func NewLiquidityDetector(cfg DetectorConfig) *LiquidityDetector {
	return &LiquidityDetector{cfg: cfg.normalized()}
}

// Detect scans for swing points. A swing high is a candle whose high
// exceeds the highs of the surrounding lookback candles on both sides;
// swing lows mirror. Each swing point becomes a liquidity pool.
func (d *LiquidityDetector) Detect(candles []market.Candle) []Zone {
	lb := d.cfg.SwingLookback
	if len(candles) < 2*lb+1 {
		return nil
	}

	var found []Zone

	for i := lb; i < len(candles)-lb; i++ {
		isSwingHigh := true
		isSwingLow := true

		for j := i - lb; j <= i+lb; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isSwingHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isSwingLow = false
			}
		}

		if isSwingHigh {
			found = append(found, LiquidityPool{
				Price:       candles[i].High,
				Side:        PoolAboveHighs,
				CandleIndex: i,
			})
		}
		if isSwingLow {
			found = append(found, LiquidityPool{
				Price:       candles[i].Low,
				Side:        PoolBelowLows,
				CandleIndex: i,
			})
		}
	}

	return found
}
