package zones

import "smc-signal-engine/internal/market"

// FVGDetector detects Fair Value Gaps in candlestick data
type FVGDetector struct {
	cfg DetectorConfig
}

// NewFVGDetector creates a new FVG detector
func NewFVGDetector(cfg DetectorConfig) *FVGDetector {
	return &FVGDetector{cfg: cfg.normalized()}
}

// Detect identifies all Fair Value Gaps in the given candles. A gap is
// admitted when it clears the percentage threshold OR the absolute
// threshold; requiring both starves detection under normal volatility.
func (d *FVGDetector) Detect(candles []market.Candle) []Zone {
	if len(candles) < 3 {
		return nil
	}

	var found []Zone

	for i := 0; i < len(candles)-2; i++ {
		c1 := candles[i]
		c3 := candles[i+2]

		// Bullish FVG: gap between first candle's high and third's low
		if c1.High < c3.Low {
			if d.gapQualifies(c3.Low-c1.High, c1.High) {
				found = append(found, FairValueGap{
					Low:         c1.High,
					High:        c3.Low,
					Direction:   market.Bullish,
					Filled:      gapFilled(candles[i+3:], c1.High, c3.Low, market.Bullish),
					CandleIndex: i,
				})
			}
		}

		// Bearish FVG: gap between first candle's low and third's high
		if c1.Low > c3.High {
			if d.gapQualifies(c1.Low-c3.High, c3.High) {
				found = append(found, FairValueGap{
					Low:         c3.High,
					High:        c1.Low,
					Direction:   market.Bearish,
					Filled:      gapFilled(candles[i+3:], c3.High, c1.Low, market.Bearish),
					CandleIndex: i,
				})
			}
		}
	}

	return found
}

// gapQualifies applies the OR-logic size thresholds
func (d *FVGDetector) gapQualifies(gapSize, refPrice float64) bool {
	if refPrice <= 0 {
		return false
	}
	gapPercent := (gapSize / refPrice) * 100
	if gapPercent >= d.cfg.MinGapPercent {
		return true
	}
	return d.cfg.MinGapAbsolute > 0 && gapSize >= d.cfg.MinGapAbsolute
}

// gapFilled reports whether later price action wicked back into the gap
func gapFilled(later []market.Candle, low, high float64, dir market.Direction) bool {
	for _, c := range later {
		if dir == market.Bullish {
			// Price came back down into the gap
			if c.Low <= high && c.Low >= low {
				return true
			}
			if c.Low < low {
				return true // traded through the whole gap
			}
		} else {
			// Price came back up into the gap
			if c.High >= low && c.High <= high {
				return true
			}
			if c.High > high {
				return true
			}
		}
	}
	return false
}
