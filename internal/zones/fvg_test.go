package zones

import (
	"testing"

	"smc-signal-engine/internal/market"
)

// candleSeries builds a timestamped series from {open, high, low, close,
// volume} rows
func candleSeries(rows [][5]float64) []market.Candle {
	base := int64(1705305600000) // 2024-01-15T08:00:00Z
	candles := make([]market.Candle, len(rows))
	for i, r := range rows {
		candles[i] = market.Candle{
			OpenTime:  base + int64(i)*3600000,
			Open:      r[0],
			High:      r[1],
			Low:       r[2],
			Close:     r[3],
			Volume:    r[4],
			CloseTime: base + int64(i)*3600000 + 3599999,
		}
	}
	return candles
}

func TestDetectBullishFVG(t *testing.T) {
	detector := NewFVGDetector(DefaultDetectorConfig())

	candles := candleSeries([][5]float64{
		{100, 101, 99.5, 100.5, 1000},
		{100.5, 105.5, 100.4, 105, 3000},
		{105, 106.5, 103, 106, 1500},
	})

	found := detector.Detect(candles)
	if len(found) != 1 {
		t.Fatalf("Expected 1 FVG, got %d", len(found))
	}

	fvg, ok := found[0].(FairValueGap)
	if !ok {
		t.Fatalf("Expected FairValueGap, got %T", found[0])
	}
	if fvg.Direction != market.Bullish {
		t.Errorf("Expected bullish FVG, got %s", fvg.Direction)
	}
	if fvg.Low != 101 || fvg.High != 103 {
		t.Errorf("Expected gap [101, 103], got [%f, %f]", fvg.Low, fvg.High)
	}
	if fvg.Filled {
		t.Error("Expected unfilled gap with no later candles")
	}
}

func TestDetectBearishFVG(t *testing.T) {
	detector := NewFVGDetector(DefaultDetectorConfig())

	candles := candleSeries([][5]float64{
		{106, 106.5, 105, 105.5, 1000},
		{105.5, 105.6, 100.9, 101, 3000},
		{101, 102.9, 99.5, 100, 1500},
	})

	found := detector.Detect(candles)
	if len(found) != 1 {
		t.Fatalf("Expected 1 FVG, got %d", len(found))
	}

	fvg := found[0].(FairValueGap)
	if fvg.Direction != market.Bearish {
		t.Errorf("Expected bearish FVG, got %s", fvg.Direction)
	}
	if fvg.Low != 102.9 || fvg.High != 105 {
		t.Errorf("Expected gap [102.9, 105], got [%f, %f]", fvg.Low, fvg.High)
	}
}

func TestFVGFilledByRetracement(t *testing.T) {
	detector := NewFVGDetector(DefaultDetectorConfig())

	candles := candleSeries([][5]float64{
		{100, 101, 99.5, 100.5, 1000},
		{100.5, 105.5, 100.4, 105, 3000},
		{105, 106.5, 103, 106, 1500},
		{106, 106.2, 102, 105.9, 1200}, // wick back into the gap
	})

	found := detector.Detect(candles)
	if len(found) != 1 {
		t.Fatalf("Expected 1 FVG, got %d", len(found))
	}
	if !found[0].(FairValueGap).Filled {
		t.Error("Expected gap marked filled after retracement wick")
	}
}

// TestFVGThresholdORLogic verifies that either threshold admits a gap;
// a gap failing the percentage check still qualifies on absolute size
func TestFVGThresholdORLogic(t *testing.T) {
	candles := candleSeries([][5]float64{
		{100, 101, 99.5, 100.5, 1000},
		{100.5, 105.5, 100.4, 105, 3000},
		{105, 106.5, 103, 106, 1500},
	})

	// Gap is 2.0 absolute, ~1.98 percent
	strictPct := NewFVGDetector(DetectorConfig{MinGapPercent: 5, MinGapAbsolute: 1.5})
	if found := strictPct.Detect(candles); len(found) != 1 {
		t.Errorf("Expected absolute threshold to admit the gap, got %d zones", len(found))
	}

	strictBoth := NewFVGDetector(DetectorConfig{MinGapPercent: 5, MinGapAbsolute: 5})
	if found := strictBoth.Detect(candles); len(found) != 0 {
		t.Errorf("Expected no gap when both thresholds fail, got %d zones", len(found))
	}
}
