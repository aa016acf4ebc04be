package zones

import (
	"math"
	"testing"

	"smc-signal-engine/internal/market"
)

func breachSeries(breachClose float64, breachVolume float64) []market.Candle {
	return candleSeries([][5]float64{
		{101, 102.5, 100.8, 102, 1000},
		{102, 102.6, 101.5, 101.8, 1000},
		{102, 102.2, 100, 100.5, 1000},
		{101.5, 101.8, 100.9, 101, 1000},
		{101, 101.3, 100.4, 100.6, 1000},
		{100.6, 100.9, 100.1, 100.3, 1000},
		{100.3, 100.4, breachClose - 0.3, breachClose, breachVolume},
		{breachClose, breachClose + 0.3, breachClose - 0.5, breachClose - 0.2, 1000},
	})
}

// TestBreakerFlipsBreachedBlock verifies the polarity flip and the strength
// retention formula with the volume spike bonus
func TestBreakerFlipsBreachedBlock(t *testing.T) {
	detector := NewBreakerDetector(DefaultDetectorConfig())

	blocks := []Zone{OrderBlock{
		Low:         100,
		High:        102,
		Direction:   market.Bullish,
		Strength:    80,
		CandleIndex: 2,
	}}

	found := detector.Detect(breachSeries(99.5, 2500), blocks)
	if len(found) != 1 {
		t.Fatalf("Expected 1 breaker block, got %d", len(found))
	}

	bb, ok := found[0].(BreakerBlock)
	if !ok {
		t.Fatalf("Expected BreakerBlock, got %T", found[0])
	}
	if bb.Direction != market.Bearish {
		t.Errorf("Expected breached bullish block to flip bearish, got %s", bb.Direction)
	}
	if bb.OriginStrength != 80 {
		t.Errorf("Expected origin strength 80, got %f", bb.OriginStrength)
	}
	// 80 * 0.75 retention + 10 volume bonus
	if math.Abs(bb.Strength-70) > 1e-9 {
		t.Errorf("Expected strength 70, got %f", bb.Strength)
	}
	if bb.CandleIndex != 6 {
		t.Errorf("Expected breach at candle 6, got %d", bb.CandleIndex)
	}
}

func TestBreakerWithoutVolumeSpike(t *testing.T) {
	detector := NewBreakerDetector(DefaultDetectorConfig())

	blocks := []Zone{OrderBlock{
		Low:         100,
		High:        102,
		Direction:   market.Bullish,
		Strength:    80,
		CandleIndex: 2,
	}}

	found := detector.Detect(breachSeries(99.5, 1000), blocks)
	if len(found) != 1 {
		t.Fatalf("Expected 1 breaker block, got %d", len(found))
	}
	if bb := found[0].(BreakerBlock); math.Abs(bb.Strength-60) > 1e-9 {
		t.Errorf("Expected strength 60 without volume bonus, got %f", bb.Strength)
	}
}

func TestBreakerHoldsWithoutBreach(t *testing.T) {
	detector := NewBreakerDetector(DefaultDetectorConfig())

	blocks := []Zone{OrderBlock{
		Low:         100,
		High:        102,
		Direction:   market.Bullish,
		Strength:    80,
		CandleIndex: 2,
	}}

	// Closes never cross below the block low
	if found := detector.Detect(breachSeries(100.4, 1000), blocks); len(found) != 0 {
		t.Errorf("Expected no breaker while the block holds, got %d zones", len(found))
	}
}
