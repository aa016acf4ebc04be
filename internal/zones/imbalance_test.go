package zones

import (
	"testing"

	"smc-signal-engine/internal/market"
)

// imbalanceSeries returns candles where the gap triple sits at indices
// 3-5 and the displacement candle (index 4) carries the given body and
// volume
func imbalanceSeries(dispOpen, dispClose, dispVolume float64) []market.Candle {
	lo := dispOpen
	if dispClose < lo {
		lo = dispClose
	}
	hi := dispOpen
	if dispClose > hi {
		hi = dispClose
	}
	return candleSeries([][5]float64{
		{100, 100.6, 99.6, 100.3, 1000},
		{100.3, 100.8, 99.9, 100.5, 1000},
		{100.5, 100.9, 100, 100.4, 1000},
		{100.4, 101, 99.9, 100.6, 1000},
		{dispOpen, hi + 0.5, lo - 0.1, dispClose, dispVolume},
		{104, 105.5, 103, 105, 1000},
		{105, 105.8, 104.5, 105.3, 1000},
		{105.3, 106, 104.9, 105.6, 1000},
		{105.6, 106.2, 105.1, 105.9, 1000},
		{105.9, 106.5, 105.4, 106.1, 1000},
	})
}

func bullishGapAt3() []Zone {
	return []Zone{FairValueGap{
		Low:         101,
		High:        103,
		Direction:   market.Bullish,
		CandleIndex: 3,
	}}
}

// TestImbalanceRequiresAllThreeConditions walks each disqualifier
func TestImbalanceRequiresAllThreeConditions(t *testing.T) {
	detector := NewImbalanceDetector(DefaultDetectorConfig())

	// All three conditions hold: big displacement body, co-located gap,
	// volume void on the quiet candle
	found := detector.Detect(imbalanceSeries(100.5, 104, 300), bullishGapAt3())
	if len(found) != 1 {
		t.Fatalf("Expected 1 imbalance zone, got %d", len(found))
	}
	iz, ok := found[0].(ImbalanceZone)
	if !ok {
		t.Fatalf("Expected ImbalanceZone, got %T", found[0])
	}
	if iz.ZoneKind != SSIB {
		t.Errorf("Expected SSIB from bullish displacement, got %s", iz.ZoneKind)
	}
	if iz.Low != 101 || iz.High != 103 {
		t.Errorf("Expected zone [101, 103], got [%f, %f]", iz.Low, iz.High)
	}

	// Displacement body too small
	found = detector.Detect(imbalanceSeries(103.9, 104, 300), bullishGapAt3())
	if len(found) != 0 {
		t.Errorf("Expected weak displacement to disqualify, got %d zones", len(found))
	}

	// No liquidity void: every candle traded at average volume
	found = detector.Detect(imbalanceSeries(100.5, 104, 1000), bullishGapAt3())
	if len(found) != 0 {
		t.Errorf("Expected missing volume void to disqualify, got %d zones", len(found))
	}
}

func TestImbalanceKindFollowsDisplacement(t *testing.T) {
	detector := NewImbalanceDetector(DefaultDetectorConfig())

	// Bearish displacement candle yields a SIBI
	candles := imbalanceSeries(104.4, 101, 300)
	gaps := []Zone{FairValueGap{
		Low:         101,
		High:        103,
		Direction:   market.Bearish,
		CandleIndex: 3,
	}}

	found := detector.Detect(candles, gaps)
	if len(found) != 1 {
		t.Fatalf("Expected 1 imbalance zone, got %d", len(found))
	}
	if iz := found[0].(ImbalanceZone); iz.ZoneKind != SIBI {
		t.Errorf("Expected SIBI from bearish displacement, got %s", iz.ZoneKind)
	}
}
