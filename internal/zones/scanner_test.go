package zones

import (
	"testing"

	"smc-signal-engine/internal/market"
)

// TestScannerGroupsDetections runs the full scanner over a breakout series
// and checks the categories line up
func TestScannerGroupsDetections(t *testing.T) {
	scanner := NewScanner(DefaultDetectorConfig())

	result := scanner.Scan(bullishOBSeries())

	if len(result.OrderBlocks) != 1 {
		t.Fatalf("Expected 1 order block, got %d", len(result.OrderBlocks))
	}
	if len(result.FairValueGaps) != 1 {
		t.Fatalf("Expected 1 fair value gap, got %d", len(result.FairValueGaps))
	}
	if result.OrderBlocks[0].Bias() != market.Bullish {
		t.Errorf("Expected bullish order block, got %s", result.OrderBlocks[0].Bias())
	}

	// The unbroken, untested block produces neither breakers nor mitigations
	if len(result.BreakerBlocks) != 0 || len(result.MitigationBlocks) != 0 {
		t.Errorf("Expected no derived blocks, got %d breakers and %d mitigations",
			len(result.BreakerBlocks), len(result.MitigationBlocks))
	}

	if got := len(result.All()); got != 2 {
		t.Errorf("Expected 2 zones in total, got %d", got)
	}
}

func TestScannerEmptyOnThinInput(t *testing.T) {
	scanner := NewScanner(DefaultDetectorConfig())

	result := scanner.Scan(candleSeries([][5]float64{
		{100, 101, 99, 100.5, 1000},
		{100.5, 101.5, 100, 101, 1000},
	}))

	if got := len(result.All()); got != 0 {
		t.Errorf("Expected no zones on thin input, got %d", got)
	}
}
