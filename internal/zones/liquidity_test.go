package zones

import "testing"

func peakedSeries(highs []float64) [][5]float64 {
	rows := make([][5]float64, len(highs))
	for i, h := range highs {
		rows[i] = [5]float64{h - 0.8, h, h - 1, h - 0.2, 1000}
	}
	return rows
}

func TestDetectSwingHighPool(t *testing.T) {
	detector := NewLiquidityDetector(DefaultDetectorConfig())

	candles := candleSeries(peakedSeries([]float64{101, 102, 103, 104, 108, 104, 103, 102, 101}))

	found := detector.Detect(candles)
	if len(found) != 1 {
		t.Fatalf("Expected 1 liquidity pool, got %d", len(found))
	}

	pool, ok := found[0].(LiquidityPool)
	if !ok {
		t.Fatalf("Expected LiquidityPool, got %T", found[0])
	}
	if pool.Side != PoolAboveHighs {
		t.Errorf("Expected pool above highs, got %s", pool.Side)
	}
	if pool.Price != 108 {
		t.Errorf("Expected pool at 108, got %f", pool.Price)
	}
	if pool.CandleIndex != 4 {
		t.Errorf("Expected swing at candle 4, got %d", pool.CandleIndex)
	}
}

func TestDetectSwingLowPool(t *testing.T) {
	detector := NewLiquidityDetector(DefaultDetectorConfig())

	candles := candleSeries(peakedSeries([]float64{108, 107, 106, 105, 101, 105, 106, 107, 108}))

	found := detector.Detect(candles)
	if len(found) != 1 {
		t.Fatalf("Expected 1 liquidity pool, got %d", len(found))
	}

	pool := found[0].(LiquidityPool)
	if pool.Side != PoolBelowLows {
		t.Errorf("Expected pool below lows, got %s", pool.Side)
	}
	if pool.Price != 100 {
		t.Errorf("Expected pool at 100, got %f", pool.Price)
	}
}

// TestSwingRequiresFullLookback verifies thin series yield no pools
func TestSwingRequiresFullLookback(t *testing.T) {
	detector := NewLiquidityDetector(DefaultDetectorConfig())

	candles := candleSeries(peakedSeries([]float64{101, 102, 108, 102, 101}))
	if found := detector.Detect(candles); found != nil {
		t.Errorf("Expected no pools on a series shorter than the window, got %d", len(found))
	}
}
