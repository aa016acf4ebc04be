package confidence

import (
	"testing"
	"time"

	"smc-signal-engine/internal/bias"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/solver"
	"smc-signal-engine/internal/zones"
)

// quietContext returns a minimal context whose last candle closed during
// the given UTC hour, with no displacement and no structure break
func quietContext(hourUTC int, volumeRatio float64) *market.CandleContext {
	closeTime := time.Date(2024, 1, 15, hourUTC, 30, 0, 0, time.UTC).UnixMilli()
	candle := market.Candle{
		OpenTime:  closeTime - 3600000,
		Open:      100,
		High:      100.1,
		Low:       99.9,
		Close:     100.05,
		Volume:    1000,
		CloseTime: closeTime,
	}
	return &market.CandleContext{
		Candles:      []market.Candle{candle},
		CurrentPrice: candle.Close,
		ATR:          1.0,
		VolumeRatio:  volumeRatio,
	}
}

func TestAlignmentBaseTiers(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	ctx := quietContext(3, 1.0)

	cases := []struct {
		name       string
		htf        market.Direction
		confluence uint8
		want       float64
	}{
		{"full consensus", market.Bullish, 100, 50},
		{"agreement without confluence", market.Bullish, 50, 40},
		{"neutral bias", market.Neutral, 0, 30},
		{"opposed bias", market.Bearish, 0, 20},
	}

	for _, tc := range cases {
		biasCtx := bias.Context{HTFBias: tc.htf, HTFSource: "1D", MTFConfluence: tc.confluence}
		score := scorer.ScoreSignal(ctx, biasCtx, zones.ScanResult{}, nil, market.Bullish)
		if score.Base != tc.want {
			t.Errorf("%s: expected base %f, got %f", tc.name, tc.want, score.Base)
		}
		if score.Total != tc.want {
			t.Errorf("%s: expected total %f with no other factors, got %f", tc.name, tc.want, score.Total)
		}
	}
}

func TestDetectorContributions(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	ctx := quietContext(3, 1.0)
	biasCtx := bias.Context{HTFBias: market.Neutral, HTFSource: "fallback"}

	scan := zones.ScanResult{
		OrderBlocks: []zones.Zone{zones.OrderBlock{
			Low: 100, High: 102, Direction: market.Bullish, Strength: 100,
		}},
		FairValueGaps: []zones.Zone{
			zones.FairValueGap{Low: 103, High: 104, Direction: market.Bullish},
			zones.FairValueGap{Low: 105, High: 106, Direction: market.Bullish},
		},
		BreakerBlocks: []zones.Zone{zones.BreakerBlock{
			Low: 98, High: 99, Direction: market.Bullish, Strength: 60,
		}},
		MitigationBlocks: []zones.Zone{zones.MitigationBlock{
			Low: 100, High: 102, Direction: market.Bullish, RetestCount: 1, Strength: 60,
		}},
		ImbalanceZones: []zones.Zone{zones.ImbalanceZone{
			Low: 103, High: 104, ZoneKind: zones.SSIB,
		}},
	}

	score := scorer.ScoreSignal(ctx, biasCtx, scan, nil, market.Bullish)

	// 15 OB + 10 FVG + 5 breaker + 5 mitigation + 5 imbalance
	if score.Detectors != 40 {
		t.Errorf("Expected detector contribution 40, got %f", score.Detectors)
	}
	if score.Total != 70 {
		t.Errorf("Expected total 70, got %f", score.Total)
	}
}

func TestSingleFVGEarnsHalfCap(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	ctx := quietContext(3, 1.0)
	biasCtx := bias.Context{HTFBias: market.Neutral}

	scan := zones.ScanResult{
		FairValueGaps: []zones.Zone{
			zones.FairValueGap{Low: 103, High: 104, Direction: market.Bullish},
		},
	}

	score := scorer.ScoreSignal(ctx, biasCtx, scan, nil, market.Bullish)
	if score.Detectors != 5 {
		t.Errorf("Expected half FVG cap for a single gap, got %f", score.Detectors)
	}
}

// TestLowVolumePenaltySuppressedDuringPeak verifies the penalty and the
// session bonus never fire together
func TestLowVolumePenaltySuppressedDuringPeak(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	biasCtx := bias.Context{HTFBias: market.Neutral}

	offPeak := scorer.ScoreSignal(quietContext(3, 0.5), biasCtx, zones.ScanResult{}, nil, market.Bullish)
	if offPeak.Adjustments != -5 {
		t.Errorf("Expected -5 low-volume penalty off peak, got %f", offPeak.Adjustments)
	}

	peak := scorer.ScoreSignal(quietContext(13, 0.5), biasCtx, zones.ScanResult{}, nil, market.Bullish)
	if peak.Adjustments != 5 {
		t.Errorf("Expected only the +5 session bonus during peak, got %f", peak.Adjustments)
	}
}

func TestVolumeAnomalyBonus(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	biasCtx := bias.Context{HTFBias: market.Neutral}

	score := scorer.ScoreSignal(quietContext(3, 2.5), biasCtx, zones.ScanResult{}, nil, market.Bullish)
	if score.Adjustments != 5 {
		t.Errorf("Expected +5 volume anomaly bonus, got %f", score.Adjustments)
	}
}

func TestOutOfRangePenalty(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	biasCtx := bias.Context{HTFBias: market.Neutral}
	rc := &solver.RiskContext{OutOfOptimalRange: true}

	score := scorer.ScoreSignal(quietContext(3, 1.0), biasCtx, zones.ScanResult{}, rc, market.Bullish)
	if score.Adjustments != -10 {
		t.Errorf("Expected -10 out-of-range penalty, got %f", score.Adjustments)
	}
}

func TestStructureBreakAdjustment(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	biasCtx := bias.Context{HTFBias: market.Neutral}

	// Eleven flat candles, then a close above the prior swing high.
	// The last candle closes in the Asian session so no session bonus
	// muddies the assertion.
	base := int64(1705334400000) // 2024-01-15T16:00:00Z
	candles := make([]market.Candle, 12)
	for i := range candles {
		candles[i] = market.Candle{
			OpenTime:  base + int64(i)*3600000,
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100.5,
			Volume:    1000,
			CloseTime: base + int64(i)*3600000 + 3599999,
		}
	}
	candles[11].Open = 101.3
	candles[11].Close = 101.5
	candles[11].High = 101.6
	candles[11].Low = 101.2

	ctx := &market.CandleContext{
		Candles:      candles,
		CurrentPrice: 101.5,
		ATR:          1.0,
		VolumeRatio:  1.0,
	}

	with := scorer.ScoreSignal(ctx, biasCtx, zones.ScanResult{}, nil, market.Bullish)
	if with.Adjustments != 5 {
		t.Errorf("Expected +5 for break in signal direction, got %f", with.Adjustments)
	}

	against := scorer.ScoreSignal(ctx, biasCtx, zones.ScanResult{}, nil, market.Bearish)
	if against.Adjustments != -5 {
		t.Errorf("Expected -5 for break against signal direction, got %f", against.Adjustments)
	}
}
