package market

import (
	"fmt"
	"sort"
)

// CandleContext is a read-only derived view over a candle sequence.
// It is computed once per evaluation and never mutated afterward.
// All indicators here are deliberately moving-average free so that zone
// detection downstream stays MA-free.
type CandleContext struct {
	Candles       []Candle
	CurrentPrice  float64
	RSI           float64
	ATR           float64
	VolumeRatio   float64 // current volume / rolling median volume
	RangePosition float64 // 0 = at window low, 1 = at window high
}

// ContextBuilder derives a CandleContext from raw candles
type ContextBuilder struct {
	rsiPeriod    int
	atrPeriod    int
	medianPeriod int
	rangePeriod  int
	minCandles   int
}

// BuilderConfig holds context builder configuration
type BuilderConfig struct {
	RSIPeriod    int `json:"rsi_period"`
	ATRPeriod    int `json:"atr_period"`
	MedianPeriod int `json:"median_period"`
	RangePeriod  int `json:"range_period"`
	MinCandles   int `json:"min_candles"`
}

// DefaultBuilderConfig returns the default context builder configuration
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		RSIPeriod:    14,
		ATRPeriod:    14,
		MedianPeriod: 20,
		RangePeriod:  20,
		MinCandles:   20,
	}
}

// NewContextBuilder creates a context builder, filling zero fields
// with defaults
func NewContextBuilder(cfg BuilderConfig) *ContextBuilder {
	def := DefaultBuilderConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.MedianPeriod <= 0 {
		cfg.MedianPeriod = def.MedianPeriod
	}
	if cfg.RangePeriod <= 0 {
		cfg.RangePeriod = def.RangePeriod
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = def.MinCandles
	}
	return &ContextBuilder{
		rsiPeriod:    cfg.RSIPeriod,
		atrPeriod:    cfg.ATRPeriod,
		medianPeriod: cfg.MedianPeriod,
		rangePeriod:  cfg.RangePeriod,
		minCandles:   cfg.MinCandles,
	}
}

// Build validates the candle series and derives the context.
// Validation happens before any math so NaNs never propagate downstream.
func (b *ContextBuilder) Build(candles []Candle) (*CandleContext, error) {
	if len(candles) < b.minCandles {
		return nil, fmt.Errorf("%w: need %d candles, got %d",
			ErrInsufficientData, b.minCandles, len(candles))
	}
	if err := ValidateSeries(candles); err != nil {
		return nil, err
	}

	last := candles[len(candles)-1]

	return &CandleContext{
		Candles:       candles,
		CurrentPrice:  last.Close,
		RSI:           CalculateRSI(candles, b.rsiPeriod),
		ATR:           CalculateATR(candles, b.atrPeriod),
		VolumeRatio:   medianVolumeRatio(candles, b.medianPeriod),
		RangePosition: rangePosition(candles, b.rangePeriod),
	}, nil
}

// CalculateRSI calculates the Relative Strength Index over the final period
func CalculateRSI(candles []Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0 // Neutral RSI
	}

	gains := 0.0
	losses := 0.0

	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// CalculateATR calculates the Average True Range
func CalculateATR(candles []Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		c := candles[i]
		prev := candles[i-1]

		tr := c.High - c.Low
		if hc := abs(c.High - prev.Close); hc > tr {
			tr = hc
		}
		if lc := abs(c.Low - prev.Close); lc > tr {
			tr = lc
		}
		sum += tr
	}

	return sum / float64(period)
}

// medianVolumeRatio compares current volume against the rolling median.
// Median rather than mean so a single volume spike in the window does not
// distort the baseline.
func medianVolumeRatio(candles []Candle, period int) float64 {
	if len(candles) < period {
		period = len(candles)
	}
	if period == 0 {
		return 0
	}

	window := make([]float64, 0, period)
	for i := len(candles) - period; i < len(candles); i++ {
		window = append(window, candles[i].Volume)
	}
	sort.Float64s(window)

	var median float64
	mid := period / 2
	if period%2 == 0 {
		median = (window[mid-1] + window[mid]) / 2
	} else {
		median = window[mid]
	}

	if median == 0 {
		return 0
	}
	return candles[len(candles)-1].Volume / median
}

// rangePosition returns where the current close sits within the
// high-low range of the last period candles, from 0 (low) to 1 (high)
func rangePosition(candles []Candle, period int) float64 {
	if len(candles) < period {
		period = len(candles)
	}

	high := candles[len(candles)-period].High
	low := candles[len(candles)-period].Low
	for i := len(candles) - period; i < len(candles); i++ {
		if candles[i].High > high {
			high = candles[i].High
		}
		if candles[i].Low < low {
			low = candles[i].Low
		}
	}

	if high == low {
		return 0.5
	}

	pos := (candles[len(candles)-1].Close - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
