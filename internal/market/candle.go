package market

import (
	"fmt"
	"math"
	"time"
)

// Candle represents a single OHLCV candle for one timeframe
type Candle struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

// Body returns the absolute size of the candle body
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range returns the full high-low range of the candle
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// IsBullish reports whether the candle closed above its open
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// BodyPercent returns the body size as a percentage of the close price
func (c Candle) BodyPercent() float64 {
	if c.Close == 0 {
		return 0
	}
	return (c.Body() / c.Close) * 100
}

// Time returns the candle close time as a time.Time in UTC
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.CloseTime).UTC()
}

// Validate checks a single candle for malformed values
func (c Candle) Validate() error {
	fields := map[string]float64{
		"open":   c.Open,
		"high":   c.High,
		"low":    c.Low,
		"close":  c.Close,
		"volume": c.Volume,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrMalformedData, name)
		}
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("%w: non-positive price", ErrMalformedData)
	}
	if c.Volume < 0 {
		return fmt.Errorf("%w: negative volume", ErrMalformedData)
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %.8f below low %.8f", ErrMalformedData, c.High, c.Low)
	}
	return nil
}

// ValidateSeries checks an ordered candle sequence for gaps in ordering
// and malformed values. It rejects rather than letting NaNs reach the math.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && c.OpenTime <= candles[i-1].OpenTime {
			return fmt.Errorf("%w: candle %d out of order", ErrMalformedData, i)
		}
	}
	return nil
}
