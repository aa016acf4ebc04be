package market

import "errors"

var (
	// ErrInsufficientData indicates fewer candles than the builder requires
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrMalformedData indicates NaN/Inf values, non-positive prices or
	// broken ordering in the input series
	ErrMalformedData = errors.New("malformed candle data")
)
