package bias

import (
	"sort"

	"smc-signal-engine/internal/market"
)

// Context holds the resolved multi-timeframe bias.
// HTFSource records the fallback path actually taken; a missing primary
// series is never mislabeled as a computed one.
type Context struct {
	HTFBias       market.Direction `json:"htf_bias"`
	HTFSource     string           `json:"htf_source"` // "1D", "4H" or "fallback"
	MTFConfluence uint8            `json:"mtf_confluence"`
}

// Resolver derives higher-timeframe bias with a fallback chain and a
// confluence score across whatever timeframes are available
type Resolver struct {
	primaryTF   string
	secondaryTF string
	minCandles  int
	minChange   float64 // net % change below which bias is neutral
}

// Config holds bias resolver configuration
type Config struct {
	PrimaryTimeframe   string  `json:"primary_timeframe"`
	SecondaryTimeframe string  `json:"secondary_timeframe"`
	MinCandles         int     `json:"min_candles"`
	MinChangePercent   float64 `json:"min_change_percent"`
}

// DefaultConfig returns the default resolver configuration
func DefaultConfig() Config {
	return Config{
		PrimaryTimeframe:   "1d",
		SecondaryTimeframe: "4h",
		MinCandles:         20,
		MinChangePercent:   0.5,
	}
}

// NewResolver creates a bias resolver
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.PrimaryTimeframe == "" {
		cfg.PrimaryTimeframe = def.PrimaryTimeframe
	}
	if cfg.SecondaryTimeframe == "" {
		cfg.SecondaryTimeframe = def.SecondaryTimeframe
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = def.MinCandles
	}
	if cfg.MinChangePercent <= 0 {
		cfg.MinChangePercent = def.MinChangePercent
	}
	return &Resolver{
		primaryTF:   cfg.PrimaryTimeframe,
		secondaryTF: cfg.SecondaryTimeframe,
		minCandles:  cfg.MinCandles,
		minChange:   cfg.MinChangePercent,
	}
}

// Resolve attempts the primary timeframe first, then the secondary, then
// settles on Neutral with source "fallback". An absent or short series is
// distinct from a series that computed to Neutral: the former moves down
// the chain, the latter resolves with its real source label.
func (r *Resolver) Resolve(mtf map[string][]market.Candle) Context {
	ctx := Context{
		HTFBias:       market.Neutral,
		HTFSource:     "fallback",
		MTFConfluence: r.confluence(mtf),
	}

	if dir, ok := r.timeframeBias(mtf[r.primaryTF]); ok {
		ctx.HTFBias = dir
		ctx.HTFSource = sourceLabel(r.primaryTF)
		return ctx
	}

	if dir, ok := r.timeframeBias(mtf[r.secondaryTF]); ok {
		ctx.HTFBias = dir
		ctx.HTFSource = sourceLabel(r.secondaryTF)
		return ctx
	}

	return ctx
}

// timeframeBias computes directional bias for one series. The second return
// is false when the series is absent or too short to trust.
func (r *Resolver) timeframeBias(candles []market.Candle) (market.Direction, bool) {
	if len(candles) < r.minCandles {
		return market.Neutral, false
	}

	window := candles
	if len(window) > r.minCandles {
		window = window[len(window)-r.minCandles:]
	}

	first := window[0].Close
	last := window[len(window)-1].Close
	if first <= 0 {
		return market.Neutral, false
	}

	changePct := ((last - first) / first) * 100

	// Structure check: share of candles closing above their open
	bullCount := 0
	for _, c := range window {
		if c.IsBullish() {
			bullCount++
		}
	}
	bullShare := float64(bullCount) / float64(len(window))

	switch {
	case changePct >= r.minChange && bullShare >= 0.45:
		return market.Bullish, true
	case changePct <= -r.minChange && bullShare <= 0.55:
		return market.Bearish, true
	default:
		return market.Neutral, true
	}
}

// confluence returns the percentage of available timeframes agreeing with
// the dominant direction, 0-100
func (r *Resolver) confluence(mtf map[string][]market.Candle) uint8 {
	// Deterministic iteration order
	tfs := make([]string, 0, len(mtf))
	for tf := range mtf {
		tfs = append(tfs, tf)
	}
	sort.Strings(tfs)

	var directions []market.Direction
	counts := map[market.Direction]int{}
	for _, tf := range tfs {
		dir, ok := r.timeframeBias(mtf[tf])
		if !ok {
			continue
		}
		directions = append(directions, dir)
		counts[dir]++
	}

	if len(directions) == 0 {
		return 0
	}

	dominant := market.Neutral
	best := 0
	if counts[market.Bullish] > best {
		dominant = market.Bullish
		best = counts[market.Bullish]
	}
	if counts[market.Bearish] > best {
		dominant = market.Bearish
		best = counts[market.Bearish]
	}
	if dominant == market.Neutral {
		return 0
	}

	return uint8((best * 100) / len(directions))
}

func sourceLabel(tf string) string {
	switch tf {
	case "1d", "1D":
		return "1D"
	case "4h", "4H":
		return "4H"
	default:
		return tf
	}
}
