package zones

import "smc-signal-engine/internal/market"

// Kind identifies a structural zone category
type Kind string

const (
	KindOrderBlock      Kind = "order_block"
	KindFairValueGap    Kind = "fair_value_gap"
	KindLiquidityPool   Kind = "liquidity_pool"
	KindBreakerBlock    Kind = "breaker_block"
	KindMitigationBlock Kind = "mitigation_block"
	KindImbalance       Kind = "imbalance"
)

// Zone is the closed set of structural zone types. Every consumer switches
// exhaustively on Kind(); there is exactly one concrete type per kind.
type Zone interface {
	Kind() Kind
	Bounds() (low, high float64)
	Bias() market.Direction
}

// PoolSide identifies which side of price a liquidity pool rests on
type PoolSide string

const (
	PoolAboveHighs PoolSide = "above_highs"
	PoolBelowLows  PoolSide = "below_lows"
)

// ImbalanceKind distinguishes the two imbalance zone flavors
type ImbalanceKind string

const (
	// SIBI: sellside imbalance, buyside inefficiency (bearish displacement)
	SIBI ImbalanceKind = "SIBI"
	// SSIB: buyside imbalance, sellside inefficiency (bullish displacement)
	SSIB ImbalanceKind = "SSIB"
)

// OrderBlock is a consolidation range preceding an impulsive move
type OrderBlock struct {
	Low         float64          `json:"low"`
	High        float64          `json:"high"`
	Direction   market.Direction `json:"direction"`
	Strength    float64          `json:"strength"` // 0-100
	CandleIndex int              `json:"candle_index"`
}

func (z OrderBlock) Kind() Kind                 { return KindOrderBlock }
func (z OrderBlock) Bounds() (float64, float64) { return z.Low, z.High }
func (z OrderBlock) Bias() market.Direction     { return z.Direction }

// FairValueGap is a three-candle price imbalance
type FairValueGap struct {
	Low         float64          `json:"low"`
	High        float64          `json:"high"`
	Direction   market.Direction `json:"direction"`
	Filled      bool             `json:"filled"`
	CandleIndex int              `json:"candle_index"`
}

func (z FairValueGap) Kind() Kind                 { return KindFairValueGap }
func (z FairValueGap) Bounds() (float64, float64) { return z.Low, z.High }
func (z FairValueGap) Bias() market.Direction     { return z.Direction }

// LiquidityPool is a swing high/low where resting orders cluster
type LiquidityPool struct {
	Price       float64  `json:"price"`
	Side        PoolSide `json:"side"`
	CandleIndex int      `json:"candle_index"`
}

func (z LiquidityPool) Kind() Kind                 { return KindLiquidityPool }
func (z LiquidityPool) Bounds() (float64, float64) { return z.Price, z.Price }
func (z LiquidityPool) Bias() market.Direction     { return market.Neutral }

// BreakerBlock is a breached order block with flipped polarity
type BreakerBlock struct {
	Low            float64          `json:"low"`
	High           float64          `json:"high"`
	Direction      market.Direction `json:"direction"` // flipped from origin
	OriginStrength float64          `json:"origin_strength"`
	Strength       float64          `json:"strength"`
	CandleIndex    int              `json:"candle_index"`
}

func (z BreakerBlock) Kind() Kind                 { return KindBreakerBlock }
func (z BreakerBlock) Bounds() (float64, float64) { return z.Low, z.High }
func (z BreakerBlock) Bias() market.Direction     { return z.Direction }

// MitigationBlock is a retested-but-unbreached order block
type MitigationBlock struct {
	Low         float64          `json:"low"`
	High        float64          `json:"high"`
	Direction   market.Direction `json:"direction"`
	RetestCount int              `json:"retest_count"`
	Strength    float64          `json:"strength"`
	CandleIndex int              `json:"candle_index"`
}

func (z MitigationBlock) Kind() Kind                 { return KindMitigationBlock }
func (z MitigationBlock) Bounds() (float64, float64) { return z.Low, z.High }
func (z MitigationBlock) Bias() market.Direction     { return z.Direction }

// ImbalanceZone is a displacement-driven zone requiring a co-located FVG
// and a liquidity void
type ImbalanceZone struct {
	Low         float64       `json:"low"`
	High        float64       `json:"high"`
	ZoneKind    ImbalanceKind `json:"zone_kind"`
	CandleIndex int           `json:"candle_index"`
}

func (z ImbalanceZone) Kind() Kind                 { return KindImbalance }
func (z ImbalanceZone) Bounds() (float64, float64) { return z.Low, z.High }

func (z ImbalanceZone) Bias() market.Direction {
	if z.ZoneKind == SSIB {
		return market.Bullish
	}
	return market.Bearish
}

// Contains reports whether a price sits inside the zone bounds
func Contains(z Zone, price float64) bool {
	low, high := z.Bounds()
	return price >= low && price <= high
}

// Midpoint returns the center of the zone bounds
func Midpoint(z Zone) float64 {
	low, high := z.Bounds()
	return (low + high) / 2
}
