package zones

import "smc-signal-engine/internal/market"

// ScanResult groups detected zones by category
type ScanResult struct {
	OrderBlocks      []Zone `json:"order_blocks"`
	FairValueGaps    []Zone `json:"fair_value_gaps"`
	LiquidityPools   []Zone `json:"liquidity_pools"`
	BreakerBlocks    []Zone `json:"breaker_blocks"`
	MitigationBlocks []Zone `json:"mitigation_blocks"`
	ImbalanceZones   []Zone `json:"imbalance_zones"`
}

// All returns every detected zone across categories
func (r ScanResult) All() []Zone {
	out := make([]Zone, 0,
		len(r.OrderBlocks)+len(r.FairValueGaps)+len(r.LiquidityPools)+
			len(r.BreakerBlocks)+len(r.MitigationBlocks)+len(r.ImbalanceZones))
	out = append(out, r.OrderBlocks...)
	out = append(out, r.FairValueGaps...)
	out = append(out, r.LiquidityPools...)
	out = append(out, r.BreakerBlocks...)
	out = append(out, r.MitigationBlocks...)
	out = append(out, r.ImbalanceZones...)
	return out
}

// Scanner runs every structural zone detector over one candle window.
// Scanners hold no mutable state, so one instance is safe to share across
// concurrent evaluations.
type Scanner struct {
	orderBlocks *OrderBlockDetector
	fvgs        *FVGDetector
	liquidity   *LiquidityDetector
	breakers    *BreakerDetector
	mitigations *MitigationDetector
	imbalances  *ImbalanceDetector
}

// NewScanner creates a scanner with all detectors sharing one config
func NewScanner(cfg DetectorConfig) *Scanner {
	return &Scanner{
		orderBlocks: NewOrderBlockDetector(cfg),
		fvgs:        NewFVGDetector(cfg),
		liquidity:   NewLiquidityDetector(cfg),
		breakers:    NewBreakerDetector(cfg),
		mitigations: NewMitigationDetector(cfg),
		imbalances:  NewImbalanceDetector(cfg),
	}
}

// Scan runs all detectors. Detectors return empty slices rather than
// partial zones on thin input, so the result is always usable.
func (s *Scanner) Scan(candles []market.Candle) ScanResult {
	obs := s.orderBlocks.Detect(candles)
	gaps := s.fvgs.Detect(candles)

	return ScanResult{
		OrderBlocks:      obs,
		FairValueGaps:    gaps,
		LiquidityPools:   s.liquidity.Detect(candles),
		BreakerBlocks:    s.breakers.Detect(candles, obs),
		MitigationBlocks: s.mitigations.Detect(candles, obs),
		ImbalanceZones:   s.imbalances.Detect(candles, gaps),
	}
}
