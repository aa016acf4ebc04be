package zones

// DetectorConfig holds the named tuning thresholds for all zone detectors.
// These are tuning knobs, not correctness parameters; defaults match the
// values the detectors were calibrated with.
type DetectorConfig struct {
	// Order blocks
	MinOrderBlockStrength float64 `json:"min_order_block_strength"` // 0-100
	DisplacementATRMult   float64 `json:"displacement_atr_mult"`    // impulse body vs ATR

	// Fair value gaps: OR logic, either threshold admits the gap
	MinGapPercent  float64 `json:"min_gap_percent"`
	MinGapAbsolute float64 `json:"min_gap_absolute"`

	// Liquidity pools
	SwingLookback int `json:"swing_lookback"`

	// Breaker blocks
	BreakerRetention   float64 `json:"breaker_retention"`    // origin strength retained on flip
	BreakerVolumeBonus float64 `json:"breaker_volume_bonus"` // added on volume spike
	MaxZoneStrength    float64 `json:"max_zone_strength"`

	// Mitigation blocks
	RetestStrengthMult float64 `json:"retest_strength_mult"` // per un-breached retest

	// Imbalance zones
	MinDisplacementBodyPct float64 `json:"min_displacement_body_pct"`
	LiquidityVoidRatio     float64 `json:"liquidity_void_ratio"` // volume vs local average
}

// DefaultDetectorConfig returns the default detector thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinOrderBlockStrength:  40,
		DisplacementATRMult:    1.5,
		MinGapPercent:          0.1,
		MinGapAbsolute:         0,
		SwingLookback:          3,
		BreakerRetention:       0.75,
		BreakerVolumeBonus:     10,
		MaxZoneStrength:        100,
		RetestStrengthMult:     1.2,
		MinDisplacementBodyPct: 0.5,
		LiquidityVoidRatio:     0.6,
	}
}

// normalized fills zero-valued knobs with defaults so a partially
// populated config never silently disables a detector
func (c DetectorConfig) normalized() DetectorConfig {
	def := DefaultDetectorConfig()
	if c.MinOrderBlockStrength <= 0 {
		c.MinOrderBlockStrength = def.MinOrderBlockStrength
	}
	if c.DisplacementATRMult <= 0 {
		c.DisplacementATRMult = def.DisplacementATRMult
	}
	if c.MinGapPercent <= 0 {
		c.MinGapPercent = def.MinGapPercent
	}
	if c.SwingLookback <= 0 {
		c.SwingLookback = def.SwingLookback
	}
	if c.BreakerRetention <= 0 {
		c.BreakerRetention = def.BreakerRetention
	}
	if c.BreakerVolumeBonus < 0 {
		c.BreakerVolumeBonus = def.BreakerVolumeBonus
	}
	if c.MaxZoneStrength <= 0 {
		c.MaxZoneStrength = def.MaxZoneStrength
	}
	if c.RetestStrengthMult <= 1 {
		c.RetestStrengthMult = def.RetestStrengthMult
	}
	if c.MinDisplacementBodyPct <= 0 {
		c.MinDisplacementBodyPct = def.MinDisplacementBodyPct
	}
	if c.LiquidityVoidRatio <= 0 {
		c.LiquidityVoidRatio = def.LiquidityVoidRatio
	}
	return c
}
