package market

// Tier classifies signal strength. Strong-tier signals face a higher
// confidence threshold at the gate pipeline.
type Tier string

const (
	TierOrdinary Tier = "ordinary"
	TierStrong   Tier = "strong"
)
