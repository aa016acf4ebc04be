package advisory

import (
	"fmt"

	"smc-signal-engine/internal/market"
)

// Advice carries only a bounded confidence modifier plus warnings. It has
// no direction or price fields on purpose: the type itself enforces that
// the ML step stays advisory.
type Advice struct {
	Modifier     float64  `json:"modifier"` // within [-MaxPenalty, +MaxBoost]
	MLConfidence float64  `json:"ml_confidence"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Config holds the advisory bounds
type Config struct {
	MaxBoost   float64 `json:"max_boost"`   // default +0.10
	MaxPenalty float64 `json:"max_penalty"` // default 0.15
}

// DefaultConfig returns the default advisory bounds
func DefaultConfig() Config {
	return Config{
		MaxBoost:   0.10,
		MaxPenalty: 0.15,
	}
}

// Advisor turns model predictions into bounded confidence modifiers
type Advisor struct {
	cfg   Config
	model Model // optional; nil degrades every call to a no-op
}

// NewAdvisor creates an advisor around an optional model handle
func NewAdvisor(cfg Config, model Model) *Advisor {
	def := DefaultConfig()
	if cfg.MaxBoost <= 0 {
		cfg.MaxBoost = def.MaxBoost
	}
	if cfg.MaxPenalty <= 0 {
		cfg.MaxPenalty = def.MaxPenalty
	}
	return &Advisor{cfg: cfg, model: model}
}

// ConfidenceModifier returns the bounded modifier for a locked direction.
// It never proposes an alternative direction: disagreement surfaces as a
// negative modifier plus a warning. Any internal failure degrades to a
// neutral modifier rather than an error; ML is advisory, not a fault path.
func (a *Advisor) ConfidenceModifier(f Features, lockedDir market.Direction, baseConfidence float64) Advice {
	if a.model == nil {
		return Advice{Warnings: []string{"ML model unavailable, neutral modifier applied"}}
	}

	pred, err := a.model.Predict(f)
	if err != nil {
		return Advice{Warnings: []string{
			fmt.Sprintf("ML prediction failed (%v), neutral modifier applied", err),
		}}
	}

	advice := Advice{MLConfidence: pred.Confidence}

	if pred.Direction == lockedDir {
		advice.Modifier = pred.Confidence * a.cfg.MaxBoost
		if advice.Modifier > a.cfg.MaxBoost {
			advice.Modifier = a.cfg.MaxBoost
		}
	} else {
		advice.Modifier = -(pred.Confidence * a.cfg.MaxPenalty)
		if advice.Modifier < -a.cfg.MaxPenalty {
			advice.Modifier = -a.cfg.MaxPenalty
		}
		advice.Warnings = append(advice.Warnings,
			fmt.Sprintf("ML leans %s against locked %s direction (ml confidence %.2f)",
				pred.Direction, lockedDir, pred.Confidence))
	}

	return advice
}
