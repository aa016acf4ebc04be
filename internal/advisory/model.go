package advisory

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"smc-signal-engine/internal/market"
)

// ErrModelUntrained indicates a model artifact without trained weights
var ErrModelUntrained = errors.New("model is not trained")

// Features are the inputs extracted for a prediction. They mirror what the
// external training loop records alongside outcomes.
type Features struct {
	RSI            float64 `json:"rsi"`
	VolumeRatio    float64 `json:"volume_ratio"`
	RangePosition  float64 `json:"range_position"`
	ATRPercent     float64 `json:"atr_percent"`
	MTFConfluence  float64 `json:"mtf_confluence"`
	ZoneCount      float64 `json:"zone_count"`
	RiskReward     float64 `json:"risk_reward"`
	BaseConfidence float64 `json:"base_confidence"`
}

// Prediction is a model's directional lean with its own confidence.
// The pipeline only ever consumes it as a bounded confidence modifier.
type Prediction struct {
	Direction  market.Direction
	Confidence float64 // 0-1
}

// Model is a trained, read-only prediction artifact. Implementations must
// be safe for concurrent Predict calls; the engine never mutates or
// retrains a model inline.
type Model interface {
	Predict(f Features) (Prediction, error)
}

// LinearModel is a logistic scorer over the feature vector, loaded from a
// JSON artifact produced by the external training loop
type LinearModel struct {
	Weights struct {
		RSI           float64 `json:"rsi"`
		VolumeRatio   float64 `json:"volume_ratio"`
		RangePosition float64 `json:"range_position"`
		ATRPercent    float64 `json:"atr_percent"`
		MTFConfluence float64 `json:"mtf_confluence"`
		ZoneCount     float64 `json:"zone_count"`
		RiskReward    float64 `json:"risk_reward"`
		Bias          float64 `json:"bias"`
	} `json:"weights"`
	Trained      bool   `json:"trained"`
	TrainedAt    string `json:"trained_at,omitempty"`
	SampleCount  int    `json:"sample_count,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
}

// LoadModel reads a model artifact from disk
func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}
	return &m, nil
}

// Predict scores the features through the logistic. Output above 0.5 leans
// bullish, below leans bearish; confidence is the distance from indifference.
func (m *LinearModel) Predict(f Features) (Prediction, error) {
	if !m.Trained {
		return Prediction{}, ErrModelUntrained
	}

	w := m.Weights
	// RSI centered at 50 so neutral momentum contributes nothing
	z := w.Bias +
		w.RSI*((f.RSI-50)/50) +
		w.VolumeRatio*(f.VolumeRatio-1) +
		w.RangePosition*(f.RangePosition-0.5) +
		w.ATRPercent*f.ATRPercent +
		w.MTFConfluence*(f.MTFConfluence/100) +
		w.ZoneCount*(f.ZoneCount/10) +
		w.RiskReward*(f.RiskReward/10)

	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return Prediction{}, fmt.Errorf("model produced non-finite output")
	}

	dir := market.Bearish
	if p >= 0.5 {
		dir = market.Bullish
	}

	return Prediction{
		Direction:  dir,
		Confidence: math.Abs(p-0.5) * 2,
	}, nil
}
