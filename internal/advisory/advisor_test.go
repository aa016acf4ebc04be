package advisory

import (
	"errors"
	"math"
	"strings"
	"testing"

	"smc-signal-engine/internal/market"
)

type stubModel struct {
	pred Prediction
	err  error
}

func (m stubModel) Predict(Features) (Prediction, error) {
	return m.pred, m.err
}

func TestNilModelDegradesToNeutral(t *testing.T) {
	advisor := NewAdvisor(DefaultConfig(), nil)

	advice := advisor.ConfidenceModifier(Features{}, market.Bullish, 70)
	if advice.Modifier != 0 {
		t.Errorf("Expected neutral modifier, got %f", advice.Modifier)
	}
	if len(advice.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(advice.Warnings))
	}
}

func TestPredictionFailureDegradesToNeutral(t *testing.T) {
	advisor := NewAdvisor(DefaultConfig(), stubModel{err: errors.New("boom")})

	advice := advisor.ConfidenceModifier(Features{}, market.Bullish, 70)
	if advice.Modifier != 0 {
		t.Errorf("Expected neutral modifier on failure, got %f", advice.Modifier)
	}
	if len(advice.Warnings) != 1 || !strings.Contains(advice.Warnings[0], "boom") {
		t.Errorf("Expected warning carrying the failure, got %v", advice.Warnings)
	}
}

func TestAgreementBoostsWithinBound(t *testing.T) {
	advisor := NewAdvisor(DefaultConfig(), stubModel{
		pred: Prediction{Direction: market.Bullish, Confidence: 0.6},
	})

	advice := advisor.ConfidenceModifier(Features{}, market.Bullish, 70)
	if math.Abs(advice.Modifier-0.06) > 1e-9 {
		t.Errorf("Expected modifier 0.06, got %f", advice.Modifier)
	}
	if len(advice.Warnings) != 0 {
		t.Errorf("Expected no warnings on agreement, got %v", advice.Warnings)
	}
}

// TestDisagreementPenalizesButNeverRedirects verifies the contract: the
// locked direction is untouched, the lean surfaces as penalty plus warning
func TestDisagreementPenalizesButNeverRedirects(t *testing.T) {
	advisor := NewAdvisor(DefaultConfig(), stubModel{
		pred: Prediction{Direction: market.Bearish, Confidence: 0.8},
	})

	advice := advisor.ConfidenceModifier(Features{}, market.Bullish, 70)
	if math.Abs(advice.Modifier-(-0.12)) > 1e-9 {
		t.Errorf("Expected modifier -0.12, got %f", advice.Modifier)
	}
	if len(advice.Warnings) != 1 {
		t.Fatalf("Expected disagreement warning, got %v", advice.Warnings)
	}
}

// TestModifierBounds verifies the hard clamp at full model confidence
func TestModifierBounds(t *testing.T) {
	boost := NewAdvisor(DefaultConfig(), stubModel{
		pred: Prediction{Direction: market.Bullish, Confidence: 1.0},
	}).ConfidenceModifier(Features{}, market.Bullish, 70)
	if boost.Modifier > 0.10+1e-9 {
		t.Errorf("Modifier %f exceeds max boost", boost.Modifier)
	}

	penalty := NewAdvisor(DefaultConfig(), stubModel{
		pred: Prediction{Direction: market.Bearish, Confidence: 1.0},
	}).ConfidenceModifier(Features{}, market.Bullish, 70)
	if penalty.Modifier < -0.15-1e-9 {
		t.Errorf("Modifier %f exceeds max penalty", penalty.Modifier)
	}
}

func TestUntrainedModelErrors(t *testing.T) {
	m := &LinearModel{}
	if _, err := m.Predict(Features{}); !errors.Is(err, ErrModelUntrained) {
		t.Fatalf("Expected ErrModelUntrained, got %v", err)
	}
}

func TestLinearModelDirectionFromLogistic(t *testing.T) {
	m := &LinearModel{Trained: true}
	m.Weights.RSI = 2.0

	bullish, err := m.Predict(Features{RSI: 90})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if bullish.Direction != market.Bullish {
		t.Errorf("Expected bullish lean on high RSI weight, got %s", bullish.Direction)
	}
	if bullish.Confidence <= 0 || bullish.Confidence > 1 {
		t.Errorf("Confidence out of range: %f", bullish.Confidence)
	}

	bearish, err := m.Predict(Features{RSI: 10})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if bearish.Direction != market.Bearish {
		t.Errorf("Expected bearish lean on low RSI, got %s", bearish.Direction)
	}
}
