package gates

import "github.com/rs/zerolog"

// Outcome is the pipeline verdict. Evaluated lists the gates that actually
// ran, in order, so callers and tests can verify the short-circuit.
type Outcome struct {
	Passed    bool     `json:"passed"`
	BlockedBy string   `json:"blocked_by,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Evaluated []string `json:"evaluated"`
}

// Pipeline runs the four admission gates in fixed order with short-circuit.
// The first failure is a hard block; later gates never run.
type Pipeline struct {
	gates  []Gate
	logger zerolog.Logger
}

// NewPipeline creates the standard four-gate pipeline:
// entry gating, confidence threshold, execution eligibility, risk admission.
func NewPipeline(cfg Config, logger zerolog.Logger) *Pipeline {
	cfg = cfg.normalized()
	return &Pipeline{
		gates: []Gate{
			&EntryGate{cfg: cfg},
			&ConfidenceGate{cfg: cfg},
			&ExecutionGate{cfg: cfg},
			&RiskGate{cfg: cfg},
		},
		logger: logger,
	}
}

// Run evaluates the gates in order. Passes log at debug, blocks at info
// with the specific limit and value that triggered the block.
func (p *Pipeline) Run(ctx *Context) Outcome {
	outcome := Outcome{Evaluated: make([]string, 0, len(p.gates))}

	for _, gate := range p.gates {
		outcome.Evaluated = append(outcome.Evaluated, gate.Name())
		result := gate.Evaluate(ctx)

		if !result.Passed {
			p.logger.Info().
				Str("gate", gate.Name()).
				Str("symbol", ctx.Symbol).
				Str("direction", string(ctx.Direction)).
				Str("reason", result.Reason).
				Msg("signal blocked")
			outcome.BlockedBy = gate.Name()
			outcome.Reason = result.Reason
			return outcome
		}

		p.logger.Debug().
			Str("gate", gate.Name()).
			Str("symbol", ctx.Symbol).
			Msg("gate passed")
	}

	outcome.Passed = true
	return outcome
}
