package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smc-signal-engine/internal/advisory"
	"smc-signal-engine/internal/bias"
	"smc-signal-engine/internal/confidence"
	"smc-signal-engine/internal/gates"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/outcomes"
	"smc-signal-engine/internal/solver"
	"smc-signal-engine/internal/zones"
)

// Request is one evaluation's complete input: the candle data plus the
// read-only snapshots supplied by the execution and portfolio
// collaborators. The engine fetches nothing itself.
type Request struct {
	Symbol    string
	Timeframe string
	Candles   []market.Candle
	MTF       map[string][]market.Candle

	System    gates.SystemState
	Execution gates.ExecutionState
	Risk      gates.RiskSnapshot

	// Recent signals known outside this engine instance (e.g. from a
	// shared store); merged with the engine's own ring buffer for the
	// duplicate/cooldown check
	Recent []gates.RecentSignal
}

// Config aggregates the per-stage configurations
type Config struct {
	Builder   market.BuilderConfig `json:"builder"`
	Detectors zones.DetectorConfig `json:"detectors"`
	Bias      bias.Config          `json:"bias"`
	Solver    solver.Config        `json:"solver"`
	Scorer    confidence.Config    `json:"scorer"`
	Advisory  advisory.Config      `json:"advisory"`
	Gates     gates.Config         `json:"gates"`

	RecentBufferSize        int   `json:"recent_buffer_size"`
	StrongTierMinConfluence uint8 `json:"strong_tier_min_confluence"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Builder:                 market.DefaultBuilderConfig(),
		Detectors:               zones.DefaultDetectorConfig(),
		Bias:                    bias.DefaultConfig(),
		Solver:                  solver.DefaultConfig(),
		Scorer:                  confidence.DefaultConfig(),
		Advisory:                advisory.DefaultConfig(),
		Gates:                   gates.DefaultConfig(),
		RecentBufferSize:        50,
		StrongTierMinConfluence: 80,
	}
}

// Engine is the deterministic signal-generation pipeline. It is cheap to
// construct and holds no mutable detector state; the only guarded state is
// the recent-signal ring buffer feeding the duplicate/cooldown check.
type Engine struct {
	builder  *market.ContextBuilder
	scanner  *zones.Scanner
	resolver *bias.Resolver
	solver   *solver.Solver
	scorer   *confidence.Scorer
	advisor  *advisory.Advisor
	pipeline *gates.Pipeline
	recorder outcomes.Recorder
	logger   zerolog.Logger
	cfg      Config

	mu     sync.Mutex
	recent []*Signal
}

// New creates an engine. model and recorder are optional: a nil model
// degrades the advisory step to a no-op, a nil recorder makes
// RecordOutcome fail loudly rather than drop data silently.
func New(cfg Config, model advisory.Model, recorder outcomes.Recorder, logger zerolog.Logger) *Engine {
	if cfg.RecentBufferSize <= 0 {
		cfg.RecentBufferSize = DefaultConfig().RecentBufferSize
	}
	if cfg.StrongTierMinConfluence == 0 {
		cfg.StrongTierMinConfluence = DefaultConfig().StrongTierMinConfluence
	}
	return &Engine{
		builder:  market.NewContextBuilder(cfg.Builder),
		scanner:  zones.NewScanner(cfg.Detectors),
		resolver: bias.NewResolver(cfg.Bias),
		solver:   solver.NewSolver(cfg.Solver),
		scorer:   confidence.NewScorer(cfg.Scorer),
		advisor:  advisory.NewAdvisor(cfg.Advisory, model),
		pipeline: gates.NewPipeline(cfg.Gates, logger),
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
	}
}

// GenerateSignal runs the full pipeline over one evaluation request.
// A nil signal with nil error means a gate blocked or no setup existed;
// the reason is in the logs. Errors are either bad input data or a solver
// invariant violation, which is loud by design.
func (e *Engine) GenerateSignal(req Request) (*Signal, error) {
	sig, _, err := e.Evaluate(req)
	return sig, err
}

// Evaluate is GenerateSignal with the gate verdict exposed, so callers can
// surface the block reason instead of just observing a nil signal. The
// outcome is nil when evaluation never reached the gates.
func (e *Engine) Evaluate(req Request) (*Signal, *gates.Outcome, error) {
	log := e.logger.With().Str("symbol", req.Symbol).Str("timeframe", req.Timeframe).Logger()

	ctx, err := e.builder.Build(req.Candles)
	if err != nil {
		return nil, nil, err
	}

	scan := e.scanner.Scan(req.Candles)
	biasCtx := e.resolver.Resolve(req.MTF)

	dir := e.chooseDirection(ctx, biasCtx, scan)
	if dir == market.Neutral {
		log.Debug().Msg("no directional bias, no signal")
		return nil, nil, nil
	}

	rc, err := e.solver.Solve(ctx, scan, dir)
	if err != nil {
		return nil, nil, err
	}

	score := e.scorer.ScoreSignal(ctx, biasCtx, scan, rc, dir)

	features := e.extractFeatures(ctx, biasCtx, scan, rc, score.Total)
	advice := e.advisor.ConfidenceModifier(features, dir, score.Total)
	finalConfidence := clamp(score.Total*(1+advice.Modifier), 0, 100)

	tier := market.TierOrdinary
	if biasCtx.MTFConfluence >= e.cfg.StrongTierMinConfluence && biasCtx.HTFBias == dir {
		tier = market.TierStrong
	}

	evalTime := req.Candles[len(req.Candles)-1].Time()
	gateCtx := &gates.Context{
		Symbol:         req.Symbol,
		Direction:      dir,
		Tier:           tier,
		Confidence:     finalConfidence,
		EvaluationTime: evalTime,
		System:         req.System,
		Recent:         append(e.recentForGate(), req.Recent...),
		Execution:      req.Execution,
		Risk:           req.Risk,
	}

	outcome := e.pipeline.Run(gateCtx)
	if !outcome.Passed {
		return nil, &outcome, nil
	}

	sig := &Signal{
		ID:          signalID(req.Symbol, req.Timeframe, dir, req.Candles[len(req.Candles)-1].CloseTime),
		Symbol:      req.Symbol,
		Timeframe:   req.Timeframe,
		Direction:   dir,
		Tier:        tier,
		Entry:       rc.Entry,
		StopLoss:    rc.StopLoss,
		TakeProfits: rc.TakeProfits,
		Confidence:  finalConfidence,
		RiskReward:  rc.RiskReward,
		Bias:        biasCtx,
		Zones:       scan,
		Reasoning:   score.Reasoning,
		Warnings:    advice.Warnings,
		GeneratedAt: evalTime,
	}

	e.remember(sig)

	log.Info().
		Str("signal_id", sig.ID).
		Str("direction", string(dir)).
		Str("tier", string(tier)).
		Float64("confidence", finalConfidence).
		Float64("risk_reward", sig.RiskReward).
		Msg("signal emitted")

	return sig, &outcome, nil
}

// RecordOutcome appends an outcome record for a previously emitted signal.
// The signal itself stays immutable.
func (e *Engine) RecordOutcome(ctx context.Context, signalID string, result outcomes.Result, features advisory.Features) error {
	if e.recorder == nil {
		return fmt.Errorf("no outcome recorder configured")
	}
	return e.recorder.RecordOutcome(ctx, outcomes.Record{
		SignalID:   signalID,
		Result:     result,
		Features:   features,
		RecordedAt: time.Now().UTC(),
	})
}

// RecentSignals returns a copy of the recent-signal ring buffer,
// newest first
func (e *Engine) RecentSignals() []*Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Signal, len(e.recent))
	for i, s := range e.recent {
		out[len(e.recent)-1-i] = s
	}
	return out
}

// chooseDirection locks the signal direction before the advisory step ever
// runs. HTF bias leads; a structure break decides when HTF is neutral; the
// strongest detected zone is the last resort.
func (e *Engine) chooseDirection(ctx *market.CandleContext, biasCtx bias.Context, scan zones.ScanResult) market.Direction {
	if biasCtx.HTFBias != market.Neutral {
		return biasCtx.HTFBias
	}

	last := ctx.Candles[len(ctx.Candles)-1]
	if ctx.ATR > 0 && last.Body() >= 1.5*ctx.ATR {
		if last.IsBullish() {
			return market.Bullish
		}
		return market.Bearish
	}

	bestStrength := 0.0
	bestDir := market.Neutral
	for _, z := range scan.OrderBlocks {
		ob := z.(zones.OrderBlock)
		if ob.Strength > bestStrength {
			bestStrength = ob.Strength
			bestDir = ob.Direction
		}
	}
	return bestDir
}

func (e *Engine) extractFeatures(ctx *market.CandleContext, biasCtx bias.Context, scan zones.ScanResult, rc *solver.RiskContext, baseConfidence float64) advisory.Features {
	atrPercent := 0.0
	if ctx.CurrentPrice > 0 {
		atrPercent = (ctx.ATR / ctx.CurrentPrice) * 100
	}
	return advisory.Features{
		RSI:            ctx.RSI,
		VolumeRatio:    ctx.VolumeRatio,
		RangePosition:  ctx.RangePosition,
		ATRPercent:     atrPercent,
		MTFConfluence:  float64(biasCtx.MTFConfluence),
		ZoneCount:      float64(len(scan.All())),
		RiskReward:     rc.RiskReward,
		BaseConfidence: baseConfidence,
	}
}

func (e *Engine) recentForGate() []gates.RecentSignal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]gates.RecentSignal, 0, len(e.recent))
	for _, s := range e.recent {
		out = append(out, gates.RecentSignal{
			Symbol:    s.Symbol,
			Direction: s.Direction,
			EmittedAt: s.GeneratedAt,
		})
	}
	return out
}

func (e *Engine) remember(sig *Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recent = append(e.recent, sig)
	if len(e.recent) > e.cfg.RecentBufferSize {
		e.recent = e.recent[len(e.recent)-e.cfg.RecentBufferSize:]
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
