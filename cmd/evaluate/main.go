// Command evaluate runs one offline signal evaluation over a candle
// dataset exported to JSON, printing the emitted signal or the block
// verdict. Useful for replaying historical windows against the current
// configuration without the API server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"smc-signal-engine/config"
	"smc-signal-engine/internal/advisory"
	"smc-signal-engine/internal/engine"
	"smc-signal-engine/internal/gates"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/outcomes"
)

// dataset is the evaluation input file layout
type dataset struct {
	Symbol    string                     `json:"symbol"`
	Timeframe string                     `json:"timeframe"`
	Candles   []market.Candle            `json:"candles"`
	MTF       map[string][]market.Candle `json:"mtf,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "optional configuration file")
	dataPath := flag.String("data", "", "candle dataset JSON file (required)")
	modelPath := flag.String("model", "", "optional model artifact")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -data <candles.json> [-config <config.json>] [-model <model.json>]")
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	var model advisory.Model
	if *modelPath != "" {
		m, err := advisory.LoadModel(*modelPath)
		if err != nil {
			logger.Warn().Err(err).Msg("model unavailable, advisory disabled")
		} else {
			model = m
		}
	}

	data, err := os.ReadFile(*dataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read dataset")
	}
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse dataset")
	}

	eng := engine.New(cfg.Engine, model, outcomes.NewMemoryRecorder(), logger)

	// Offline runs use permissive collaborator snapshots: the point is to
	// see what the math path would emit
	zero := 0.0
	sig, verdict, err := eng.Evaluate(engine.Request{
		Symbol:    ds.Symbol,
		Timeframe: ds.Timeframe,
		Candles:   ds.Candles,
		MTF:       ds.MTF,
		System:    gates.SystemState{Operational: true},
		Execution: gates.ExecutionState{Ready: true},
		Risk: gates.RiskSnapshot{
			SignalRiskPct:        &zero,
			TotalOpenRiskPct:     &zero,
			SymbolExposurePct:    &zero,
			DirectionExposurePct: &zero,
			DailyLossPct:         &zero,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	if sig == nil {
		if verdict != nil {
			fmt.Printf("blocked by %s: %s\n", verdict.BlockedBy, verdict.Reason)
		} else {
			fmt.Println("no signal emitted (no directional setup in the window)")
		}
		return
	}

	out, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode signal")
	}
	fmt.Println(string(out))
}
