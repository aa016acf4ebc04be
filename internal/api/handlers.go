package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smc-signal-engine/internal/advisory"
	"smc-signal-engine/internal/engine"
	"smc-signal-engine/internal/gates"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/outcomes"
	"smc-signal-engine/internal/solver"
)

// EvaluateRequest is the evaluation payload: candle data plus the
// collaborator snapshots the gate pipeline consumes
type EvaluateRequest struct {
	Symbol    string                     `json:"symbol" binding:"required"`
	Timeframe string                     `json:"timeframe" binding:"required"`
	Candles   []market.Candle            `json:"candles" binding:"required"`
	MTF       map[string][]market.Candle `json:"mtf,omitempty"`

	System    gates.SystemState    `json:"system"`
	Execution gates.ExecutionState `json:"execution"`
	Risk      gates.RiskSnapshot   `json:"risk"`
}

// EvaluateResponse carries either the emitted signal or the block verdict
type EvaluateResponse struct {
	Signal    *engine.Signal `json:"signal,omitempty"`
	Blocked   bool           `json:"blocked"`
	BlockedBy string         `json:"blocked_by,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evalReq := engine.Request{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Candles:   req.Candles,
		MTF:       req.MTF,
		System:    req.System,
		Execution: req.Execution,
		Risk:      req.Risk,
	}
	if s.signals != nil {
		evalReq.Recent = s.signals.RecentFor(c.Request.Context(), req.Symbol)
	}

	sig, verdict, err := s.engine.Evaluate(evalReq)
	if err != nil {
		var inv *solver.InvariantError
		switch {
		case errors.Is(err, market.ErrInsufficientData), errors.Is(err, market.ErrMalformedData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.As(err, &inv):
			s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("solver invariant violation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if sig == nil {
		resp := EvaluateResponse{Blocked: true}
		if verdict != nil {
			resp.BlockedBy = verdict.BlockedBy
			resp.Reason = verdict.Reason
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	if s.signals != nil {
		s.signals.Remember(c.Request.Context(), gates.RecentSignal{
			Symbol:    sig.Symbol,
			Direction: sig.Direction,
			EmittedAt: sig.GeneratedAt,
		})
	}
	if s.repo != nil {
		row := outcomes.SignalRow{
			ID:          sig.ID,
			Symbol:      sig.Symbol,
			Timeframe:   sig.Timeframe,
			Direction:   string(sig.Direction),
			Tier:        string(sig.Tier),
			Entry:       sig.Entry,
			StopLoss:    sig.StopLoss,
			TakeProfits: sig.TakeProfits,
			Confidence:  sig.Confidence,
			RiskReward:  sig.RiskReward,
			GeneratedAt: sig.GeneratedAt,
		}
		if err := s.repo.SaveSignal(c.Request.Context(), row); err != nil {
			s.logger.Warn().Err(err).Str("signal_id", sig.ID).Msg("failed to persist signal")
		}
	}

	s.hub.BroadcastSignal(sig)
	c.JSON(http.StatusOK, EvaluateResponse{Signal: sig})
}

func (s *Server) handleRecentSignals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signals": s.engine.RecentSignals()})
}

// OutcomeRequest appends an outcome for an emitted signal
type OutcomeRequest struct {
	SignalID string            `json:"signal_id" binding:"required"`
	Result   outcomes.Result   `json:"result" binding:"required"`
	Features advisory.Features `json:"features"`
}

func (s *Server) handleRecordOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Result {
	case outcomes.Win, outcomes.Loss, outcomes.Breakeven:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must be win, loss or breakeven"})
		return
	}

	if err := s.engine.RecordOutcome(c.Request.Context(), req.SignalID, req.Result, req.Features); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

func (s *Server) handleConfidenceBuckets(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "outcome persistence not configured"})
		return
	}
	buckets, err := s.repo.ConfidenceBuckets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}

func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{"status": "ok"}
	if s.signals != nil {
		health["redis"] = s.signals.IsHealthy()
	}
	c.JSON(http.StatusOK, health)
}
