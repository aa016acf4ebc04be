package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smc-signal-engine/internal/engine"
	"smc-signal-engine/internal/gates"
	"smc-signal-engine/internal/market"
	"smc-signal-engine/internal/outcomes"
)

func testServer() *Server {
	eng := engine.New(engine.DefaultConfig(), nil, outcomes.NewMemoryRecorder(), zerolog.Nop())
	return NewServer(eng, nil, nil, zerolog.Nop())
}

// breakoutRequest mirrors a bullish breakout: accumulation, a bearish
// block candle, displacement, then a grind higher
func breakoutRequest() EvaluateRequest {
	base := int64(1705305600000)
	rows := make([][5]float64, 0, 30)
	for i := 0; i < 10; i++ {
		rows = append(rows, [5]float64{100, 100.8, 99.6, 100.4, 1000})
	}
	rows = append(rows,
		[5]float64{100.4, 100.6, 99.7, 99.8, 1000},
		[5]float64{99.9, 104.2, 99.8, 104, 3000},
		[5]float64{104, 106.8, 103.9, 106.5, 1000},
	)
	for i := 13; i < 30; i++ {
		open := 106.5 + 0.2*float64(i-13)
		vol := 1000.0
		if i == 29 {
			vol = 2200
		}
		rows = append(rows, [5]float64{open, open + 0.3, open - 0.1, open + 0.2, vol})
	}

	candles := make([]market.Candle, len(rows))
	for i, r := range rows {
		candles[i] = market.Candle{
			OpenTime:  base + int64(i)*3600000,
			Open:      r[0],
			High:      r[1],
			Low:       r[2],
			Close:     r[3],
			Volume:    r[4],
			CloseTime: base + int64(i)*3600000 + 3599999,
		}
	}

	daily := make([]market.Candle, 25)
	dayBase := int64(1703116800000)
	for i := 0; i < 25; i++ {
		open := 100 + float64(i)
		daily[i] = market.Candle{
			OpenTime:  dayBase + int64(i)*86400000,
			Open:      open,
			High:      open + 1.5,
			Low:       open - 0.5,
			Close:     open + 1,
			Volume:    5000,
			CloseTime: dayBase + int64(i)*86400000 + 86399999,
		}
	}

	zero := 0.0
	return EvaluateRequest{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Candles:   candles,
		MTF:       map[string][]market.Candle{"1d": daily},
		System:    gates.SystemState{Operational: true},
		Execution: gates.ExecutionState{Ready: true},
		Risk: gates.RiskSnapshot{
			SignalRiskPct:        &zero,
			TotalOpenRiskPct:     &zero,
			SymbolExposurePct:    &zero,
			DirectionExposurePct: &zero,
			DailyLossPct:         &zero,
		},
	}
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestEvaluateEmitsSignal(t *testing.T) {
	s := testServer()

	w := postJSON(t, s, "/api/v1/signals/evaluate", breakoutRequest())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Blocked {
		t.Fatal("Expected an emitted signal, got blocked")
	}
	if resp.Signal == nil || resp.Signal.Direction != market.Bullish {
		t.Fatalf("Expected bullish signal, got %+v", resp.Signal)
	}
}

func TestEvaluateBlockedSignal(t *testing.T) {
	s := testServer()

	body := breakoutRequest()
	over := 2.0
	body.Risk.SignalRiskPct = &over

	w := postJSON(t, s, "/api/v1/signals/evaluate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Blocked || resp.Signal != nil {
		t.Fatalf("Expected blocked response, got %+v", resp)
	}
	if resp.BlockedBy != "risk_admission" {
		t.Errorf("Expected risk_admission verdict, got %q", resp.BlockedBy)
	}
	if !strings.Contains(resp.Reason, "signal_risk") {
		t.Errorf("Expected signal_risk in reason, got %q", resp.Reason)
	}
}

func TestEvaluateRejectsShortSeries(t *testing.T) {
	s := testServer()

	body := breakoutRequest()
	body.Candles = body.Candles[:5]

	w := postJSON(t, s, "/api/v1/signals/evaluate", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for short series, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecordOutcomeValidation(t *testing.T) {
	s := testServer()

	w := postJSON(t, s, "/api/v1/outcomes", OutcomeRequest{
		SignalID: "sig-1",
		Result:   "draw",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown result, got %d", w.Code)
	}

	w = postJSON(t, s, "/api/v1/outcomes", OutcomeRequest{
		SignalID: "sig-1",
		Result:   outcomes.Win,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConfidenceBucketsWithoutRepo(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outcomes/buckets", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Fatalf("Expected 501 without persistence, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("client") {
			t.Fatalf("Request %d unexpectedly limited", i)
		}
	}
	if limiter.Allow("client") {
		t.Error("Expected fourth request limited")
	}
	if !limiter.Allow("other") {
		t.Error("Expected independent key allowed")
	}
}
