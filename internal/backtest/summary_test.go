package backtest

import (
	"math"
	"testing"

	"nifty-signals/internal/model"
)

func trade(pnl int64, pnlPct float64, holdDays int) model.Trade {
	return model.Trade{Symbol: "X", PnL: pnl, PnLPct: pnlPct, HoldingDays: holdDays}
}

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}

func TestSummarize_EmptyLedger(t *testing.T) {
	s := Summarize("X", nil)
	if s.TotalTrades != 0 || s.WinRate != 0 || s.AvgWin != 0 || s.AvgLoss != 0 || s.SharpeRatio != 0 {
		t.Errorf("empty ledger summary not zero-valued: %+v", s)
	}
	if s.Symbol != "X" {
		t.Errorf("symbol = %q", s.Symbol)
	}
}

func TestSummarize_Counts(t *testing.T) {
	trades := []model.Trade{
		trade(100, 0.10, 2),
		trade(-50, -0.05, 4),
		trade(200, 0.20, 6),
		trade(0, 0, 0), // zero pnl counts as a loss
	}
	s := Summarize("X", trades)

	if s.TotalTrades != 4 || s.WinningTrades != 2 || s.LosingTrades != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	}
	assertClose(t, "WinRate", s.WinRate, 0.5)
	if s.TotalPnL != 250 {
		t.Errorf("TotalPnL = %d, want 250", s.TotalPnL)
	}
	assertClose(t, "AvgWin", s.AvgWin, 150)   // (100+200)/2
	assertClose(t, "AvgLoss", s.AvgLoss, -25) // (-50+0)/2
	assertClose(t, "AvgHoldingDays", s.AvgHoldingDays, 3)
}

func TestSharpe_PopulationStddev(t *testing.T) {
	// Returns: 0.10, 0.20, 0.30
	// mean = 0.20; population variance = ((0.1)^2+0+(0.1)^2)/3 = 0.00666...
	// std = 0.0816497; sharpe = 0.2/0.0816497 = 2.449490
	trades := []model.Trade{
		trade(10, 0.10, 1),
		trade(20, 0.20, 1),
		trade(30, 0.30, 1),
	}
	s := Summarize("X", trades)
	if math.Abs(s.SharpeRatio-2.449490) > 0.0001 {
		t.Errorf("SharpeRatio = %v, want 2.449490", s.SharpeRatio)
	}
}

func TestSharpe_SymmetricReturns(t *testing.T) {
	// Returns +0.05 and -0.05: mean is 0 and the deviation is 0.05, so the
	// ratio is exactly 0 without being a degenerate case.
	trades := []model.Trade{trade(5, 0.05, 1), trade(-5, -0.05, 1)}
	s := Summarize("X", trades)
	if s.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want exactly 0 (zero mean)", s.SharpeRatio)
	}
}

func TestSharpe_DegenerateCases(t *testing.T) {
	// Single trade: no dispersion to measure.
	if got := Summarize("X", []model.Trade{trade(10, 0.10, 1)}).SharpeRatio; got != 0 {
		t.Errorf("single-trade sharpe = %v, want 0", got)
	}
	// Identical returns: zero deviation.
	trades := []model.Trade{trade(10, 0.10, 1), trade(10, 0.10, 1)}
	if got := Summarize("X", trades).SharpeRatio; got != 0 {
		t.Errorf("zero-deviation sharpe = %v, want 0", got)
	}
}

func TestPortfolioSummary_AggregatesAcrossSymbols(t *testing.T) {
	results := []*Result{
		{Symbol: "A", Trades: []model.Trade{trade(100, 0.10, 2), trade(-50, -0.05, 1)}},
		{Symbol: "B", Trades: []model.Trade{trade(200, 0.20, 3)}},
		{Symbol: "C"}, // no trades
	}
	s := PortfolioSummary(results)

	if s.Symbol != model.PortfolioSymbol {
		t.Errorf("symbol = %q, want %q", s.Symbol, model.PortfolioSymbol)
	}
	if s.TotalTrades != 3 || s.WinningTrades != 2 {
		t.Errorf("counts = %d/%d, want 3/2", s.TotalTrades, s.WinningTrades)
	}
	if s.TotalPnL != 250 {
		t.Errorf("TotalPnL = %d, want 250", s.TotalPnL)
	}
}

func TestPortfolioSummary_Empty(t *testing.T) {
	s := PortfolioSummary(nil)
	if s.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", s.TotalTrades)
	}
}
