package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nifty-signals/config"
	"nifty-signals/internal/backtest"
	"nifty-signals/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func testSeries(n int) model.PriceSeries {
	s := make(model.PriceSeries, 0, n)
	for i := 0; i < n; i++ {
		c := int64(10000 + i*100)
		s = append(s, model.PricePoint{Date: day(i), Open: c, High: c + 50, Low: c - 50, Close: c, Volume: int64(1000 + i)})
	}
	return s
}

func TestSaveLoadBars(t *testing.T) {
	s := openTestStore(t)
	src := testSeries(5)
	if err := s.SaveBars("RELIANCE", src); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	got, err := s.LoadBars("RELIANCE", day(0), day(4))
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d bars, want 5", len(got))
	}
	for i := range got {
		if !got[i].Date.Equal(src[i].Date) || got[i].Close != src[i].Close || got[i].Volume != src[i].Volume {
			t.Errorf("bar %d round trip mismatch: got %+v, want %+v", i, got[i], src[i])
		}
	}

	// Window narrowing.
	got, err = s.LoadBars("RELIANCE", day(1), day(3))
	if err != nil {
		t.Fatalf("LoadBars window: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("windowed load returned %d bars, want 3", len(got))
	}
}

func TestSaveBars_UpsertIdempotent(t *testing.T) {
	s := openTestStore(t)
	src := testSeries(3)
	if err := s.SaveBars("X", src); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}
	src[1].Close = 99999
	if err := s.SaveBars("X", src); err != nil {
		t.Fatalf("SaveBars rerun: %v", err)
	}

	got, err := s.LoadBars("X", day(0), day(2))
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d bars after upsert, want 3", len(got))
	}
	if got[1].Close != 99999 {
		t.Errorf("upsert did not replace close: got %d", got[1].Close)
	}
}

func TestBars_OfflineSource(t *testing.T) {
	s := openTestStore(t)
	inst := config.Instrument{Exchange: "NSE", Token: "2885", Symbol: "RELIANCE"}

	_, err := s.Bars(context.Background(), inst, day(0), day(4))
	if err == nil {
		t.Error("Bars on empty cache should fail")
	}

	if err := s.SaveBars("RELIANCE", testSeries(4)); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}
	got, err := s.Bars(context.Background(), inst, day(0), day(4))
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("got %d bars, want 4", len(got))
	}
}

func TestSaveResult_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	runAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	signals := []model.Signal{
		{Date: day(0), Symbol: "X", Action: model.ActionHold, Price: 10000},
		{Date: day(1), Symbol: "X", Action: model.ActionBuy, Price: 10100, RSI: model.Defined(25.5), Reason: "RSI oversold (25.50) and SMA crossover bullish"},
		{Date: day(2), Symbol: "X", Action: model.ActionSell, Price: 10400, RSI: model.Defined(75.0), Reason: "RSI overbought (75.00) and SMA crossover bearish"},
	}
	res := &backtest.Result{
		Symbol: "X",
		Trades: []model.Trade{{
			Symbol: "X", EntryDate: day(1), EntryPrice: 10100,
			ExitDate: day(2), ExitPrice: 10400, PnL: 300, PnLPct: 300.0 / 10100.0, HoldingDays: 1,
		}},
		Summary: backtest.Summarize("X", []model.Trade{{
			Symbol: "X", PnL: 300, PnLPct: 300.0 / 10100.0, HoldingDays: 1,
		}}),
	}

	if err := s.SaveResult(signals, res, runAt); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	// Signals round trip, actionable filter.
	all, err := s.LoadSignals("X", false)
	if err != nil {
		t.Fatalf("LoadSignals: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d signals, want 3", len(all))
	}
	if !all[1].RSI.Valid || all[1].RSI.Value != 25.5 {
		t.Errorf("RSI round trip: %+v", all[1].RSI)
	}
	if all[0].RSI.Valid {
		t.Error("HOLD row RSI should stay undefined")
	}

	actionable, err := s.LoadSignals("X", true)
	if err != nil {
		t.Fatalf("LoadSignals actionable: %v", err)
	}
	if len(actionable) != 2 {
		t.Errorf("got %d actionable signals, want 2", len(actionable))
	}

	// Trades round trip.
	trades, err := s.LoadTrades("X")
	if err != nil {
		t.Fatalf("LoadTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].PnL != 300 || !trades[0].EntryDate.Equal(day(1)) {
		t.Errorf("trade round trip: %+v", trades[0])
	}

	// Summary round trip.
	sum, err := s.LoadLatestSummary("X")
	if err != nil {
		t.Fatalf("LoadLatestSummary: %v", err)
	}
	if sum.TotalTrades != 1 || sum.TotalPnL != 300 {
		t.Errorf("summary round trip: %+v", sum)
	}
}

func TestSaveResult_RerunReplacesTrades(t *testing.T) {
	s := openTestStore(t)
	res := &backtest.Result{
		Symbol: "X",
		Trades: []model.Trade{{Symbol: "X", EntryDate: day(0), ExitDate: day(1), PnL: 100}},
	}
	if err := s.SaveResult(nil, res, day(10)); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := s.SaveResult(nil, res, day(11)); err != nil {
		t.Fatalf("SaveResult rerun: %v", err)
	}

	trades, err := s.LoadTrades("X")
	if err != nil {
		t.Fatalf("LoadTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("rerun duplicated trades: got %d, want 1", len(trades))
	}
}

func TestLoadLatestSummary_NoRows(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadLatestSummary("MISSING")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestSaveSummary_PortfolioRow(t *testing.T) {
	s := openTestStore(t)
	sum := model.PerformanceSummary{Symbol: model.PortfolioSymbol, TotalTrades: 7, WinRate: 0.57, TotalPnL: 1234}
	if err := s.SaveSummary(sum, day(0)); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	got, err := s.LoadLatestSummary(model.PortfolioSymbol)
	if err != nil {
		t.Fatalf("LoadLatestSummary: %v", err)
	}
	if got.TotalTrades != 7 || got.TotalPnL != 1234 {
		t.Errorf("portfolio summary round trip: %+v", got)
	}
}
