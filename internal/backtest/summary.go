package backtest

import (
	"math"

	"nifty-signals/internal/model"
)

// Summarize recomputes the performance summary from a closed-trade ledger.
// Empty subsets report zero values; no division by zero is possible.
//
// The Sharpe ratio is mean(pnl_pct) / population standard deviation of
// pnl_pct, non-annualized, and zero when there are fewer than two trades or
// the deviation is zero.
func Summarize(symbol string, trades []model.Trade) model.PerformanceSummary {
	s := model.PerformanceSummary{Symbol: symbol}
	if len(trades) == 0 {
		return s
	}

	var (
		winSum, lossSum int64
		holdSum         int
	)
	for i := range trades {
		t := &trades[i]
		s.TotalPnL += t.PnL
		holdSum += t.HoldingDays
		if t.Win() {
			s.WinningTrades++
			winSum += t.PnL
		} else {
			s.LosingTrades++
			lossSum += t.PnL
		}
	}

	s.TotalTrades = len(trades)
	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = float64(winSum) / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = float64(lossSum) / float64(s.LosingTrades)
	}
	s.AvgHoldingDays = float64(holdSum) / float64(s.TotalTrades)
	s.SharpeRatio = sharpe(trades)
	return s
}

// PortfolioSummary aggregates closed trades across all symbol results into
// one cross-symbol summary.
func PortfolioSummary(results []*Result) model.PerformanceSummary {
	var all []model.Trade
	for _, r := range results {
		all = append(all, r.Trades...)
	}
	return Summarize(model.PortfolioSymbol, all)
}

// sharpe computes mean/stddev over per-trade pnl_pct using the population
// standard deviation.
func sharpe(trades []model.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	mean := 0.0
	for i := range trades {
		mean += trades[i].PnLPct
	}
	mean /= float64(len(trades))

	variance := 0.0
	for i := range trades {
		d := trades[i].PnLPct - mean
		variance += d * d
	}
	variance /= float64(len(trades))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std
}
