package model

import "encoding/json"

// PerformanceSummary aggregates closed trades for one symbol, or for the
// whole portfolio when Symbol is "PORTFOLIO". It is always recomputed from
// the trade ledger, never incrementally mutated.
type PerformanceSummary struct {
	Symbol         string  `json:"symbol"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"` // fraction, 0 when no trades
	TotalPnL       int64   `json:"total_pnl"`
	AvgWin         float64 `json:"avg_win"`  // mean pnl (paise) over winners, 0 when none
	AvgLoss        float64 `json:"avg_loss"` // mean pnl (paise) over losers, 0 when none
	SharpeRatio    float64 `json:"sharpe_ratio"`
	AvgHoldingDays float64 `json:"avg_holding_days"`
}

// PortfolioSymbol marks the cross-symbol aggregate summary.
const PortfolioSymbol = "PORTFOLIO"

// JSON returns the JSON-encoded summary.
func (s *PerformanceSummary) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
