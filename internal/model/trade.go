package model

import "time"

// Trade represents one closed round trip: a BUY acted on while flat and the
// SELL that closed it. PnL is exact paise arithmetic; PnLPct is the fraction
// pnl/entry_price.
type Trade struct {
	Symbol      string    `json:"symbol"`
	EntryDate   time.Time `json:"entry_date"`
	EntryPrice  int64     `json:"entry_price"` // paise
	ExitDate    time.Time `json:"exit_date"`
	ExitPrice   int64     `json:"exit_price"` // paise
	PnL         int64     `json:"pnl"`        // paise, exit - entry
	PnLPct      float64   `json:"pnl_pct"`    // fraction of entry price
	HoldingDays int       `json:"holding_days"`
}

// Win reports whether the trade closed with a positive P&L.
func (t *Trade) Win() bool { return t.PnL > 0 }

// PositionState is the backtest state machine's state for one symbol run.
type PositionState string

const (
	PositionFlat PositionState = "FLAT"
	PositionLong PositionState = "LONG"
)

// Position is an open long position at the end of a replay: an entry with no
// exit yet. It is reported separately and excluded from closed-trade stats.
type Position struct {
	Symbol        string    `json:"symbol"`
	EntryDate     time.Time `json:"entry_date"`
	EntryPrice    int64     `json:"entry_price"` // paise
	LastDate      time.Time `json:"last_date"`   // final bar of the series
	LastPrice     int64     `json:"last_price"`  // final close in paise
	UnrealizedPnL int64     `json:"unrealized_pnl"`
}
