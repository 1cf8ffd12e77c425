// Package backtest replays signal sequences against historical prices
// through a single-position state machine and computes performance
// statistics from the resulting trade ledger.
package backtest

import (
	"errors"
	"fmt"
	"log"
	"time"

	"nifty-signals/internal/model"
)

// ErrMisaligned is returned when the signal sequence does not line up with
// the price series. Simulation never proceeds on misaligned input.
var ErrMisaligned = errors.New("signal series misaligned with price series")

// Result holds the outcome of one symbol's replay.
type Result struct {
	Symbol  string                   `json:"symbol"`
	Trades  []model.Trade            `json:"trades"` // closed trades, chronological
	Open    *model.Position          `json:"open,omitempty"`
	Summary model.PerformanceSummary `json:"summary"`
}

// Engine replays bars in chronological order, maintaining FLAT/LONG state.
// One Engine value serves one symbol's run; state is never shared across
// symbols or runs, so concurrent per-symbol backtests need no locks.
type Engine struct{}

// New creates a backtest engine.
func New() *Engine { return &Engine{} }

// Run simulates long-only sequential trading for one symbol.
//
// Transitions: FLAT+BUY opens a trade at the signal's price/date; LONG+SELL
// closes it. BUY while LONG and SELL while FLAT are no-ops. HOLD never
// changes state. A position still open at the end of the series is reported
// on Result.Open and excluded from closed-trade statistics.
func (e *Engine) Run(symbol string, series model.PriceSeries, signals []model.Signal) (*Result, error) {
	if err := checkAlignment(series, signals); err != nil {
		return nil, err
	}

	var (
		trades     []model.Trade
		state      = model.PositionFlat
		entryDate  time.Time
		entryPrice int64
	)

	for i := range signals {
		sig := &signals[i]
		switch sig.Action {
		case model.ActionBuy:
			if state != model.PositionFlat {
				continue // already long, ignore
			}
			state = model.PositionLong
			entryDate = sig.Date
			entryPrice = sig.Price

		case model.ActionSell:
			if state != model.PositionLong {
				continue // nothing to close, ignore
			}
			pnl := sig.Price - entryPrice
			trades = append(trades, model.Trade{
				Symbol:      symbol,
				EntryDate:   entryDate,
				EntryPrice:  entryPrice,
				ExitDate:    sig.Date,
				ExitPrice:   sig.Price,
				PnL:         pnl,
				PnLPct:      float64(pnl) / float64(entryPrice),
				HoldingDays: int(sig.Date.Sub(entryDate).Hours() / 24),
			})
			state = model.PositionFlat

		case model.ActionHold:
			// no state change
		}
	}

	result := &Result{
		Symbol: symbol,
		Trades: trades,
	}

	if state == model.PositionLong {
		last := series[len(series)-1]
		result.Open = &model.Position{
			Symbol:        symbol,
			EntryDate:     entryDate,
			EntryPrice:    entryPrice,
			LastDate:      last.Date,
			LastPrice:     last.Close,
			UnrealizedPnL: last.Close - entryPrice,
		}
		log.Printf("[backtest] %s: open position at series end (entry %s, unrealized %d paise)",
			symbol, entryDate.Format("2006-01-02"), result.Open.UnrealizedPnL)
	}

	result.Summary = Summarize(symbol, trades)
	return result, nil
}

// checkAlignment verifies that the signal sequence matches the price series
// in length and per-index date before any simulation proceeds.
func checkAlignment(series model.PriceSeries, signals []model.Signal) error {
	if len(series) != len(signals) {
		return fmt.Errorf("%w: %d bars vs %d signals", ErrMisaligned, len(series), len(signals))
	}
	for i := range series {
		if !series[i].Date.Equal(signals[i].Date) {
			return fmt.Errorf("%w: date mismatch at index %d (%s vs %s)",
				ErrMisaligned, i,
				series[i].Date.Format("2006-01-02"), signals[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}
