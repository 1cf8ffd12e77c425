// Package indicator provides technical indicator calculations over daily
// price bars and assembles them into frames aligned with the source series.
//
// All indicators are streaming: O(1) per bar, no history scans, no
// look-ahead. A value is only exposed once Ready() reports true; before that
// the frame carries an explicit undefined marker.
package indicator

import (
	"errors"
	"fmt"
)

// Sentinel errors for the indicator stage.
var (
	// ErrInsufficientData is returned only for an empty series. A non-empty
	// series shorter than the warm-up window degrades to a frame of
	// undefined rows instead.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter covers non-positive periods and out-of-range
	// thresholds. Raised at configuration time, before any symbol runs.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Indicator is the interface for all streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA_20", "RSI_14").
	Name() string

	// Update feeds a new close price (in paise) and recalculates.
	Update(closePaise int64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}

// Params configures one frame computation. Components receive it explicitly
// at call time; there is no process-wide settings object.
type Params struct {
	RSIPeriod      int
	SMAShortPeriod int
	SMALongPeriod  int
}

// Validate checks all periods. Short must be strictly below long, otherwise
// the crossover test is meaningless.
func (p Params) Validate() error {
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("%w: rsi period %d must be positive", ErrInvalidParameter, p.RSIPeriod)
	}
	if p.SMAShortPeriod <= 0 || p.SMALongPeriod <= 0 {
		return fmt.Errorf("%w: sma periods must be positive, got short=%d long=%d",
			ErrInvalidParameter, p.SMAShortPeriod, p.SMALongPeriod)
	}
	if p.SMAShortPeriod >= p.SMALongPeriod {
		return fmt.Errorf("%w: sma short period %d must be below long period %d",
			ErrInvalidParameter, p.SMAShortPeriod, p.SMALongPeriod)
	}
	return nil
}

// WarmupBars returns the number of bars before every indicator is defined.
// RSI needs period deltas, i.e. period+1 bars; SMA(n) needs n bars.
func (p Params) WarmupBars() int {
	w := p.RSIPeriod + 1
	if p.SMALongPeriod > w {
		w = p.SMALongPeriod
	}
	return w
}
