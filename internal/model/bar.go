// Package model defines the domain types shared across the analysis pipeline:
// daily price bars, indicator frames, signals, trades, and performance
// summaries. All prices are in paise (int64) to avoid floating-point drift.
package model

import (
	"fmt"
	"time"
)

// PricePoint represents one daily OHLCV bar for a single instrument.
type PricePoint struct {
	Date   time.Time `json:"date"` // trading day (UTC, midnight-aligned)
	Open   int64     `json:"open"`
	High   int64     `json:"high"`
	Low    int64     `json:"low"`
	Close  int64     `json:"close"`
	Volume int64     `json:"volume"`
}

// CloseRupees returns the close price in rupees.
func (p *PricePoint) CloseRupees() float64 {
	return float64(p.Close) / 100.0
}

// PriceSeries is an ordered sequence of daily bars for one symbol, ascending
// by date. Gaps from non-trading days are allowed; duplicate dates are not.
type PriceSeries []PricePoint

// Validate checks date ordering and uniqueness. Fetched data is expected to
// be well formed; this catches corrupted caches before they reach the engine.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("price series not strictly ascending at index %d: %s !> %s",
				i, s[i].Date.Format("2006-01-02"), s[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
