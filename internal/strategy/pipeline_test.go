package strategy

import (
	"testing"

	"nifty-signals/internal/indicator"
	"nifty-signals/internal/model"
)

// End-to-end properties over Compute + Evaluate with realistic periods.

func priceSeries(closes []int64) model.PriceSeries {
	s := make(model.PriceSeries, 0, len(closes))
	for i, c := range closes {
		s = append(s, model.PricePoint{Date: day(i), Open: c, High: c, Low: c, Close: c})
	}
	return s
}

func TestPipeline_RisingSeries_NeverSells(t *testing.T) {
	// 60 monotonically rising bars with full 14/20/50 periods: no bearish
	// crossover can occur, so no SELL is ever emitted.
	closes := make([]int64, 60)
	for i := range closes {
		closes[i] = int64(100000 + i*500)
	}
	params := indicator.Params{RSIPeriod: 14, SMAShortPeriod: 20, SMALongPeriod: 50}

	frame, err := indicator.Compute(priceSeries(closes), params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	signals, err := defaultRule.Evaluate("X", frame)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i, sig := range signals {
		if sig.Action == model.ActionSell {
			t.Errorf("bar %d: SELL emitted on a rising series", i)
		}
	}
}

func TestPipeline_ShortSeries_AllHold(t *testing.T) {
	// 30 bars against a 50-bar warm-up: the long SMA never becomes defined,
	// so no bar can emit a non-HOLD signal.
	closes := make([]int64, 30)
	for i := range closes {
		closes[i] = int64(100000 + (i%7)*300 - (i%3)*200)
	}
	params := indicator.Params{RSIPeriod: 14, SMAShortPeriod: 20, SMALongPeriod: 50}

	frame, err := indicator.Compute(priceSeries(closes), params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	signals, err := defaultRule.Evaluate("X", frame)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i, sig := range signals {
		if sig.Action != model.ActionHold {
			t.Errorf("bar %d: %s emitted inside warm-up window", i, sig.Action)
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	closes := make([]int64, 80)
	for i := range closes {
		closes[i] = int64(100000 + (i%11)*700 - (i%5)*900)
	}
	params := indicator.Params{RSIPeriod: 14, SMAShortPeriod: 20, SMALongPeriod: 50}
	series := priceSeries(closes)

	run := func() []model.Signal {
		frame, err := indicator.Compute(series, params)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		signals, err := defaultRule.Evaluate("X", frame)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		return signals
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("bar %d: signal differs between identical runs", i)
		}
	}
}
