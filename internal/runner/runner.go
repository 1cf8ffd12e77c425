// Package runner orchestrates the per-symbol analysis pipeline: fetch bars,
// compute indicators, evaluate the signal rule, and replay the backtest.
//
// Each symbol's pipeline is independent of every other symbol's and shares
// no mutable state, so symbols run as concurrent goroutines; within one
// symbol bars are processed strictly in chronological order. A failure on
// one symbol is recorded on its result and never aborts the batch.
package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"nifty-signals/config"
	"nifty-signals/internal/backtest"
	"nifty-signals/internal/indicator"
	"nifty-signals/internal/metrics"
	"nifty-signals/internal/model"
	"nifty-signals/internal/strategy"
)

// BarSource supplies a daily price series per instrument for a date range.
// Implemented by the Angel One provider and by the SQLite bar cache.
type BarSource interface {
	Bars(ctx context.Context, inst config.Instrument, from, to time.Time) (model.PriceSeries, error)
}

// SymbolResult carries everything one symbol's pipeline produced. Err is set
// and the other fields are zero when the pipeline failed for that symbol.
type SymbolResult struct {
	Instrument config.Instrument
	Series     model.PriceSeries
	Frame      model.IndicatorFrame
	Signals    []model.Signal
	Current    model.Signal
	Backtest   *backtest.Result
	Err        error
}

// Runner wires the pipeline stages together with one fixed parameter set.
type Runner struct {
	source BarSource
	params indicator.Params
	rule   strategy.Rule
	engine *backtest.Engine
	met    *metrics.Metrics // optional, may be nil
}

// New creates a Runner. met may be nil to disable metrics.
func New(source BarSource, params indicator.Params, rule strategy.Rule, met *metrics.Metrics) *Runner {
	return &Runner{
		source: source,
		params: params,
		rule:   rule,
		engine: backtest.New(),
		met:    met,
	}
}

// Run processes all instruments concurrently and returns one result per
// instrument in input order. Parameters are validated once, before any
// symbol is processed; a parameter error fails the whole run.
func (r *Runner) Run(ctx context.Context, instruments []config.Instrument, from, to time.Time) ([]SymbolResult, error) {
	if err := r.params.Validate(); err != nil {
		return nil, err
	}
	if err := r.rule.Validate(); err != nil {
		return nil, err
	}

	results := make([]SymbolResult, len(instruments))
	var wg sync.WaitGroup
	for i, inst := range instruments {
		wg.Add(1)
		go func(i int, inst config.Instrument) {
			defer wg.Done()
			results[i] = r.runSymbol(ctx, inst, from, to)
		}(i, inst)
	}
	wg.Wait()

	ok, failed := 0, 0
	for i := range results {
		if results[i].Err != nil {
			failed++
			log.Printf("[runner] %s failed: %v", results[i].Instrument.Symbol, results[i].Err)
		} else {
			ok++
		}
	}
	log.Printf("[runner] batch complete: %d ok, %d failed", ok, failed)
	return results, nil
}

// runSymbol executes one symbol's pipeline end to end.
func (r *Runner) runSymbol(ctx context.Context, inst config.Instrument, from, to time.Time) SymbolResult {
	res := SymbolResult{Instrument: inst}

	fetchStart := time.Now()
	series, err := r.source.Bars(ctx, inst, from, to)
	if err != nil {
		res.Err = err
		r.countFailure()
		return res
	}
	if r.met != nil {
		r.met.FetchDur.Observe(time.Since(fetchStart).Seconds())
		r.met.BarsFetched.Add(float64(len(series)))
	}
	res.Series = series

	pipeStart := time.Now()
	frame, err := indicator.Compute(series, r.params)
	if err != nil {
		res.Err = err
		r.countFailure()
		return res
	}
	res.Frame = frame

	signals, err := r.rule.Evaluate(inst.Symbol, frame)
	if err != nil {
		res.Err = err
		r.countFailure()
		return res
	}
	res.Signals = signals
	res.Current = r.rule.Current(inst.Symbol, frame)

	bt, err := r.engine.Run(inst.Symbol, series, signals)
	if err != nil {
		res.Err = err
		r.countFailure()
		return res
	}
	res.Backtest = bt

	if r.met != nil {
		r.met.PipelineDur.Observe(time.Since(pipeStart).Seconds())
		r.met.SymbolsProcessed.Inc()
		r.met.TradesSimulated.Add(float64(len(bt.Trades)))
		for i := range signals {
			if signals[i].Action != model.ActionHold {
				r.met.SignalsEmitted.WithLabelValues(string(signals[i].Action)).Inc()
			}
		}
	}

	log.Printf("[runner] %s: %d bars, %d trades, win rate %.1f%%",
		inst.Symbol, len(series), len(bt.Trades), bt.Summary.WinRate*100)
	return res
}

func (r *Runner) countFailure() {
	if r.met != nil {
		r.met.SymbolFailures.Inc()
	}
}
