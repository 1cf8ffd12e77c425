// Package strategy converts indicator frames into discrete BUY/SELL/HOLD
// signals.
//
// The rule combines an RSI threshold with an SMA crossover: buy when RSI is
// oversold and the short SMA crosses above the long SMA on the same bar;
// sell on the mirror condition. Bars with undefined indicators never
// participate in a comparison; they hold.
package strategy

import (
	"fmt"

	"nifty-signals/internal/indicator"
	"nifty-signals/internal/model"
)

// Rule holds the RSI thresholds for signal generation. The crossover test is
// implicit in the frame's two SMA columns.
type Rule struct {
	Oversold   float64
	Overbought float64
}

// Validate checks the thresholds at configuration time.
func (r Rule) Validate() error {
	if r.Oversold < 0 || r.Oversold > 100 || r.Overbought < 0 || r.Overbought > 100 {
		return fmt.Errorf("%w: rsi thresholds must be within [0,100], got oversold=%.1f overbought=%.1f",
			indicator.ErrInvalidParameter, r.Oversold, r.Overbought)
	}
	if r.Oversold >= r.Overbought {
		return fmt.Errorf("%w: oversold threshold %.1f must be below overbought threshold %.1f",
			indicator.ErrInvalidParameter, r.Oversold, r.Overbought)
	}
	return nil
}

// Evaluate produces exactly one signal per bar of the frame. The first bar
// can never carry a crossover (no prior bar to compare), and any bar with an
// undefined indicator holds.
//
// The buy and sell conditions are structurally mutually exclusive (oversold
// vs overbought, opposite crossover directions); Evaluate verifies that
// invariant on every bar instead of silently picking one.
func (r Rule) Evaluate(symbol string, frame model.IndicatorFrame) ([]model.Signal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	signals := make([]model.Signal, 0, len(frame))
	for i := range frame {
		cur := &frame[i]

		sig := model.Signal{
			Date:   cur.Date,
			Symbol: symbol,
			Action: model.ActionHold,
			Price:  cur.Close,
			RSI:    cur.RSI,
		}

		if i > 0 {
			prev := &frame[i-1]
			bullish, bearish := crossover(prev, cur)

			buy := cur.RSI.Valid && cur.RSI.Value < r.Oversold && bullish
			sell := cur.RSI.Valid && cur.RSI.Value > r.Overbought && bearish
			if buy && sell {
				return nil, fmt.Errorf("strategy: buy and sell conditions both satisfied for %s at %s",
					symbol, cur.Date.Format("2006-01-02"))
			}

			switch {
			case buy:
				sig.Action = model.ActionBuy
				sig.Reason = fmt.Sprintf("RSI oversold (%.2f) and SMA crossover bullish", cur.RSI.Value)
			case sell:
				sig.Action = model.ActionSell
				sig.Reason = fmt.Sprintf("RSI overbought (%.2f) and SMA crossover bearish", cur.RSI.Value)
			}
		}

		signals = append(signals, sig)
	}
	return signals, nil
}

// Current evaluates only the latest bar, for daily monitoring. Unlike
// Evaluate it tests the current SMA relation (short above/below long)
// rather than a same-bar crossover event, so a standing oversold/overbought
// condition keeps alerting until it resolves.
func (r Rule) Current(symbol string, frame model.IndicatorFrame) model.Signal {
	if len(frame) == 0 {
		return model.Signal{Symbol: symbol, Action: model.ActionHold}
	}
	last := &frame[len(frame)-1]
	sig := model.Signal{
		Date:   last.Date,
		Symbol: symbol,
		Action: model.ActionHold,
		Price:  last.Close,
		RSI:    last.RSI,
	}

	if !last.RSI.Valid || !last.SMAShort.Valid || !last.SMALong.Valid {
		return sig
	}

	switch {
	case last.RSI.Value < r.Oversold && last.SMAShort.Value > last.SMALong.Value:
		sig.Action = model.ActionBuy
		sig.Reason = fmt.Sprintf("RSI oversold (%.2f) and SMA crossover bullish", last.RSI.Value)
	case last.RSI.Value > r.Overbought && last.SMAShort.Value < last.SMALong.Value:
		sig.Action = model.ActionSell
		sig.Reason = fmt.Sprintf("RSI overbought (%.2f) and SMA crossover bearish", last.RSI.Value)
	}
	return sig
}

// crossover detects an SMA cross between two consecutive bars. Both bars
// need both SMAs defined; otherwise there is no crossover by definition.
func crossover(prev, cur *model.IndicatorPoint) (bullish, bearish bool) {
	if !prev.SMAShort.Valid || !prev.SMALong.Valid || !cur.SMAShort.Valid || !cur.SMALong.Valid {
		return false, false
	}
	bullish = prev.SMAShort.Value <= prev.SMALong.Value && cur.SMAShort.Value > cur.SMALong.Value
	bearish = prev.SMAShort.Value >= prev.SMALong.Value && cur.SMAShort.Value < cur.SMALong.Value
	return bullish, bearish
}
