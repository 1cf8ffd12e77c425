package indicator

import (
	"fmt"
	"log"

	"nifty-signals/internal/model"
)

// Compute derives the indicator frame for one symbol's price series. The
// frame has exactly one row per bar, aligned by index and date; rows inside
// an indicator's warm-up window carry an undefined marker for that field.
//
// The computation is a pure function of the series prefix up to each bar:
// no look-ahead. An empty series is a hard failure; a non-empty series
// shorter than the warm-up window produces a frame of undefined rows.
func Compute(series model.PriceSeries, params Params) (model.IndicatorFrame, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty price series", ErrInsufficientData)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if len(series) < params.WarmupBars() {
		log.Printf("[indicator] series length %d below warm-up window %d, all rows undefined",
			len(series), params.WarmupBars())
	}

	rsi := NewRSI(params.RSIPeriod)
	smaShort := NewSMA(params.SMAShortPeriod)
	smaLong := NewSMA(params.SMALongPeriod)

	frame := make(model.IndicatorFrame, 0, len(series))
	for _, bar := range series {
		rsi.Update(bar.Close)
		smaShort.Update(bar.Close)
		smaLong.Update(bar.Close)

		pt := model.IndicatorPoint{
			Date:  bar.Date,
			Close: bar.Close,
		}
		if rsi.Ready() {
			pt.RSI = model.Defined(rsi.Value())
		}
		if smaShort.Ready() {
			pt.SMAShort = model.Defined(smaShort.Value())
		}
		if smaLong.Ready() {
			pt.SMALong = model.Defined(smaLong.Value())
		}
		frame = append(frame, pt)
	}

	return frame, nil
}
