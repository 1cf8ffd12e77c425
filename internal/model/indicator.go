package model

import "time"

// OptFloat is an explicitly tagged optional value for indicator outputs.
// Bars inside the warm-up window carry Valid=false, never a silently-wrong
// zero. Comparisons against an undefined value must branch on Valid first.
type OptFloat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Defined constructs a defined OptFloat.
func Defined(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// Undefined is the zero OptFloat, spelled out for readability at call sites.
var Undefined = OptFloat{}

// IndicatorPoint is one row of an IndicatorFrame, aligned by index and date
// to the PriceSeries it was computed from.
type IndicatorPoint struct {
	Date     time.Time `json:"date"`
	Close    int64     `json:"close"` // paise
	RSI      OptFloat  `json:"rsi"`
	SMAShort OptFloat  `json:"sma_short"`
	SMALong  OptFloat  `json:"sma_long"`
}

// IndicatorFrame is the per-bar indicator series for one symbol. Its length
// always equals the length of the source PriceSeries.
type IndicatorFrame []IndicatorPoint
