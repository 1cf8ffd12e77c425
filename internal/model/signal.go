package model

import (
	"encoding/json"
	"time"
)

// Action represents a trading action derived from the signal rule.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is the rule's verdict for one bar of one symbol.
type Signal struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Action Action    `json:"action"`
	Price  int64     `json:"price"` // bar close in paise
	RSI    OptFloat  `json:"rsi"`
	Reason string    `json:"reason"` // human-readable justification, "" for HOLD
}

// JSON returns the JSON-encoded signal.
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
