package model

import (
	"encoding/json"
	"testing"
	"time"
)

func d(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestPriceSeries_Validate(t *testing.T) {
	ok := PriceSeries{
		{Date: d(0)}, {Date: d(1)}, {Date: d(4)}, // gaps allowed
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("ascending series rejected: %v", err)
	}

	dup := PriceSeries{{Date: d(0)}, {Date: d(0)}}
	if err := dup.Validate(); err == nil {
		t.Error("duplicate dates accepted")
	}

	desc := PriceSeries{{Date: d(2)}, {Date: d(1)}}
	if err := desc.Validate(); err == nil {
		t.Error("descending series accepted")
	}

	if err := (PriceSeries{}).Validate(); err != nil {
		t.Errorf("empty series should pass ordering check: %v", err)
	}
}

func TestOptFloat_ZeroValueIsUndefined(t *testing.T) {
	var v OptFloat
	if v.Valid {
		t.Error("zero OptFloat must be undefined")
	}
	if Undefined.Valid {
		t.Error("Undefined must be undefined")
	}
	if got := Defined(42.5); !got.Valid || got.Value != 42.5 {
		t.Errorf("Defined(42.5) = %+v", got)
	}
}

func TestSignal_JSONRoundTrip(t *testing.T) {
	sig := Signal{
		Date: d(3), Symbol: "RELIANCE", Action: ActionBuy,
		Price: 286075, RSI: Defined(25.5), Reason: "r",
	}
	var got Signal
	if err := json.Unmarshal(sig.JSON(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != ActionBuy || got.Price != 286075 || !got.RSI.Valid || got.RSI.Value != 25.5 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestTrade_Win(t *testing.T) {
	if !(&Trade{PnL: 1}).Win() {
		t.Error("positive pnl should win")
	}
	if (&Trade{PnL: 0}).Win() {
		t.Error("zero pnl must not count as a win")
	}
	if (&Trade{PnL: -1}).Win() {
		t.Error("negative pnl must not count as a win")
	}
}

func TestCloseRupees(t *testing.T) {
	p := PricePoint{Close: 286075}
	if got := p.CloseRupees(); got != 2860.75 {
		t.Errorf("CloseRupees() = %v, want 2860.75", got)
	}
}
