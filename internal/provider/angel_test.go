package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nifty-signals/config"
)

var testCreds = Credentials{
	APIKey:     "key",
	ClientCode: "C1234",
	Password:   "pin",
	TOTPSecret: "JBSWY3DPEHPK3PXP", // valid base32
}

func loginOK(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": true,
		"data":   map[string]string{"jwtToken": "test-jwt"},
	})
}

func TestLogin_SetsToken(t *testing.T) {
	var gotTOTP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != loginPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotTOTP = body["totp"]
		if body["clientcode"] != "C1234" {
			t.Errorf("clientcode = %q", body["clientcode"])
		}
		loginOK(w)
	}))
	defer srv.Close()

	c := New(testCreds, WithBaseURL(srv.URL))
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c.jwtToken != "test-jwt" {
		t.Errorf("jwtToken = %q", c.jwtToken)
	}
	if len(gotTOTP) != 6 {
		t.Errorf("totp %q is not a 6-digit code", gotTOTP)
	}
}

func TestLogin_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "message": "Invalid totp"})
	}))
	defer srv.Close()

	c := New(testCreds, WithBaseURL(srv.URL))
	if err := c.Login(context.Background()); err == nil {
		t.Error("Login should fail on status=false")
	}
}

func TestBars_ParsesCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == loginPath {
			loginOK(w)
			return
		}
		if r.URL.Path != candlePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-jwt" {
			t.Errorf("Authorization = %q", auth)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["interval"] != "ONE_DAY" {
			t.Errorf("interval = %q", body["interval"])
		}
		if body["symboltoken"] != "2885" {
			t.Errorf("symboltoken = %q", body["symboltoken"])
		}

		fmt.Fprint(w, `{"status":true,"data":[
			["2024-01-01T00:00:00+05:30",2850.00,2870.50,2840.25,2860.75,1200000],
			["2024-01-02T00:00:00+05:30",2861.00,2880.00,2855.00,2875.10,900000]
		]}`)
	}))
	defer srv.Close()

	c := New(testCreds, WithBaseURL(srv.URL))
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	inst := config.Instrument{Exchange: "NSE", Token: "2885", Symbol: "RELIANCE"}
	series, err := c.Bars(context.Background(), inst, time.Now().AddDate(0, 0, -10), time.Now())
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d bars, want 2", len(series))
	}

	// Rupees converted to paise, dates normalized to UTC midnight.
	if series[0].Close != 286075 {
		t.Errorf("close = %d paise, want 286075", series[0].Close)
	}
	if series[0].Open != 285000 || series[0].High != 287050 || series[0].Low != 284025 {
		t.Errorf("ohl round trip wrong: %+v", series[0])
	}
	if series[0].Volume != 1200000 {
		t.Errorf("volume = %d", series[0].Volume)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !series[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v (exchange calendar day at UTC midnight)", series[0].Date, want)
	}
	if !series[0].Date.Before(series[1].Date) {
		t.Error("series not ascending")
	}
}

func TestBars_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":true,"data":[]}`)
	}))
	defer srv.Close()

	c := New(testCreds, WithBaseURL(srv.URL))
	_, err := c.Bars(context.Background(), config.Instrument{Symbol: "X"}, time.Now(), time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestBars_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(testCreds, WithBaseURL(srv.URL))
	if _, err := c.Bars(context.Background(), config.Instrument{Symbol: "X"}, time.Now(), time.Now()); err == nil {
		t.Error("Bars should surface HTTP errors")
	}
}

func TestToPaise_Rounding(t *testing.T) {
	cases := []struct {
		rupees float64
		want   int64
	}{
		{2860.75, 286075},
		{0.01, 1},
		{0, 0},
		{99.99, 9999},
	}
	for _, tc := range cases {
		if got := toPaise(tc.rupees); got != tc.want {
			t.Errorf("toPaise(%v) = %d, want %d", tc.rupees, got, tc.want)
		}
	}
}
