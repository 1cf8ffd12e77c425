// Package provider fetches daily price history from the Angel One SmartAPI.
//
// The client logs in with a TOTP generated from the account secret, then
// pulls ONE_DAY candles from the historical endpoint. Responses arrive in
// rupees and are converted to integer paise at the boundary.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"nifty-signals/config"
	"nifty-signals/internal/model"
)

const (
	defaultBaseURL = "https://apiconnect.angelone.in"
	loginPath      = "/rest/auth/angelbroking/user/v1/loginByPassword"
	candlePath     = "/rest/secure/angelbroking/historical/v1/getCandleData"
)

// ErrNoData is returned when the provider responds successfully but with an
// empty candle set for the requested window.
var ErrNoData = errors.New("provider returned no candles")

// Credentials are the Angel One account secrets needed for a session.
type Credentials struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string
}

// Client is a daily-candle client for the Angel One historical API. It
// implements runner.BarSource. Safe for concurrent use after Login.
type Client struct {
	creds   Credentials
	baseURL string
	http    *http.Client

	jwtToken string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates an unauthenticated client. Call Login before fetching bars.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginData struct {
	JWTToken string `json:"jwtToken"`
}

// Login generates a fresh TOTP and opens a session. The JWT token is held
// for subsequent candle requests.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.creds.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("provider: totp generation: %w", err)
	}

	body := map[string]string{
		"clientcode": c.creds.ClientCode,
		"password":   c.creds.Password,
		"totp":       code,
	}
	env, err := c.post(ctx, loginPath, body)
	if err != nil {
		return fmt.Errorf("provider: login: %w", err)
	}
	if !env.Status {
		return fmt.Errorf("provider: login rejected: %s", env.Message)
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("provider: login response: %w", err)
	}
	if data.JWTToken == "" {
		return errors.New("provider: login returned empty token")
	}
	c.jwtToken = data.JWTToken
	log.Printf("[provider] session ready for %s", c.creds.ClientCode)
	return nil
}

// Bars fetches ONE_DAY candles for the instrument over [from, to].
//
// Angel One returns each candle as a 6-element array: ISO timestamp then
// open, high, low, close in rupees and volume. Dates are normalized to UTC
// midnight and prices converted to paise.
func (c *Client) Bars(ctx context.Context, inst config.Instrument, from, to time.Time) (model.PriceSeries, error) {
	body := map[string]string{
		"exchange":    inst.Exchange,
		"symboltoken": inst.Token,
		"interval":    "ONE_DAY",
		"fromdate":    from.Format("2006-01-02 09:15"),
		"todate":      to.Format("2006-01-02 15:30"),
	}
	env, err := c.post(ctx, candlePath, body)
	if err != nil {
		return nil, fmt.Errorf("provider: candle data for %s: %w", inst.Symbol, err)
	}
	if !env.Status {
		return nil, fmt.Errorf("provider: candle data for %s rejected: %s", inst.Symbol, env.Message)
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("provider: candle payload for %s: %w", inst.Symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, inst.Symbol)
	}

	series := make(model.PriceSeries, 0, len(rows))
	for i, row := range rows {
		bar, err := parseCandle(row)
		if err != nil {
			return nil, fmt.Errorf("provider: candle %d for %s: %w", i, inst.Symbol, err)
		}
		series = append(series, bar)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("provider: series for %s: %w", inst.Symbol, err)
	}
	log.Printf("[provider] %s: %d daily bars (%s to %s)",
		inst.Symbol, len(series),
		series[0].Date.Format("2006-01-02"), series[len(series)-1].Date.Format("2006-01-02"))
	return series, nil
}

func parseCandle(row []json.RawMessage) (model.PricePoint, error) {
	if len(row) != 6 {
		return model.PricePoint{}, fmt.Errorf("expected 6 fields, got %d", len(row))
	}

	var ts string
	if err := json.Unmarshal(row[0], &ts); err != nil {
		return model.PricePoint{}, fmt.Errorf("timestamp: %w", err)
	}
	t, err := time.Parse("2006-01-02T15:04:05-07:00", ts)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("timestamp %q: %w", ts, err)
	}

	var vals [5]float64
	for i := 0; i < 5; i++ {
		if err := json.Unmarshal(row[i+1], &vals[i]); err != nil {
			return model.PricePoint{}, fmt.Errorf("field %d: %w", i+1, err)
		}
	}

	// Take the calendar day in the exchange's own offset, then pin it to UTC
	// midnight. Converting to UTC first would shift IST days back by one.
	y, m, d := t.Date()
	return model.PricePoint{
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Open:   toPaise(vals[0]),
		High:   toPaise(vals[1]),
		Low:    toPaise(vals[2]),
		Close:  toPaise(vals[3]),
		Volume: int64(vals[4]),
	}, nil
}

// toPaise converts a rupee price to integer paise, rounding half away from
// zero. Provider prices carry at most two decimal places.
func toPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (*apiEnvelope, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.creds.APIKey)
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	if c.jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwtToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &env, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
