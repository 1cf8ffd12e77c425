package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Angel One credentials for historical data fetch
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	APIAddr       string

	// Telegram alerts (empty bot token disables alerts)
	TelegramBotToken string
	TelegramChatID   string

	// Optional generic webhook for alerts
	WebhookURL string

	// Universe: comma-separated "exchange:token:symbol" entries
	Symbols      string
	LookbackDays int

	// Strategy parameters
	RSIPeriod     int
	SMAShort      int
	SMALong       int
	RSIOversold   float64
	RSIOverbought float64
}

// Instrument identifies one tradable symbol in the universe.
type Instrument struct {
	Exchange string // e.g. "NSE"
	Token    string // vendor instrument token, e.g. "2885"
	Symbol   string // display symbol, e.g. "RELIANCE"
}

// Load reads configuration from environment variables with sensible defaults.
// Angel One credentials are required only when fetching live data; offline
// runs against the SQLite bar cache can leave them unset.
func Load(requireCreds bool) *Config {
	cfg := &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/signals.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		APIAddr:       getEnv("API_ADDR", ":8080"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("NOTIFY_WEBHOOK_URL", ""),

		// Default: a small NIFTY 50 subset
		Symbols:      getEnv("SYMBOLS", "NSE:2885:RELIANCE,NSE:11536:TCS,NSE:1333:HDFCBANK"),
		LookbackDays: getEnvInt("LOOKBACK_DAYS", 180),

		RSIPeriod:     getEnvInt("RSI_PERIOD", 14),
		SMAShort:      getEnvInt("SMA_SHORT", 20),
		SMALong:       getEnvInt("SMA_LONG", 50),
		RSIOversold:   getEnvFloat("RSI_OVERSOLD", 30),
		RSIOverbought: getEnvFloat("RSI_OVERBOUGHT", 70),
	}

	if requireCreds {
		cfg.AngelAPIKey = mustEnv("ANGEL_API_KEY")
		cfg.AngelClientCode = mustEnv("ANGEL_CLIENT_CODE")
		cfg.AngelPassword = mustEnv("ANGEL_PASSWORD")
		cfg.AngelTOTPSecret = mustEnv("ANGEL_TOTP_SECRET")
	} else {
		cfg.AngelAPIKey = getEnv("ANGEL_API_KEY", "")
		cfg.AngelClientCode = getEnv("ANGEL_CLIENT_CODE", "")
		cfg.AngelPassword = getEnv("ANGEL_PASSWORD", "")
		cfg.AngelTOTPSecret = getEnv("ANGEL_TOTP_SECRET", "")
	}

	return cfg
}

// ParseSymbols parses the Symbols string into Instrument entries.
// Malformed entries are skipped with a warning rather than aborting the run.
func (c *Config) ParseSymbols() []Instrument {
	parts := strings.Split(c.Symbols, ",")
	instruments := make([]Instrument, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.Split(p, ":")
		if len(fields) != 3 || fields[0] == "" || fields[1] == "" || fields[2] == "" {
			log.Printf("[config] skipping invalid symbol entry: %q", p)
			continue
		}
		instruments = append(instruments, Instrument{
			Exchange: fields[0],
			Token:    fields[1],
			Symbol:   fields[2],
		})
	}
	return instruments
}

// Validate checks the strategy parameters before any symbol is processed.
func (c *Config) Validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("config: RSI_PERIOD must be positive, got %d", c.RSIPeriod)
	}
	if c.SMAShort <= 0 || c.SMALong <= 0 {
		return fmt.Errorf("config: SMA periods must be positive, got short=%d long=%d", c.SMAShort, c.SMALong)
	}
	if c.SMAShort >= c.SMALong {
		return fmt.Errorf("config: SMA_SHORT (%d) must be less than SMA_LONG (%d)", c.SMAShort, c.SMALong)
	}
	if c.RSIOversold < 0 || c.RSIOversold > 100 || c.RSIOverbought < 0 || c.RSIOverbought > 100 {
		return fmt.Errorf("config: RSI thresholds must be within [0,100], got oversold=%.1f overbought=%.1f",
			c.RSIOversold, c.RSIOverbought)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("config: RSI_OVERSOLD (%.1f) must be below RSI_OVERBOUGHT (%.1f)",
			c.RSIOversold, c.RSIOverbought)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("config: LOOKBACK_DAYS must be positive, got %d", c.LookbackDays)
	}
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid number for %s: %q, using default %g", key, v, fallback)
		return fallback
	}
	return f
}
