// cmd/analysis runs the full historical pipeline for every configured
// symbol: fetch daily bars, compute RSI and SMA columns, generate signals,
// replay the backtest, and persist plus publish the results.
//
// Usage:
//
//	go run ./cmd/analysis --lookback=180
//	go run ./cmd/analysis --offline    # reuse cached bars, no credentials
//	go run ./cmd/analysis --serve      # keep the results API up after the run
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nifty-signals/config"
	"nifty-signals/internal/api"
	"nifty-signals/internal/backtest"
	"nifty-signals/internal/indicator"
	"nifty-signals/internal/logger"
	"nifty-signals/internal/metrics"
	"nifty-signals/internal/model"
	"nifty-signals/internal/notification"
	"nifty-signals/internal/provider"
	"nifty-signals/internal/report"
	"nifty-signals/internal/runner"
	sqlitestore "nifty-signals/internal/store/sqlite"
	"nifty-signals/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Init("analysis", logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	log.Println("[analysis] starting...")

	offline := flag.Bool("offline", false, "Run against cached bars in SQLite instead of the provider")
	lookback := flag.Int("lookback", 0, "Lookback window in days (0=use LOOKBACK_DAYS env)")
	serve := flag.Bool("serve", false, "Keep serving results over HTTP/WS after the run")
	flag.Parse()

	cfg := config.Load(!*offline)
	if *lookback > 0 {
		cfg.LookbackDays = *lookback
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[analysis] %v", err)
	}

	instruments := cfg.ParseSymbols()
	if len(instruments) == 0 {
		log.Fatal("[analysis] no valid symbols configured")
	}
	log.Printf("[analysis] universe: %d symbols, lookback %d days", len(instruments), cfg.LookbackDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[analysis] shutdown signal received")
		cancel()
	}()

	// ---- Storage ----
	os.MkdirAll("data", 0o755)
	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[analysis] sqlite init failed: %v", err)
	}
	defer store.Close()

	// ---- Metrics ----
	prom := metrics.New()
	go prom.Serve(ctx, cfg.MetricsAddr)

	// ---- Results API (optional) ----
	var apiSrv *api.Server
	if *serve {
		apiSrv = api.NewServer(store)
		go apiSrv.Serve(ctx, cfg.APIAddr)
	}

	// ---- Redis publisher (best effort) ----
	var pub *report.Publisher
	pub, err = report.New(report.PublisherConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[analysis] WARNING: redis unavailable: %v (continuing without publishing)", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	// ---- Notifier ----
	notifier := buildNotifier(cfg)

	// ---- Bar source ----
	var source runner.BarSource
	if *offline {
		log.Println("[analysis] offline mode: reading bars from SQLite cache")
		source = store
	} else {
		client := provider.New(provider.Credentials{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
		})
		if err := client.Login(ctx); err != nil {
			log.Fatalf("[analysis] %v", err)
		}
		source = client
	}

	params := indicator.Params{
		RSIPeriod:      cfg.RSIPeriod,
		SMAShortPeriod: cfg.SMAShort,
		SMALongPeriod:  cfg.SMALong,
	}
	rule := strategy.Rule{Oversold: cfg.RSIOversold, Overbought: cfg.RSIOverbought}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -cfg.LookbackDays)

	run := runner.New(source, params, rule, prom)
	results, err := run.Run(ctx, instruments, from, to)
	if err != nil {
		log.Fatalf("[analysis] run failed: %v", err)
	}

	// ---- Persist, publish, alert ----
	runAt := time.Now().UTC()
	var btResults []*backtest.Result
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			if err := notifier.Send(ctx, notification.ErrorAlert(res.Instrument.Symbol, res.Err)); err != nil {
				log.Printf("[analysis] alert delivery failed: %v", err)
			}
			continue
		}
		btResults = append(btResults, res.Backtest)

		if !*offline {
			if err := store.SaveBars(res.Instrument.Symbol, res.Series); err != nil {
				log.Printf("[analysis] save bars for %s: %v", res.Instrument.Symbol, err)
			}
		}
		if err := store.SaveResult(res.Signals, res.Backtest, runAt); err != nil {
			log.Printf("[analysis] save results for %s: %v", res.Instrument.Symbol, err)
		}
		if pub != nil {
			pub.PublishSignals(ctx, res.Signals)
			pub.PublishSummary(ctx, res.Backtest.Summary)
		}
		if apiSrv != nil && res.Current.Action != model.ActionHold {
			apiSrv.Hub().Broadcast("signal", res.Current)
		}
		slog.Info("symbol complete",
			slog.String("symbol", res.Instrument.Symbol),
			slog.Int("trades", res.Backtest.Summary.TotalTrades),
			slog.Float64("win_rate", res.Backtest.Summary.WinRate),
			slog.Float64("sharpe", res.Backtest.Summary.SharpeRatio))
	}

	portfolio := backtest.PortfolioSummary(btResults)
	if err := store.SaveSummary(portfolio, runAt); err != nil {
		log.Printf("[analysis] save portfolio summary: %v", err)
	}
	if pub != nil {
		pub.PublishSummary(ctx, portfolio)
	}
	if err := notifier.Send(ctx, notification.SummaryAlert(portfolio)); err != nil {
		log.Printf("[analysis] alert delivery failed: %v", err)
	}

	printSummary(results, portfolio)

	if *serve {
		log.Printf("[analysis] serving results on %s (ctrl-c to exit)", cfg.APIAddr)
		<-ctx.Done()
	}
}

// buildNotifier selects the alert backend from configuration. Telegram wins
// when configured, then webhook, then plain logs.
func buildNotifier(cfg *config.Config) notification.Notifier {
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		log.Println("[analysis] telegram alerts enabled")
		return notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	if cfg.WebhookURL != "" {
		log.Printf("[analysis] webhook alerts enabled: %s", cfg.WebhookURL)
		return notification.NewWebhookNotifier(cfg.WebhookURL)
	}
	return notification.NewLogNotifier()
}

func printSummary(results []runner.SymbolResult, portfolio model.PerformanceSummary) {
	ok, failed := 0, 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		} else {
			ok++
		}
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        ANALYSIS COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Symbols analyzed:  %-16d ║\n", ok)
	fmt.Printf("║  Symbols failed:    %-16d ║\n", failed)
	fmt.Printf("║  Total trades:      %-16d ║\n", portfolio.TotalTrades)
	fmt.Printf("║  Win rate:          %-15.1f%% ║\n", portfolio.WinRate*100)
	fmt.Printf("║  Total PnL:         ₹%-15.2f ║\n", float64(portfolio.TotalPnL)/100)
	fmt.Printf("║  Sharpe:            %-16.2f ║\n", portfolio.SharpeRatio)
	fmt.Println("╚══════════════════════════════════════╝")
}
