// cmd/daily is the monitoring mode: it serves stored results over HTTP and
// WebSocket, and once per interval refetches recent bars, evaluates the
// latest bar for each symbol, and alerts on actionable signals.
//
// Usage:
//
//	go run ./cmd/daily --interval=24h
//	go run ./cmd/daily --once    # single check, then exit
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nifty-signals/config"
	"nifty-signals/internal/api"
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
	logger.Init("daily", logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	log.Println("[daily] starting...")

	interval := flag.Duration("interval", 24*time.Hour, "Time between signal checks")
	once := flag.Bool("once", false, "Run a single check and exit")
	flag.Parse()

	cfg := config.Load(true)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[daily] %v", err)
	}

	instruments := cfg.ParseSymbols()
	if len(instruments) == 0 {
		log.Fatal("[daily] no valid symbols configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[daily] shutdown signal received")
		cancel()
	}()

	// ---- Storage & servers ----
	os.MkdirAll("data", 0o755)
	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[daily] sqlite init failed: %v", err)
	}
	defer store.Close()

	prom := metrics.New()
	go prom.Serve(ctx, cfg.MetricsAddr)

	apiSrv := api.NewServer(store)
	go apiSrv.Serve(ctx, cfg.APIAddr)

	var pub *report.Publisher
	pub, err = report.New(report.PublisherConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[daily] WARNING: redis unavailable: %v (continuing without publishing)", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	notifier := buildNotifier(cfg)

	params := indicator.Params{
		RSIPeriod:      cfg.RSIPeriod,
		SMAShortPeriod: cfg.SMAShort,
		SMALongPeriod:  cfg.SMALong,
	}
	rule := strategy.Rule{Oversold: cfg.RSIOversold, Overbought: cfg.RSIOverbought}

	check := func() {
		client := provider.New(provider.Credentials{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
		})
		if err := client.Login(ctx); err != nil {
			log.Printf("[daily] login failed: %v", err)
			return
		}

		to := time.Now().UTC()
		from := to.AddDate(0, 0, -cfg.LookbackDays)

		run := runner.New(client, params, rule, prom)
		results, err := run.Run(ctx, instruments, from, to)
		if err != nil {
			log.Printf("[daily] run failed: %v", err)
			return
		}

		runAt := time.Now().UTC()
		actionable := 0
		for i := range results {
			res := &results[i]
			if res.Err != nil {
				if err := notifier.Send(ctx, notification.ErrorAlert(res.Instrument.Symbol, res.Err)); err != nil {
					log.Printf("[daily] alert delivery failed: %v", err)
				}
				continue
			}

			if err := store.SaveBars(res.Instrument.Symbol, res.Series); err != nil {
				log.Printf("[daily] save bars for %s: %v", res.Instrument.Symbol, err)
			}
			if err := store.SaveResult(res.Signals, res.Backtest, runAt); err != nil {
				log.Printf("[daily] save results for %s: %v", res.Instrument.Symbol, err)
			}

			cur := res.Current
			slog.Info("current state",
				slog.String("symbol", cur.Symbol),
				slog.String("action", string(cur.Action)))
			if cur.Action == model.ActionHold {
				continue
			}
			actionable++

			if pub != nil {
				// Standing conditions re-trigger every check; only alert when
				// the signal moved to a new bar or flipped direction.
				if prev, err := pub.LatestSignal(ctx, cur.Symbol); err == nil && prev != nil &&
					prev.Action == cur.Action && prev.Date.Equal(cur.Date) {
					log.Printf("[daily] %s: %s already alerted for %s, skipping",
						cur.Symbol, cur.Action, cur.Date.Format("2006-01-02"))
					continue
				}
				pub.PublishSignals(ctx, []model.Signal{cur})
			}
			apiSrv.Hub().Broadcast("signal", cur)
			if err := notifier.Send(ctx, notification.SignalAlert(cur)); err != nil {
				log.Printf("[daily] alert delivery failed: %v", err)
			}
		}
		log.Printf("[daily] check complete: %d actionable signals across %d symbols", actionable, len(instruments))
	}

	check()
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	log.Printf("[daily] monitoring every %v (api on %s)", *interval, cfg.APIAddr)
	for {
		select {
		case <-ctx.Done():
			log.Println("[daily] shutdown complete.")
			return
		case <-ticker.C:
			check()
		}
	}
}

func buildNotifier(cfg *config.Config) notification.Notifier {
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		log.Println("[daily] telegram alerts enabled")
		return notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	if cfg.WebhookURL != "" {
		log.Printf("[daily] webhook alerts enabled: %s", cfg.WebhookURL)
		return notification.NewWebhookNotifier(cfg.WebhookURL)
	}
	return notification.NewLogNotifier()
}
