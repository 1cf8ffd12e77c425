// Package report publishes analysis output to Redis so dashboards and other
// consumers can pick it up without touching the database.
//
// Each signal goes to a per-symbol stream plus a latest key with TTL and a
// pubsub channel; summaries get a latest key per symbol. Publishing is best
// effort: a Redis failure is logged, never fatal to the run.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"nifty-signals/internal/model"
)

const (
	signalStreamMaxLen = 500
	defaultLatestTTL   = 24 * time.Hour
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
}

// Publisher writes signals and summaries to Redis.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[report] connected to redis at %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishSignals writes actionable signals in one pipeline: XADD to the
// symbol's stream, SET the latest key, PUBLISH to subscribers. HOLD signals
// are skipped.
func (p *Publisher) PublishSignals(ctx context.Context, signals []model.Signal) {
	pipe := p.client.Pipeline()
	n := 0
	for i := range signals {
		sig := &signals[i]
		if sig.Action == model.ActionHold {
			continue
		}
		n++

		jsonData := string(sig.JSON())
		streamKey := "signal:" + sig.Symbol
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: streamKey,
			MaxLen: signalStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": jsonData},
		})
		pipe.Set(ctx, "signal:latest:"+sig.Symbol, jsonData, defaultLatestTTL)
		pipe.Publish(ctx, "pub:signal:"+sig.Symbol, jsonData)
	}
	if n == 0 {
		return
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[report] signal pipeline error (%d signals): %v", n, err)
	}
}

// PublishSummary writes a performance summary to its latest key and pubsub
// channel.
func (p *Publisher) PublishSummary(ctx context.Context, sum model.PerformanceSummary) {
	jsonData := string(sum.JSON())

	pipe := p.client.Pipeline()
	pipe.Set(ctx, "summary:latest:"+sum.Symbol, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, "pub:summary:"+sum.Symbol, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[report] summary pipeline error for %s: %v", sum.Symbol, err)
	}
}

// LatestSignal reads the most recent published signal for a symbol.
// Returns nil with no error when none exists.
func (p *Publisher) LatestSignal(ctx context.Context, symbol string) (*model.Signal, error) {
	raw, err := p.client.Get(ctx, "signal:latest:"+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET signal:latest:%s: %w", symbol, err)
	}

	var sig model.Signal
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		return nil, fmt.Errorf("parse latest signal for %s: %w", symbol, err)
	}
	return &sig, nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
