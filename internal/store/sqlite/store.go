// Package sqlite persists daily bars, signals, trades, and performance
// summaries. Bars double as an offline cache so analysis can rerun without
// hitting the provider.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nifty-signals/config"
	"nifty-signals/internal/backtest"
	"nifty-signals/internal/model"
)

// Store is a single-writer SQLite store in WAL mode.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			symbol  TEXT    NOT NULL,
			date    INTEGER NOT NULL,
			open    INTEGER NOT NULL,
			high    INTEGER NOT NULL,
			low     INTEGER NOT NULL,
			close   INTEGER NOT NULL,
			volume  INTEGER,
			PRIMARY KEY (symbol, date)
		);

		CREATE TABLE IF NOT EXISTS signals (
			symbol  TEXT    NOT NULL,
			date    INTEGER NOT NULL,
			action  TEXT    NOT NULL,
			price   INTEGER NOT NULL,
			rsi     REAL,
			reason  TEXT,
			PRIMARY KEY (symbol, date)
		);

		CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			entry_date  INTEGER NOT NULL,
			entry_price INTEGER NOT NULL,
			exit_date   INTEGER NOT NULL,
			exit_price  INTEGER NOT NULL,
			pnl         INTEGER NOT NULL,
			pnl_pct     REAL    NOT NULL,
			hold_days   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS summaries (
			symbol        TEXT    NOT NULL,
			run_at        INTEGER NOT NULL,
			total_trades  INTEGER NOT NULL,
			winning       INTEGER NOT NULL,
			losing        INTEGER NOT NULL,
			win_rate      REAL    NOT NULL,
			total_pnl     INTEGER NOT NULL,
			avg_win       REAL    NOT NULL,
			avg_loss      REAL    NOT NULL,
			sharpe        REAL    NOT NULL,
			avg_hold_days REAL    NOT NULL,
			PRIMARY KEY (symbol, run_at)
		);
	`)
	return err
}

// SaveBars upserts a symbol's daily bars in one transaction.
func (s *Store) SaveBars(symbol string, series model.PriceSeries) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range series {
		b := &series[i]
		if _, err := stmt.Exec(symbol, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadBars reads a symbol's cached bars for [from, to] in ascending order.
func (s *Store) LoadBars(symbol string, from, to time.Time) (model.PriceSeries, error) {
	rows, err := s.db.Query(`
		SELECT date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC
	`, symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series model.PriceSeries
	for rows.Next() {
		var (
			ts  int64
			bar model.PricePoint
		)
		if err := rows.Scan(&ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}
		bar.Date = time.Unix(ts, 0).UTC()
		series = append(series, bar)
	}
	return series, rows.Err()
}

// Bars adapts LoadBars to the pipeline's bar source interface, for offline
// runs against the cache.
func (s *Store) Bars(_ context.Context, inst config.Instrument, from, to time.Time) (model.PriceSeries, error) {
	series, err := s.LoadBars(inst.Symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("sqlite: no cached bars for %s", inst.Symbol)
	}
	return series, nil
}

// SaveResult persists a symbol's signals, closed trades, and summary in one
// transaction. Earlier trades and summaries for the symbol are kept; signals
// are upserted by date.
func (s *Store) SaveResult(signals []model.Signal, res *backtest.Result, runAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	sigStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO signals (symbol, date, action, price, rsi, reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer sigStmt.Close()

	for i := range signals {
		sig := &signals[i]
		var rsi interface{}
		if sig.RSI.Valid {
			rsi = sig.RSI.Value
		}
		if _, err := sigStmt.Exec(sig.Symbol, sig.Date.Unix(), string(sig.Action), sig.Price, rsi, sig.Reason); err != nil {
			tx.Rollback()
			return err
		}
	}

	trStmt, err := tx.Prepare(`
		INSERT INTO trades (symbol, entry_date, entry_price, exit_date, exit_price, pnl, pnl_pct, hold_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer trStmt.Close()

	// Re-runs replace the symbol's trade ledger instead of appending to it.
	if _, err := tx.Exec(`DELETE FROM trades WHERE symbol = ?`, res.Symbol); err != nil {
		tx.Rollback()
		return err
	}
	for i := range res.Trades {
		t := &res.Trades[i]
		if _, err := trStmt.Exec(t.Symbol, t.EntryDate.Unix(), t.EntryPrice,
			t.ExitDate.Unix(), t.ExitPrice, t.PnL, t.PnLPct, t.HoldingDays); err != nil {
			tx.Rollback()
			return err
		}
	}

	sum := &res.Summary
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO summaries
			(symbol, run_at, total_trades, winning, losing, win_rate, total_pnl, avg_win, avg_loss, sharpe, avg_hold_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.Symbol, runAt.Unix(), sum.TotalTrades, sum.WinningTrades, sum.LosingTrades,
		sum.WinRate, sum.TotalPnL, sum.AvgWin, sum.AvgLoss, sum.SharpeRatio, sum.AvgHoldingDays); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// SaveSummary persists a standalone summary row (used for the portfolio
// aggregate, which has no trade ledger of its own).
func (s *Store) SaveSummary(sum model.PerformanceSummary, runAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO summaries
			(symbol, run_at, total_trades, winning, losing, win_rate, total_pnl, avg_win, avg_loss, sharpe, avg_hold_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.Symbol, runAt.Unix(), sum.TotalTrades, sum.WinningTrades, sum.LosingTrades,
		sum.WinRate, sum.TotalPnL, sum.AvgWin, sum.AvgLoss, sum.SharpeRatio, sum.AvgHoldingDays)
	return err
}

// LoadSignals reads a symbol's stored signals in date order. Pass
// actionableOnly to skip HOLD rows.
func (s *Store) LoadSignals(symbol string, actionableOnly bool) ([]model.Signal, error) {
	q := `
		SELECT symbol, date, action, price, rsi, reason
		FROM signals WHERE symbol = ?`
	if actionableOnly {
		q += ` AND action != 'HOLD'`
	}
	q += ` ORDER BY date ASC`

	rows, err := s.db.Query(q, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var (
			sig    model.Signal
			ts     int64
			action string
			rsi    sql.NullFloat64
		)
		if err := rows.Scan(&sig.Symbol, &ts, &action, &sig.Price, &rsi, &sig.Reason); err != nil {
			return nil, err
		}
		sig.Date = time.Unix(ts, 0).UTC()
		sig.Action = model.Action(action)
		if rsi.Valid {
			sig.RSI = model.Defined(rsi.Float64)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// LoadTrades reads a symbol's stored closed trades in entry order.
func (s *Store) LoadTrades(symbol string) ([]model.Trade, error) {
	rows, err := s.db.Query(`
		SELECT symbol, entry_date, entry_price, exit_date, exit_price, pnl, pnl_pct, hold_days
		FROM trades WHERE symbol = ? ORDER BY entry_date ASC
	`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var (
			t          model.Trade
			entry, exi int64
		)
		if err := rows.Scan(&t.Symbol, &entry, &t.EntryPrice, &exi, &t.ExitPrice,
			&t.PnL, &t.PnLPct, &t.HoldingDays); err != nil {
			return nil, err
		}
		t.EntryDate = time.Unix(entry, 0).UTC()
		t.ExitDate = time.Unix(exi, 0).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// LoadLatestSummary reads the most recent summary row for a symbol.
// Returns sql.ErrNoRows when none exists.
func (s *Store) LoadLatestSummary(symbol string) (model.PerformanceSummary, error) {
	var sum model.PerformanceSummary
	err := s.db.QueryRow(`
		SELECT symbol, total_trades, winning, losing, win_rate, total_pnl, avg_win, avg_loss, sharpe, avg_hold_days
		FROM summaries WHERE symbol = ? ORDER BY run_at DESC LIMIT 1
	`, symbol).Scan(&sum.Symbol, &sum.TotalTrades, &sum.WinningTrades, &sum.LosingTrades,
		&sum.WinRate, &sum.TotalPnL, &sum.AvgWin, &sum.AvgLoss, &sum.SharpeRatio, &sum.AvgHoldingDays)
	return sum, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
