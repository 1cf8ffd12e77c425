// Package notification delivers signal and error alerts to external
// channels (Telegram, webhooks).
package notification

import (
	"context"
	"fmt"
	"log"

	"nifty-signals/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them, for development and
// runs without Telegram credentials.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// SignalAlert formats an actionable signal as an alert.
func SignalAlert(sig model.Signal) Alert {
	rsi := "n/a"
	if sig.RSI.Valid {
		rsi = fmt.Sprintf("%.2f", sig.RSI.Value)
	}
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("%s signal: %s", sig.Action, sig.Symbol),
		Message: fmt.Sprintf("Price: ₹%.2f\nRSI: %s\nDate: %s\n%s",
			float64(sig.Price)/100, rsi, sig.Date.Format("2006-01-02"), sig.Reason),
	}
}

// SummaryAlert formats a performance summary as an alert.
func SummaryAlert(sum model.PerformanceSummary) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("Backtest summary: %s", sum.Symbol),
		Message: fmt.Sprintf(
			"Trades: %d (%d won, %d lost)\nWin rate: %.1f%%\nTotal PnL: ₹%.2f\nSharpe: %.2f\nAvg holding: %.1f days",
			sum.TotalTrades, sum.WinningTrades, sum.LosingTrades,
			sum.WinRate*100, float64(sum.TotalPnL)/100, sum.SharpeRatio, sum.AvgHoldingDays),
	}
}

// ErrorAlert formats a per-symbol pipeline failure as an alert.
func ErrorAlert(symbol string, err error) Alert {
	return Alert{
		Level:   AlertWarning,
		Title:   fmt.Sprintf("Analysis failed: %s", symbol),
		Message: err.Error(),
	}
}
