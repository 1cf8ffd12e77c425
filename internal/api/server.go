// Package api serves read-only analysis results over HTTP and streams new
// signals to WebSocket subscribers.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nifty-signals/internal/model"
	"nifty-signals/internal/store/sqlite"
)

// Server exposes stored signals, trades, and summaries.
type Server struct {
	store *sqlite.Store
	hub   *Hub
}

// NewServer creates a Server over the given store.
func NewServer(store *sqlite.Store) *Server {
	return &Server{store: store, hub: NewHub()}
}

// Hub returns the WebSocket hub for broadcasting analysis events.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the HTTP mux.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/signals", s.handleSignals)
	mux.HandleFunc("/api/v1/trades", s.handleTrades)
	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/stream", s.hub.HandleWS)
	return mux
}

// Serve runs the HTTP server until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[api] serving on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[api] server error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.hub.ClientCount(),
	})
}

// handleSignals returns a symbol's stored signals. ?actionable=true filters
// out HOLD rows.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol parameter")
		return
	}
	actionable := r.URL.Query().Get("actionable") == "true"

	signals, err := s.store.LoadSignals(symbol, actionable)
	if err != nil {
		log.Printf("[api] load signals for %s: %v", symbol, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if signals == nil {
		signals = []model.Signal{}
	}
	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol parameter")
		return
	}

	trades, err := s.store.LoadTrades(symbol)
	if err != nil {
		log.Printf("[api] load trades for %s: %v", symbol, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleSummary returns the latest stored summary for a symbol, defaulting
// to the portfolio aggregate.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = model.PortfolioSymbol
	}

	sum, err := s.store.LoadLatestSummary(symbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no summary for "+symbol)
			return
		}
		log.Printf("[api] load summary for %s: %v", symbol, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
