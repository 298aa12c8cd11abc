// Package web exposes the engine's balance updates to UI consumers over SSE.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
	"github.com/tradeterm/orderform/internal/services/balance"
)

const heartbeatInterval = 30 * time.Second

// Server streams per-account balance updates from the store.
type Server struct {
	Addr   string
	Store  *balance.Store
	Logger *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, store *balance.Store, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Store: store, Logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/balances/stream", s.handleBalanceStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

type balanceEvent struct {
	AccountID string              `json:"account_id"`
	Assets    []domain.AssetEntry `json:"assets"`
	Loading   bool                `json:"loading"`
}

func (s *Server) handleBalanceStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "balance store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	updates := s.Store.Subscribe()
	defer s.Store.Unsubscribe(updates)

	send := func(accountID string) {
		assets, ok := s.Store.Get(accountID)
		if !ok {
			return
		}
		payload, err := json.Marshal(balanceEvent{
			AccountID: accountID,
			Assets:    assets,
			Loading:   s.Store.IsLoading(),
		})
		if err != nil {
			s.Logger.Error("marshal balance event", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: balance\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	// replay the current cache so new consumers start consistent
	for accountID := range s.Store.Snapshot() {
		send(accountID)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case update, ok := <-updates:
			if !ok {
				return
			}
			send(update.AccountID)
		}
	}
}
