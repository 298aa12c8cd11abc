// Command orderform runs the order-entry engine of the trading terminal:
// it polls account balances from the terminal backend, aggregates them per
// exchange accounting rules and serves the reconciled figures to UI
// consumers over SSE.
//
// Usage:
//
//	orderform setup                  (interactive config wizard)
//	orderform --config config.yaml
//	orderform --backend http://localhost:9000 --pair BTC_USDT
//
// Optional environment variables:
//
//	HYPERLIQUID_PRIVATE_KEY — enables the native Hyperliquid price feed
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradeterm/orderform/config"
	"github.com/tradeterm/orderform/internal/clients"
	"github.com/tradeterm/orderform/internal/form"
	"github.com/tradeterm/orderform/internal/services/balance"
	"github.com/tradeterm/orderform/internal/services/pricer"
	"github.com/tradeterm/orderform/internal/services/quantity"
	"github.com/tradeterm/orderform/internal/setup"
	"github.com/tradeterm/orderform/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	terminal := clients.NewTerminalClient(conf.BackendURL)

	var priceSource pricer.Pricer = pricer.NewTerminalPricer(terminal)
	if key := os.Getenv("HYPERLIQUID_PRIVATE_KEY"); key != "" && conf.HyperliquidURL != "" {
		hlClient, err := clients.NewHyperliquidClient(key, conf.HyperliquidURL)
		if err != nil {
			logger.Fatal("failed to create hyperliquid client", zap.Error(err))
		}
		priceSource = pricer.NewHyperliquidPricer(hlClient.Info())
		logger.Info("using native hyperliquid price feed",
			zap.String("account", hlClient.AccountAddress()))
	}
	prices := pricer.NewMemoPricer(priceSource)

	store := balance.NewStore(256)
	notify := func(msg string) {
		logger.Warn("user notification", zap.String("message", msg))
	}
	poller := balance.NewPoller(terminal, store, notify, logger)
	poller.SetInterval(conf.PollInterval)

	aggregator := balance.NewAggregator(store)
	reconciler := quantity.NewReconciler(prices, terminal, aggregator, logger)

	orderForm := form.New(store, poller, aggregator, reconciler, prices, terminal, conf.Accounts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderForm.SetAuthenticated(ctx, true)
	orderForm.SelectPair(ctx, conf.Pair)
	if len(conf.Selected) > 0 {
		orderForm.SelectAccounts(ctx, conf.Selected)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server := web.NewServer(conf.ListenAddr, store, logger)
		logger.Info("starting balance stream server", zap.String("addr", conf.ListenAddr))
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", zap.Error(err))
	}
	poller.Stop()
}
