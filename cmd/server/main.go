package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goldtrader/internal/broadcast"
	"goldtrader/internal/config"
	"goldtrader/internal/db"
	"goldtrader/internal/handlers"
	"goldtrader/internal/logger"
	"goldtrader/internal/metrics"
	"goldtrader/internal/pubsub"
	"goldtrader/internal/services"
	"goldtrader/internal/store"
	"goldtrader/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub := websocket.NewHub()

	// Without Redis the hub is the publisher. With Redis every event goes
	// through the channel layer and comes back to this hub via the relay.
	var target broadcast.Publisher = hub
	if cfg.RedisURL != "" {
		client, err := pubsub.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		target = pubsub.NewPublisher(client)
		relay := pubsub.NewRelay(hub, log.Named("relay"))
		go func() {
			if err := relay.Run(ctx, client); err != nil {
				log.Error("redis relay stopped", zap.Error(err))
			}
		}()
	}
	dispatcher := broadcast.NewDispatcher(target, cfg.BroadcastBuffer, cfg.BroadcastTimeout, log.Named("broadcast"), m)
	go dispatcher.Run(ctx)
	defer dispatcher.Close()

	users := store.NewUserStore(database)
	holdings := store.NewHoldingStore(database)
	transactions := store.NewTransactionStore(database)
	prices := store.NewPriceStore(database)
	deposits := store.NewDepositStore(database)
	alerts := store.NewAlertStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database, cfg.TxTimeout)

	alertService := services.NewAlertService(txRunner, alerts, audit, dispatcher, log.Named("alerts"), m)
	handler := handlers.New(handlers.Deps{
		TxRunner:     txRunner,
		Config:       cfg,
		Logger:       log.Named("http"),
		Users:        users,
		Holdings:     holdings,
		Transactions: transactions,
		Prices:       prices,
		Deposits:     deposits,
		Alerts:       alerts,
		Audit:        audit,
		Trades:       services.NewTradeService(txRunner, users, holdings, transactions, prices, audit, log.Named("trade"), m),
		DepositFlow:  services.NewDepositService(txRunner, users, deposits, audit, cfg.MockDepositLimit, log.Named("deposits"), m),
		AlertFlow:    alertService,
		PriceFeed:    services.NewPriceService(txRunner, prices, alertService, dispatcher, log.Named("prices"), m),
		Hub:          hub,
		Metrics:      m,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("goldtrader API listening", zap.String("addr", server.Addr), zap.Bool("redis", cfg.RedisURL != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		os.Exit(1)
	}
}
