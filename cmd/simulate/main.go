package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"goldtrader/internal/broadcast"
	"goldtrader/internal/config"
	"goldtrader/internal/db"
	"goldtrader/internal/logger"
	"goldtrader/internal/money"
	"goldtrader/internal/pubsub"
	"goldtrader/internal/services"
	"goldtrader/internal/simulator"
	"goldtrader/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const source = "SIMULATOR"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	interval := flag.Duration("interval", cfg.Simulator.Interval, "time between ticks")
	count := flag.Int64("count", 0, "number of ticks to produce, 0 runs until interrupted")
	minPrice := flag.String("min", cfg.Simulator.Min.String(), "lowest price per gram")
	maxPrice := flag.String("max", cfg.Simulator.Max.String(), "highest price per gram")
	persist := flag.Bool("persist", false, "store ticks in price_history")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	log, err := logger.New(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	lo, err := decimal.NewFromString(*minPrice)
	if err != nil {
		log.Fatal("invalid --min", zap.Error(err))
	}
	hi, err := decimal.NewFromString(*maxPrice)
	if err != nil {
		log.Fatal("invalid --max", zap.Error(err))
	}
	walker, err := simulator.NewWalker(lo, hi, *seed)
	if err != nil {
		log.Fatal("invalid price range", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	var target broadcast.Publisher = discardPublisher{log: log}
	if cfg.RedisURL != "" {
		client, err := pubsub.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		target = pubsub.NewPublisher(client)
	} else {
		log.Warn("REDIS_URL is empty, ticks will not reach websocket clients")
	}
	dispatcher := broadcast.NewDispatcher(target, cfg.BroadcastBuffer, cfg.BroadcastTimeout, log.Named("broadcast"), nil)
	go dispatcher.Run(context.Background())
	defer dispatcher.Close()

	txRunner := db.NewTxRunner(database, cfg.TxTimeout)
	alerts := services.NewAlertService(txRunner, store.NewAlertStore(database), store.NewAuditStore(database), dispatcher, log.Named("alerts"), nil)
	prices := services.NewPriceService(txRunner, store.NewPriceStore(database), alerts, dispatcher, log.Named("prices"), nil)

	log.Info("gold price simulator started",
		zap.Duration("interval", *interval),
		zap.Int64("count", *count),
		zap.String("min", money.FormatMoney(lo)),
		zap.String("max", money.FormatMoney(hi)),
		zap.Bool("persist", *persist),
	)

	var produced atomic.Int64
	finished := make(chan struct{})
	var finishOnce sync.Once
	tick := func() {
		n := produced.Add(1)
		if *count > 0 && n > *count {
			return
		}
		step := walker.Next()
		src := source
		tickRow, err := prices.RecordPrice(ctx, services.RecordPriceInput{
			PricePerGram: step.Price,
			Source:       &src,
			Persist:      *persist,
		})
		if err != nil {
			log.Error("failed to record tick", zap.Int64("tick", n), zap.Error(err))
		} else {
			log.Info("tick",
				zap.Int64("tick", n),
				zap.String("price_per_gram", money.FormatMoney(tickRow.PricePerGram)),
				zap.String("price_per_baht", money.FormatMoney(tickRow.PricePerBaht)),
				zap.String("change_percent", step.Change.Mul(decimal.NewFromInt(100)).StringFixed(2)),
			)
		}
		if *count > 0 && n == *count {
			finishOnce.Do(func() { close(finished) })
		}
	}

	cronLog := cronLogger{log: log.Named("cron").Sugar()}
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := scheduler.AddFunc("@every "+interval.String(), tick); err != nil {
		log.Fatal("invalid interval", zap.Error(err))
	}
	tick()
	scheduler.Start()

	select {
	case <-ctx.Done():
		log.Info("simulation stopped by signal", zap.Int64("ticks", produced.Load()))
	case <-finished:
		log.Info("simulation completed", zap.Int64("ticks", *count))
	}
	<-scheduler.Stop().Done()
}
