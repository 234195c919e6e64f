package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/knoott/partners-api/internal/config"
	kafkax "github.com/knoott/partners-api/internal/kafka"
	"github.com/knoott/partners-api/internal/ledger"
	"github.com/knoott/partners-api/internal/logging"
	"github.com/knoott/partners-api/internal/orders"
	"github.com/knoott/partners-api/internal/postgres"
	"github.com/knoott/partners-api/internal/redisx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.LogLevel).Named("ledger")
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalw("db connect", "error", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &ledger.Service{
		Repo:   &ledger.Repo{DB: db},
		Dedup:  &redisx.Dedup{RDB: rdb, Service: cfg.ServiceName + "-ledger"},
		Logger: log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.LedgerGroup, orders.TopicOrderTransitioned, cfg.LedgerWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Infow("ledger consumer started", "group", cfg.LedgerGroup, "topic", orders.TopicOrderTransitioned, "workers", cfg.LedgerWorkers)
		if err := cons.Start(ctx, svc.HandleOrderTransitioned); err != nil {
			log.Errorw("consumer exit", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done
}
