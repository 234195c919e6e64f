package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knoott/partners-api/internal/auth"
	"github.com/knoott/partners-api/internal/config"
	"github.com/knoott/partners-api/internal/httpx"
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
	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	rate, err := cfg.Commission()
	if err != nil {
		log.Fatalw("config", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalw("db connect", "error", err)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalw("db migrate", "error", err)
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pTransitioned := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderTransitioned, 1024, log)
	pTransitioned.Start(ctx)

	svc := &orders.Service{
		Store:          &orders.Repo{DB: db},
		Created:        pCreated,
		Transitioned:   pTransitioned,
		Cache:          &redisx.OrderCache{RDB: rdb},
		Logger:         log.Named("orders"),
		ServiceName:    cfg.ServiceName,
		CommissionRate: rate,
	}

	router := httpx.NewRouter(log)
	authn := httpx.Authenticate(auth.NewSigner(cfg.JWTSecret), log)
	oh := &httpx.OrdersHandler{
		Orders: svc,
		Ledger: &ledger.Repo{DB: db},
		Dedup:  &redisx.Dedup{RDB: rdb, Service: cfg.ServiceName + "-payments"},
		Logger: log,
	}
	oh.Register(router, authn, httpx.WebhookSecret(cfg.WebhookSecret))
	vh := &httpx.VariantsHandler{Logger: log}
	vh.Register(router, authn)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infow("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	// stop accepting events; late publishes from unfinished requests are dropped, not panicked on
	pCreated.Close()
	pTransitioned.Close()
	pCreated.WaitClosed()
	pTransitioned.WaitClosed()
	cancel()
}
