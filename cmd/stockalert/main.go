package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	"github.com/ariefcatur/go-grocery-orders/internal/config"
	kafkax "github.com/ariefcatur/go-grocery-orders/internal/kafka"
	"github.com/ariefcatur/go-grocery-orders/internal/logging"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	"github.com/ariefcatur/go-grocery-orders/internal/postgres"
	"github.com/ariefcatur/go-grocery-orders/internal/redisx"
	"github.com/ariefcatur/go-grocery-orders/internal/stockalert"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockalert.Service{
		Products:  &catalog.Service{Store: &catalog.Repo{DB: db}, Log: log},
		Alerts:    &redisx.LowStock{RDB: rdb},
		Dedup:     &redisx.Dedup{RDB: rdb, Service: "stockalert"},
		Threshold: cfg.LowStockThreshold,
		Log:       log,
	}
	if err := svc.Rebuild(ctx); err != nil {
		log.WithError(err).Error("initial low-stock rebuild failed")
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StockAlertGroup, orders.TopicOrderEvents, cfg.StockAlertWorkers, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"group":   cfg.StockAlertGroup,
			"topic":   orders.TopicOrderEvents,
			"workers": cfg.StockAlertWorkers,
		}).Info("stock alert consumer started")
		return cons.Start(gctx, svc.HandleOrderEvent)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("consumer stopped")
	}
	log.Info("stock alert consumer exited")
}
