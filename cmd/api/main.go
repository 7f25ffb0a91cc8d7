package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/auth"
	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	"github.com/ariefcatur/go-grocery-orders/internal/config"
	"github.com/ariefcatur/go-grocery-orders/internal/customers"
	"github.com/ariefcatur/go-grocery-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-grocery-orders/internal/kafka"
	"github.com/ariefcatur/go-grocery-orders/internal/logging"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	"github.com/ariefcatur/go-grocery-orders/internal/postgres"
	"github.com/ariefcatur/go-grocery-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	var (
		prod        *kafkax.Producer
		orderEvents orders.EventPublisher
		stockEvents catalog.StockEvents
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, log)
		prod.Start()
		pub := &orders.KafkaPublisher{Sink: prod, Producer: cfg.ServiceName}
		orderEvents, stockEvents = pub, pub
	} else {
		log.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	custSvc := &customers.Service{Store: &customers.Repo{DB: db}, Log: log}
	created, err := custSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.WithError(err).Fatal("ensure admin")
	}
	if created {
		log.WithField("username", cfg.AdminUsername).Info("admin account created")
	}

	api := &httpx.API{
		Auth: &auth.Service{
			Accounts: custSvc,
			Tokens:   &auth.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL},
			Revoked:  &redisx.Denylist{RDB: rdb},
			Log:      log,
		},
		Customers: custSvc,
		Catalog:   &catalog.Service{Store: &catalog.Repo{DB: db}, Events: stockEvents, Log: log},
		Orders: &orders.Service{
			Store:      &orders.Repo{DB: db},
			Events:     orderEvents,
			Log:        log,
			RecentDays: cfg.RecentOrderDays,
		},
		Idempotency:       &redisx.Idempotency{RDB: rdb},
		Alerts:            &redisx.LowStock{RDB: rdb},
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               log,
	}
	router := httpx.NewRouter(log)
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
	}
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	log.WithFields(logrus.Fields{"service": cfg.ServiceName}).Info("bye")
}
