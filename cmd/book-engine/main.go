package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tickerforge/book-engine/internal/app/engine"
	"github.com/tickerforge/book-engine/internal/usecase/book"
	fillpublisher "github.com/tickerforge/book-engine/internal/usecase/fill-publisher"
	orderreader "github.com/tickerforge/book-engine/internal/usecase/order-reader"
	"github.com/tickerforge/book-engine/internal/usecase/snapshot"
	"github.com/tickerforge/book-engine/pkg/config"
	"github.com/tickerforge/book-engine/pkg/logger"
	"github.com/tickerforge/book-engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	log, err = logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.LogLevel)))
	if err != nil {
		panic(err)
	}
}

func main() {
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	b := book.New(cfg.Symbol)
	oReader := orderreader.NewReader(cfg.OrderReader, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Symbol, log)
	fillPublisher := fillpublisher.NewPublisher(cfg.FillPublisher, log)

	eng := engine.NewEngine(
		b,
		oReader,
		snapshotStore,
		fillPublisher,
		log,
		cfg,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- eng.Start(ctx)
	}()

	log.Info("Book engine started", logger.Field{
		Key:   "symbol",
		Value: cfg.Symbol,
	})

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", logger.Field{
			Key:   "signal",
			Value: sig.String(),
		})
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err, logger.Field{
				Key:   "action",
				Value: "run_engine",
			})
		}
	}

	cancel()
	eng.Stop()

	if err := fillPublisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_fill_publisher",
		})
	}

	if err := rclient.Disconnect(context.Background()); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Book engine shutdown complete")
}
