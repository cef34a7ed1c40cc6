package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"valhalla/api/httpserver"
	"valhalla/config"
	"valhalla/domain/orderbook"
	"valhalla/infra/kafka"
	"valhalla/infra/logging"
	"valhalla/infra/sequence"
	entrywal "valhalla/infra/wal/entry"
	exitwal "valhalla/infra/wal/exit"
	"valhalla/jobs/broadcaster"
	"valhalla/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:         cfg.Engine.WALDir,
		SegmentSize: cfg.Engine.WALSegmentSize,
	})
	if err != nil {
		logger.Fatal("entry wal init failed", zap.Error(err))
	}
	defer func() { _ = entryWAL.Close() }()

	// ---------------- Domain + replay ----------------

	book := orderbook.NewBook()
	walSeq := sequence.New(0)

	if err := service.ReplayFromWAL(cfg.Engine.WALDir, book, walSeq, logger); err != nil {
		logger.Fatal("wal replay failed", zap.Error(err))
	}

	// ---------------- Trade outbox ----------------

	outbox, err := exitwal.Open(cfg.Engine.OutboxDir)
	if err != nil {
		logger.Fatal("outbox init failed", zap.Error(err))
	}
	defer func() { _ = outbox.Close() }()

	// ---------------- Service ----------------

	svc := service.New(book, entryWAL, walSeq, outbox, logger, service.Options{
		CommandBuffer: cfg.Engine.CommandBuffer,
		FeedBuffer:    cfg.Engine.FeedBuffer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.Run(ctx)

	// ---------------- Background jobs ----------------

	if cfg.Kafka.Enabled() {
		bc, err := broadcaster.New(
			outbox,
			cfg.Kafka.Brokers,
			cfg.Kafka.TradeTopic,
			cfg.Engine.BroadcastPeriod,
			logger,
		)
		if err != nil {
			logger.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer func() { _ = bc.Close() }()
		go bc.Run(ctx)

		depthProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DepthTopic)
		defer func() { _ = depthProducer.Close() }()
		svc.StartDepthPublisher(ctx, depthProducer, cfg.Engine.DepthLevels, cfg.Engine.DepthInterval)
	} else {
		logger.Info("kafka disabled, trades stay in the outbox")
	}

	// ---------------- HTTP / WebSocket ----------------

	srv := httpserver.NewServer(svc, cfg.Engine.DepthLevels, logger)
	if err := srv.Start(ctx, cfg.Server.HTTPAddr, cfg.Server.AllowedOrigins); err != nil {
		logger.Fatal("http server exited", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
