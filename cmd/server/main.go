package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "kestrel/api/http"
	"kestrel/config"
	"kestrel/domain/book"
	"kestrel/infra/sequence"
	"kestrel/infra/tradestore"
	"kestrel/infra/wal"
	"kestrel/jobs/broadcaster"
	"kestrel/jobs/ingest"
	"kestrel/service"
	"kestrel/snapshot"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	// ---------------- Persistence ----------------

	journal, err := wal.Open(wal.Config{
		Dir:             cfg.WALDir,
		SegmentSize:     cfg.WALSegmentSize,
		SegmentDuration: cfg.WALSegmentAge,
	})
	if err != nil {
		logger.Fatal("wal open failed", zap.Error(err))
	}
	defer func() { _ = journal.Close() }()

	trades, err := tradestore.Open(cfg.TradeDBDir)
	if err != nil {
		logger.Fatal("trade store open failed", zap.Error(err))
	}
	defer func() { _ = trades.Close() }()

	// ---------------- Engine ----------------

	engine := service.NewEngine(service.Config{
		Book:        book.New(),
		Seq:         sequence.New(0),
		WAL:         journal,
		Trades:      trades,
		Logger:      logger,
		DepthLevels: cfg.DepthLevels,
	})

	snapWriter := &snapshot.Writer{Dir: cfg.SnapshotDir}
	if err := engine.Recover(snapWriter.Path(), cfg.WALDir); err != nil {
		logger.Fatal("recovery failed", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---------------- Background jobs ----------------

	go engine.StartSnapshotJob(ctx, snapWriter, cfg.SnapshotInterval)

	if len(cfg.KafkaBrokers) > 0 {
		bc, err := broadcaster.New(trades, cfg.KafkaBrokers, cfg.TradeTopic, cfg.BroadcastInterval, logger)
		if err != nil {
			logger.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer func() { _ = bc.Close() }()
		go bc.Run(ctx)

		consumer := ingest.New(cfg.KafkaBrokers, cfg.OrderTopic, engine, logger)
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("ingest consumer stopped", zap.Error(err))
			}
		}()
	}

	// ---------------- HTTP ----------------

	api := apihttp.NewServer(engine, logger, cfg.DepthLevels)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Handler(),
	}

	go func() {
		logger.Info("engine listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server exited", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
		os.Exit(1)
	}
}
