package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/crownpoint-data/pos-sync/common/config"
	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/messaging"
	natsclient "github.com/crownpoint-data/pos-sync/common/messaging/nats"
	"github.com/crownpoint-data/pos-sync/processor/internal/dedup"
	"github.com/crownpoint-data/pos-sync/processor/internal/dlq"
	"github.com/crownpoint-data/pos-sync/processor/internal/handlers"
	"github.com/crownpoint-data/pos-sync/processor/internal/normalize"
	"github.com/crownpoint-data/pos-sync/processor/internal/schema"
	"github.com/crownpoint-data/pos-sync/processor/internal/server"
	"github.com/crownpoint-data/pos-sync/processor/internal/service"
	"github.com/crownpoint-data/pos-sync/processor/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply warehouse migrations on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateProcessor(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With("service", "pos-processor")
	logging.SetDefault(logger)

	logger.Info("Starting processor service",
		"port", cfg.Processor.Server.Port,
		"dlq_enabled", cfg.Processor.DLQ.Enabled,
		"dedup_enabled", cfg.Processor.Dedup.Enabled,
	)

	registry, err := schema.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to compile schemas: %v", err)
	}
	logger.Info("Schema registry initialized", "event_types", len(registry.EventTypes()))

	if !*skipMigrate {
		if err := warehouse.Migrate(cfg.Warehouse.DatabaseURL, cfg.Warehouse.MigrationsPath); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Warehouse migrations applied", "path", cfg.Warehouse.MigrationsPath)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sink, err := warehouse.NewPostgres(startupCtx, cfg.Warehouse.DatabaseURL, logger)
	if err != nil {
		cancel()
		log.Fatalf("Failed to connect to warehouse: %v", err)
	}
	defer sink.Close()

	var filter dedup.Filter = dedup.Noop{}
	if cfg.Processor.Dedup.Enabled && cfg.Redis.Addr != "" {
		redisFilter, err := dedup.NewRedis(startupCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Processor.Dedup.TTL)
		if err != nil {
			logger.Warn("Failed to connect to redis, continuing without dedup", "error", err)
		} else {
			filter = redisFilter
			logger.Info("Dedup filter enabled", "ttl", cfg.Processor.Dedup.TTL)
		}
	}
	defer filter.Close()
	cancel()

	var deadLetter dlq.Writer = dlq.Disabled{}
	var dlqStore handlers.DLQStore
	if cfg.Processor.DLQ.Enabled {
		queue, err := dlq.NewQueue(cfg.Processor.DLQ.BasePath, logger)
		if err != nil {
			log.Fatalf("Failed to initialize DLQ: %v", err)
		}
		deadLetter = queue
		dlqStore = queue
		logger.Info("Dead letter queue enabled", "path", cfg.Processor.DLQ.BasePath)
	}

	processor := service.NewProcessor(registry, normalize.NewNormalizer(logger), sink, filter, deadLetter, logger)

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name
	broker, err := natsclient.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer broker.Close()

	// Either service may start first; both declare the stream.
	streamCtx, cancelStream := context.WithTimeout(context.Background(), 10*time.Second)
	err = broker.EnsureStream(streamCtx, messaging.StreamPosSync, []string{messaging.SubjectSyncRecords})
	cancelStream()
	if err != nil {
		log.Fatalf("Failed to ensure stream: %v", err)
	}

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	defer stopConsume()
	subscription, err := broker.Consume(consumeCtx, messaging.StreamPosSync, messaging.ConsumerProcessorWorkers,
		func(ctx context.Context, msg *messaging.Message) error {
			return processor.HandleMessage(ctx, msg.Data)
		})
	if err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	defer subscription.Unsubscribe()
	logger.Info("Consuming sync messages",
		"stream", messaging.StreamPosSync, "consumer", messaging.ConsumerProcessorWorkers)

	handler := handlers.NewPushHandler(processor, dlqStore, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         cfg.Processor.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Processor.Server.ReadTimeout,
		WriteTimeout: cfg.Processor.Server.WriteTimeout,
		IdleTimeout:  cfg.Processor.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Processor service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-quit.Done()

	logger.Info("Shutting down processor service")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Processor.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Processor service stopped")
}
