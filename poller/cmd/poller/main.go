package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/crownpoint-data/pos-sync/common/config"
	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/messaging"
	natsclient "github.com/crownpoint-data/pos-sync/common/messaging/nats"
	"github.com/crownpoint-data/pos-sync/poller/internal/handlers"
	"github.com/crownpoint-data/pos-sync/poller/internal/odata"
	"github.com/crownpoint-data/pos-sync/poller/internal/secrets"
	"github.com/crownpoint-data/pos-sync/poller/internal/server"
	possync "github.com/crownpoint-data/pos-sync/poller/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidatePoller(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With("service", "pos-poller")
	logging.SetDefault(logger)

	logger.Info("Starting poller service",
		"port", cfg.Poller.Server.Port,
		"api_base_url", cfg.Poller.API.BaseURL,
		"page_size", cfg.Poller.API.PageSize,
		"business_timezone", cfg.Poller.BusinessTimezone,
		"default_days_back", cfg.Poller.DefaultDaysBack,
	)

	zone, err := time.LoadLocation(cfg.Poller.BusinessTimezone)
	if err != nil {
		log.Fatalf("Invalid business timezone %q: %v", cfg.Poller.BusinessTimezone, err)
	}

	endpoints := odata.DefaultEndpoints()
	if cfg.Poller.EndpointsFile != "" {
		endpoints, err = odata.LoadEndpoints(cfg.Poller.EndpointsFile)
		if err != nil {
			log.Fatalf("Failed to load endpoints file: %v", err)
		}
		logger.Info("Loaded endpoint descriptors", "path", cfg.Poller.EndpointsFile, "count", len(endpoints))
	}

	creds, err := buildSecretsProvider(cfg.Poller.Secrets)
	if err != nil {
		log.Fatalf("Failed to configure credentials: %v", err)
	}

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name
	if cfg.NATS.AckTimeout > 0 {
		natsCfg.AckTimeout = cfg.NATS.AckTimeout
	}
	broker, err := natsclient.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := broker.EnsureStream(ctx, messaging.StreamPosSync, []string{messaging.SubjectSyncRecords}); err != nil {
		cancel()
		log.Fatalf("Failed to ensure stream: %v", err)
	}
	cancel()

	client := odata.NewClient(odata.ClientConfig{
		BaseURL:    cfg.Poller.API.BaseURL,
		Timeout:    cfg.Poller.API.Timeout,
		MaxRetries: cfg.Poller.API.MaxRetries,
		RetryWait:  cfg.Poller.API.RetryWait,
		PageSize:   cfg.Poller.API.PageSize,
	}, creds, logger)

	publisher := possync.NewPublisher(broker, odata.NewTransformer(logger), messaging.SubjectSyncRecords, logger)
	syncer := possync.NewSyncer(endpoints, client, publisher, zone, logger)

	handler := handlers.NewSyncHandler(syncer, cfg.Poller.DefaultDaysBack, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         cfg.Poller.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Poller.Server.ReadTimeout,
		WriteTimeout: cfg.Poller.Server.WriteTimeout,
		IdleTimeout:  cfg.Poller.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Poller service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-quit.Done()

	logger.Info("Shutting down poller service")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Poller.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Poller service stopped")
}

func buildSecretsProvider(cfg config.SecretsConfig) (secrets.Provider, error) {
	switch cfg.Source {
	case "", "env":
		return secrets.NewCached(secrets.EnvProvider{}), nil
	case "file":
		return secrets.NewCached(secrets.FileProvider{
			SiteIDPath:      cfg.SiteIDFile,
			AccessTokenPath: cfg.AccessTokenFile,
		}), nil
	default:
		return nil, fmt.Errorf("unknown secrets source %q (supported: env, file)", cfg.Source)
	}
}
