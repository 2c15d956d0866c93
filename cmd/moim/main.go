package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moim/internal/amqp"
	"moim/internal/attendance"
	"moim/internal/backend"
	"moim/internal/cache"
	"moim/internal/config"
	"moim/internal/directory"
	apphttp "moim/internal/http"
	"moim/internal/log"
	"moim/internal/ports"
	"moim/internal/services"
	"moim/internal/storage/memory"
)

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.Create(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldError, err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	// Change events are optional: without an AMQP URL mutations simply
	// go unannounced.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var attendees ports.AttendeeSource = memory.NewAttendanceBook()
	if cfg.AttendanceBaseURL != "" {
		attendees = attendance.NewClient(cfg.AttendanceBaseURL, nil)
		logger.Info("Using attendance service", "base_url", cfg.AttendanceBaseURL)
	}
	var members ports.MemberDirectory = memory.NewDirectory()
	if cfg.DirectoryBaseURL != "" {
		members = directory.NewClient(cfg.DirectoryBaseURL, nil)
		logger.Info("Using member directory service", "base_url", cfg.DirectoryBaseURL)
	}

	ledger := services.NewLedgerService(result.Records, publisher, logger, cfg.ReportCacheSize, cfg.ReportCacheTTL)
	dues := services.NewDuesService(result.Dues, members, publisher, logger)
	reconcile := services.NewReconcileService(result.Dues, attendees, publisher, logger)

	cacheManager := cache.NewManager()
	ledger.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(cfg.CacheSweepInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, dues, reconcile, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting moim server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
