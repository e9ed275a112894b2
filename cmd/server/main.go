/*
main.go - Application entry point

PURPOSE:
  Starts the shop ledger HTTP server with the notification scheduler.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Build the zap logger
  3. Open the store and load the ledger
  4. Open the backup target (only when BACKUP_CRON is set)
  5. Start the scheduler
  6. Configure the router and serve

COMMAND-LINE FLAGS:
  -env     Path to a .env file (default: .env, missing is fine)
  -dev     Console logging instead of JSON

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for a running job
  4. Close the store
  5. Exit

EXAMPLES:
  # SQLite file (default)
  SQLITE_PATH=./data/shop.db ./server

  # Throwaway in-memory ledger for a demo
  STORE_DRIVER=memory ./server -dev

  # Nightly backups to MinIO
  BACKUP_DRIVER=s3 S3_ENDPOINT=minio:9000 S3_BUCKET=ledger BACKUP_CRON="0 2 * * *" ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - app/app.go: Store and backup selection
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bizmob/ledger/api"
	"github.com/bizmob/ledger/app"
	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/config"
	"github.com/bizmob/ledger/logger"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	dev := flag.Bool("dev", false, "console logging")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	var log *zap.Logger
	if *dev {
		log = logger.Must(logger.NewDevelopment(cfg.Log.Level))
	} else {
		log = logger.Must(logger.New(cfg.Log.Level))
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, backend, err := app.Open(ctx, cfg, log.Named("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("failed to close store", zap.Error(err))
		}
	}()

	// Scheduled backups are optional; the backup target is only opened
	// when a schedule asks for it.
	var backups backup.ObjectStorage
	if cfg.Scheduler.BackupCron != "" {
		backups, err = app.OpenBackup(ctx, cfg, log.Named("backup"))
		if err != nil {
			return err
		}
	}

	sched, err := api.NewScheduler(ledger, api.LogNotifier{Log: log.Named("alerts")}, api.SchedulerConfig{
		NotifyCron: cfg.Scheduler.NotifyCron,
		BackupCron: cfg.Scheduler.BackupCron,
		Backup:     backups,
		Keep:       cfg.Backup.Keep,
		Location:   cfg.Location(),
	}, log.Named("scheduler"))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(ledger, log.Named("handlers"))
	handler.Audit = backend.Audit

	rl := api.DefaultRateLimiterConfig()
	rl.RequestsPerSecond = cfg.RateLimit.RPS
	rl.BurstSize = cfg.RateLimit.Burst

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      rl,
		Logger:         log.Named("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
