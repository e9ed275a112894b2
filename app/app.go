/*
Package app wires configuration into running components.

PURPOSE:
  Both binaries (the HTTP server and ledgerctl) open the same store,
  ledger and backup target from the same configuration. The choices live
  here so the two cannot drift.

STORE DRIVERS:
  memory  Nothing persisted; for demos and tests
  sqlite  Key-value table plus a queryable audit_logs table
  redis   Shared state for several processes

BACKUP DRIVERS:
  file    Directory on local disk
  s3      Any S3-compatible bucket through minio-go

SEE ALSO:
  - config/config.go: Environment variables
  - cmd/server/main.go, cmd/ledgerctl/main.go: Callers
*/
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bizmob/ledger/api"
	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/config"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
	"github.com/bizmob/ledger/store/redis"
	"github.com/bizmob/ledger/store/sqlite"
)

// Backend is an opened store with its optional audit side.
type Backend struct {
	Store generic.Store
	// Sink and Audit are set only by drivers that keep a relational
	// copy of the audit trail.
	Sink  business.AuditSink
	Audit api.AuditQuerier

	close func() error
}

// Close releases the store.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the configured store driver.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn("using in-memory store; nothing will be persisted")
		return &Backend{Store: store.NewMemory()}, nil

	case "sqlite":
		st, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
		}
		log.Info("sqlite store opened", zap.String("path", cfg.Store.SQLitePath))
		return &Backend{Store: st, Sink: st, Audit: st, close: st.Close}, nil

	case "redis":
		st, err := redis.New(ctx, redis.Config{
			URL:      cfg.Store.RedisURL,
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
			Prefix:   cfg.Store.RedisPrefix,
		}, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: st, close: st.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// OpenLedger loads the ledger from an opened backend.
func OpenLedger(ctx context.Context, cfg *config.Config, b *Backend, log *zap.Logger) (*business.Ledger, error) {
	return business.Open(ctx, b.Store, business.Options{
		Config:    cfg.LedgerOptions(),
		Logger:    log.Named("ledger"),
		AuditSink: b.Sink,
	})
}

// OpenBackup opens the configured backup target.
func OpenBackup(ctx context.Context, cfg *config.Config, log *zap.Logger) (backup.ObjectStorage, error) {
	switch cfg.Backup.Driver {
	case "file":
		return backup.NewFileStorage(cfg.Backup.Dir)
	case "s3":
		return backup.NewMinioStorage(ctx, backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			AccessKey: cfg.Backup.S3AccessKey,
			SecretKey: cfg.Backup.S3SecretKey,
			Bucket:    cfg.Backup.S3Bucket,
			UseSSL:    cfg.Backup.S3UseSSL,
		}, log)
	}
	return nil, errors.New("unknown backup driver " + cfg.Backup.Driver)
}

// Open opens the backend and the ledger on it. The backend is closed if
// the ledger cannot be loaded.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*business.Ledger, *Backend, error) {
	b, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := OpenLedger(ctx, cfg, b, log)
	if err != nil {
		b.Close()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	return ledger, b, nil
}
