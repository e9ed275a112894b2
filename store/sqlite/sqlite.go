/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.BatchStore and business.AuditSink on an embedded
  SQLite file, so a single-shop ledger survives restarts without a
  database server.

INTERFACES IMPLEMENTED:
  generic.Store:      Ledger collections as JSON documents by key
  generic.BatchStore: Multi-key writes inside one SQL transaction
  business.AuditSink: Relational copy of the audit trail for queries

KEY TABLES:
  kv:         One row per ledger collection (purchases, sales, debts, ...)
  audit_logs: One row per audit entry, indexed for entity and date lookups

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writers also run inside a SQL
  transaction so a crash mid-batch leaves the previous values intact.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger, err := business.Open(ctx, store, business.Options{AuditSink: store})

MIGRATION:
  Schema is auto-migrated on New(). Both tables are created with
  IF NOT EXISTS, so opening an existing file is safe.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - store/redis/redis.go: Shared Redis implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// Store implements the key-value and audit interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ generic.BatchStore = (*Store)(nil)
	_ business.AuditSink = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Ledger collections, one JSON document per key
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		entity_name TEXT,
		user_id TEXT,
		description TEXT,
		changes_json TEXT,
		metadata_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_logs(entity_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_date
		ON audit_logs(date DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_type_action
		ON audit_logs(entity_type, action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// KEY-VALUE STORE (generic.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Get returns the JSON document stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set writes one document.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setTx(ctx, s.db, key, value)
}

func (s *Store) setTx(ctx context.Context, db execer, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetBatch writes every entry in one transaction.
func (s *Store) SetBatch(ctx context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	// Sorted so concurrent processes lock rows in the same order.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := s.setTx(ctx, sqlTx, key, entries[key]); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// =============================================================================
// AUDIT STORE (business.AuditSink interface)
// =============================================================================

// RecordAudit inserts one entry. Replaying the same entry is a no-op.
func (s *Store) RecordAudit(entry business.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode changes: %w", err)
	}
	var metadataJSON sql.NullString
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadataJSON = nullString(string(raw))
	}

	query := `
		INSERT INTO audit_logs
		(id, date, action, entity_type, entity_id, entity_name, user_id, description, changes_json, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	_, err = s.db.Exec(query,
		entry.ID,
		entry.Date.UTC().Format(time.RFC3339Nano),
		string(entry.Action),
		string(entry.EntityType),
		entry.EntityID,
		nullString(entry.EntityName),
		nullString(entry.UserID),
		nullString(entry.Description),
		string(changesJSON),
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListAudit returns matching entries, newest first.
func (s *Store) ListAudit(ctx context.Context, q business.AuditQuery) ([]business.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if q.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, q.EntityID)
	}
	if q.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, string(q.EntityType))
	}
	if q.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(q.Action))
	}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.UTC().Format(time.RFC3339Nano))
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, q.To.UTC().Format(time.RFC3339Nano))
	}

	query := `
		SELECT id, date, action, entity_type, entity_id, entity_name, user_id, description, changes_json, metadata_json
		FROM audit_logs
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []business.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanAuditEntry(rows *sql.Rows) (business.AuditEntry, error) {
	var (
		e                               business.AuditEntry
		date, action, entityType        string
		entityName, userID, description sql.NullString
		changesJSON, metadataJSON       sql.NullString
	)
	err := rows.Scan(&e.ID, &date, &action, &entityType, &e.EntityID,
		&entityName, &userID, &description, &changesJSON, &metadataJSON)
	if err != nil {
		return e, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	e.Date, _ = time.Parse(time.RFC3339Nano, date)
	e.Action = business.AuditAction(action)
	e.EntityType = business.EntityType(entityType)
	e.EntityName = entityName.String
	e.UserID = userID.String
	e.Description = description.String
	if changesJSON.Valid {
		if err := json.Unmarshal([]byte(changesJSON.String), &e.Changes); err != nil {
			return e, fmt.Errorf("failed to decode changes: %w", err)
		}
	}
	if metadataJSON.Valid {
		e.Metadata = &business.AuditMetadata{}
		if err := json.Unmarshal([]byte(metadataJSON.String), e.Metadata); err != nil {
			return e, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return e, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"kv", "audit_logs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
