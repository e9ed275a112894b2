/*
store.go - Persistence gateway for ledger state

PURPOSE:
  Defines the interface between the ledger and whatever holds its state.
  The ledger treats persistence as an opaque key-value store: each logical
  collection (purchases, sales, debts, ...) is one JSON document under one
  key. Different implementations can use memory, SQLite, or Redis.

KEY INTERFACES:
  Store:      Get / Set / Delete of raw JSON values by key
  BatchStore: Atomic multi-key write (import, multi-collection mutations)

ATOMIC BATCHES:
  SetBatch() ensures all-or-nothing semantics. A sale touches sales,
  products, clients and debts; either every key is written or none is.
  Stores that cannot batch fall back to sequential Set calls through
  SetAll, which stops at the first failure.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: Embedded SQLite file
  - store/redis/redis.go: Redis, optionally shared between processes

EXAMPLE:
  var sales []business.Sale
  found, err := generic.Load(ctx, store, "sales", &sales)
  ...
  err = generic.Save(ctx, store, "sales", sales)

SEE ALSO:
  - business/ledger.go: The only writer
*/
package generic

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// STORE - Key-value persistence
// =============================================================================

// Store persists JSON documents by key.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// BatchStore writes several keys atomically.
type BatchStore interface {
	Store

	// SetBatch writes every entry or none.
	SetBatch(ctx context.Context, entries map[string][]byte) error
}

// =============================================================================
// JSON HELPERS
// =============================================================================

// Load decodes the JSON value under key into dst. When the key is absent dst
// is left untouched, so callers pre-fill it with the default.
func Load(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save encodes value as JSON under key.
func Save(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// SetAll writes entries atomically when s is a BatchStore, sequentially
// otherwise.
func SetAll(ctx context.Context, s Store, entries map[string][]byte) error {
	if bs, ok := s.(BatchStore); ok {
		return bs.SetBatch(ctx, entries)
	}
	for key, value := range entries {
		if err := s.Set(ctx, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
