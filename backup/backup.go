/*
Package backup stores ledger export documents in object storage.

PURPOSE:
  The shop owner's only recovery path is an export file. This package
  writes those files somewhere safer than the device: a directory (a
  mounted share, a synced folder) or an S3-compatible bucket.

KEY LAYOUT:
  backups/ledger-20250301T090000Z.json

  Keys sort lexically in time order, so Latest is the last key listed.

USAGE:
  st, _ := backup.NewFileStorage("/var/backups/shop")
  key, err := backup.Backup(ctx, ledger, st)
  ...
  err = backup.Restore(ctx, ledger, st, key)

SEE ALSO:
  - business/archive.go: Document format
  - cmd/ledgerctl: backup and restore commands
*/
package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
)

// Prefix is the key prefix all backups are written under.
const Prefix = "backups/"

const keyLayout = "20060102T150405Z"

// ErrNoBackups is returned by Latest when nothing has been backed up.
var ErrNoBackups = errors.New("no backups found")

// ObjectStorage is a flat key to bytes store.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns keys starting with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Exporter produces the document to back up. *business.Ledger satisfies it.
type Exporter interface {
	Export() business.Document
}

// Importer accepts a restored document. *business.Ledger satisfies it.
type Importer interface {
	Import(ctx context.Context, data []byte) error
}

// Key returns the object key for a backup taken at t.
func Key(t time.Time) string {
	return Prefix + "ledger-" + t.UTC().Format(keyLayout) + ".json"
}

// Backup exports src and writes it under Key(exportDate).
func Backup(ctx context.Context, src Exporter, st ObjectStorage) (string, error) {
	doc := src.Export()
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	key := Key(doc.ExportDate)
	if err := st.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("write backup %s: %w", key, err)
	}
	return key, nil
}

// Restore reads key and imports it into dst. The document is validated
// before dst changes.
func Restore(ctx context.Context, dst Importer, st ObjectStorage, key string) error {
	data, err := st.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", key, err)
	}
	return dst.Import(ctx, data)
}

// List returns backup keys, oldest first.
func List(ctx context.Context, st ObjectStorage) ([]string, error) {
	keys, err := st.List(ctx, Prefix)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Latest returns the newest backup key.
func Latest(ctx context.Context, st ObjectStorage) (string, error) {
	keys, err := List(ctx, st)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", ErrNoBackups
	}
	return keys[len(keys)-1], nil
}

// Prune deletes all but the newest keep backups. Storage that cannot delete
// is left as is.
func Prune(ctx context.Context, st ObjectStorage, keep int) ([]string, error) {
	d, ok := st.(interface {
		Delete(ctx context.Context, key string) error
	})
	if !ok || keep < 0 {
		return nil, nil
	}
	keys, err := List(ctx, st)
	if err != nil {
		return nil, err
	}
	if len(keys) <= keep {
		return nil, nil
	}
	stale := keys[:len(keys)-keep]
	for _, k := range stale {
		if err := d.Delete(ctx, k); err != nil {
			return nil, fmt.Errorf("delete backup %s: %w", k, err)
		}
	}
	return stale, nil
}

func notFound(key string) error {
	return &generic.NotFoundError{Kind: "backup", ID: key}
}
