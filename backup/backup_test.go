package backup_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
)

func openLedger(t *testing.T, clock generic.Clock) *business.Ledger {
	t.Helper()
	l, err := business.Open(context.Background(), store.NewMemory(), business.Options{Clock: clock})
	require.NoError(t, err)
	return l
}

func TestKey(t *testing.T) {
	at := time.Date(2025, time.March, 1, 9, 30, 5, 0, time.FixedZone("WAT", 3600))
	assert.Equal(t, "backups/ledger-20250301T083005Z.json", backup.Key(at))
}

func TestBackupRestore_FileStorage(t *testing.T) {
	ctx := context.Background()
	clock := generic.NewFixedClock(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC))
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	// GIVEN: a ledger with stock
	src := openLedger(t, clock)
	_, err = src.AddPurchase(ctx, business.PurchaseDraft{ProductName: "Rice", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)})
	require.NoError(t, err)

	// WHEN: two backups are taken a day apart
	first, err := backup.Backup(ctx, src, st)
	require.NoError(t, err)
	clock.Advance(generic.Day)
	_, err = src.AddPurchase(ctx, business.PurchaseDraft{ProductName: "Oil", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)
	second, err := backup.Backup(ctx, src, st)
	require.NoError(t, err)

	// THEN: Latest is the second one
	latest, err := backup.Latest(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	keys, err := backup.List(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, keys)

	// AND: restoring the first into a fresh ledger yields one product
	dst := openLedger(t, clock)
	require.NoError(t, backup.Restore(ctx, dst, st, first))
	require.Len(t, dst.Products(), 1)
	assert.Equal(t, "Rice", dst.Products()[0].Name)
}

func TestLatest_Empty(t *testing.T) {
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = backup.Latest(context.Background(), st)
	assert.ErrorIs(t, err, backup.ErrNoBackups)
}

func TestRestore_MissingKey(t *testing.T) {
	ctx := context.Background()
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	err = backup.Restore(ctx, openLedger(t, nil), st, "backups/ledger-nope.json")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRestore_InvalidDocumentLeavesLedger(t *testing.T) {
	ctx := context.Background()
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, "backups/ledger-bad.json", []byte(`{"purchases":[]}`)))

	l := openLedger(t, nil)
	_, err = l.AddPurchase(ctx, business.PurchaseDraft{ProductName: "Rice", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)})
	require.NoError(t, err)

	err = backup.Restore(ctx, l, st, "backups/ledger-bad.json")
	assert.ErrorIs(t, err, generic.ErrInvalidImport)
	assert.Len(t, l.Purchases(), 1)
}

func TestFileStorage_RejectsEscapingKeys(t *testing.T) {
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, st.Put(context.Background(), "../outside.json", []byte("{}")))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, st.Put(ctx, backup.Key(base.AddDate(0, 0, i)), []byte("{}")))
	}

	removed, err := backup.Prune(ctx, st, 2)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	keys, err := backup.List(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{backup.Key(base.AddDate(0, 0, 2)), backup.Key(base.AddDate(0, 0, 3))}, keys)
}
