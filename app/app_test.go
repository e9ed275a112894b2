package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/app"
	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/config"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	return cfg
}

func TestOpen_Memory(t *testing.T) {
	cfg := testConfig(t, map[string]string{"STORE_DRIVER": "memory"})

	ledger, b, err := app.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Audit)
	assert.Empty(t, ledger.Purchases())
}

func TestOpen_SQLitePersistsAndAudits(t *testing.T) {
	// GIVEN: A sqlite-backed ledger
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	cfg := testConfig(t, map[string]string{"STORE_DRIVER": "sqlite", "SQLITE_PATH": dbPath})
	ctx := context.Background()

	ledger, b, err := app.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, b.Audit)

	// WHEN: A purchase is recorded and the process restarts
	_, err = ledger.AddPurchase(ctx, business.PurchaseDraft{
		ProductName: "Rice", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	reopened, b2, err := app.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer b2.Close()

	// THEN: The purchase and its audit row survive
	assert.Len(t, reopened.Purchases(), 1)
	entries, err := b2.Audit.ListAudit(ctx, business.AuditQuery{EntityType: business.EntityPurchase})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenBackup_File(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, map[string]string{"BACKUP_DRIVER": "file", "BACKUP_DIR": dir})

	st, err := app.OpenBackup(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	keys, err := backup.List(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
