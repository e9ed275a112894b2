package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/config"
)

// noEnvFile points Load at a file that does not exist so a developer's
// .env cannot leak into the test.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "clamp", cfg.Ledger.OverpaymentPolicy)
	assert.Equal(t, 30, cfg.Ledger.OverdueDays)
	assert.Equal(t, "0 8 * * *", cfg.Scheduler.NotifyCron)
	assert.Empty(t, cfg.Scheduler.BackupCron)
	assert.Equal(t, 14, cfg.Backup.Keep)
	assert.Equal(t, "UTC", cfg.Location().String())

	opts := cfg.LedgerOptions()
	assert.Equal(t, business.OverpaymentClamp, opts.Overpayment)
	assert.Equal(t, business.DebtFromLedger, opts.ClientDebt)
	assert.Equal(t, 14, opts.Thresholds.FollowUpDays)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("LEDGER_OVERPAYMENT_POLICY", "reject")
	t.Setenv("LEDGER_CLIENT_DEBT_SOURCE", "sales")
	t.Setenv("LEDGER_DUE_SOON_DAYS", "5")

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "redis", cfg.Store.Driver)
	opts := cfg.LedgerOptions()
	assert.Equal(t, business.OverpaymentReject, opts.Overpayment)
	assert.Equal(t, business.DebtFromSales, opts.ClientDebt)
	assert.Equal(t, 5, opts.Thresholds.DueSoonDays)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_OVERDUE_DAYS=45\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEDGER_OVERDUE_DAYS") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Ledger.OverdueDays)
}

func TestValidate(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store":       {"STORE_DRIVER": "postgres"},
		"unknown policy":      {"LEDGER_OVERPAYMENT_POLICY": "refund"},
		"unknown debt source": {"LEDGER_CLIENT_DEBT_SOURCE": "guess"},
		"zero overdue":        {"LEDGER_OVERDUE_DAYS": "0"},
		"s3 without bucket":   {"BACKUP_DRIVER": "s3", "S3_ENDPOINT": "minio:9000"},
		"unknown timezone":    {"TIMEZONE": "Mars/Olympus"},
		"negative keep":       {"BACKUP_KEEP": "-1"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}

	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())
}
