// Package config loads the ledger's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bizmob/ledger/business"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Ledger    LedgerConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
	Backup    BackupConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ReadTimeout    int
	WriteTimeout   int
}

type LogConfig struct {
	Level string
}

// StoreConfig selects where ledger state lives.
type StoreConfig struct {
	Driver        string // memory, sqlite, redis
	SQLitePath    string
	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LedgerConfig holds the business rules that are left to the operator.
type LedgerConfig struct {
	OverpaymentPolicy string
	ClientDebtSource  string
	OverdueDays       int
	FollowUpDays      int
	DueSoonDays       int
}

// SchedulerConfig holds the notification sweep and backup schedules.
// An empty BackupCron disables scheduled backups.
type SchedulerConfig struct {
	NotifyCron string
	BackupCron string
	Timezone   string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// BackupConfig selects the backup target.
type BackupConfig struct {
	Driver      string // file, s3
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	Keep        int // backups kept by prune, 0 keeps all
}

// Load reads environment variables (optionally from the provided file) and
// materializes a validated Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from
		// the environment directly.
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("STORE_DRIVER")),
			SQLitePath:    v.GetString("SQLITE_PATH"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			RedisPrefix:   v.GetString("REDIS_KEY_PREFIX"),
		},
		Ledger: LedgerConfig{
			OverpaymentPolicy: strings.ToLower(v.GetString("LEDGER_OVERPAYMENT_POLICY")),
			ClientDebtSource:  strings.ToLower(v.GetString("LEDGER_CLIENT_DEBT_SOURCE")),
			OverdueDays:       v.GetInt("LEDGER_OVERDUE_DAYS"),
			FollowUpDays:      v.GetInt("LEDGER_FOLLOW_UP_DAYS"),
			DueSoonDays:       v.GetInt("LEDGER_DUE_SOON_DAYS"),
		},
		Scheduler: SchedulerConfig{
			NotifyCron: v.GetString("NOTIFY_CRON"),
			BackupCron: v.GetString("BACKUP_CRON"),
			Timezone:   v.GetString("TIMEZONE"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Backup: BackupConfig{
			Driver:      strings.ToLower(v.GetString("BACKUP_DRIVER")),
			Dir:         v.GetString("BACKUP_DIR"),
			S3Endpoint:  v.GetString("S3_ENDPOINT"),
			S3AccessKey: v.GetString("S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("S3_SECRET_KEY"),
			S3Bucket:    v.GetString("S3_BUCKET"),
			S3UseSSL:    v.GetBool("S3_USE_SSL"),
			Keep:        v.GetInt("BACKUP_KEEP"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "./data/ledger.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "ledger:")
	v.SetDefault("LEDGER_OVERPAYMENT_POLICY", string(business.OverpaymentClamp))
	v.SetDefault("LEDGER_CLIENT_DEBT_SOURCE", string(business.DebtFromLedger))
	v.SetDefault("LEDGER_OVERDUE_DAYS", 30)
	v.SetDefault("LEDGER_FOLLOW_UP_DAYS", 14)
	v.SetDefault("LEDGER_DUE_SOON_DAYS", 3)
	v.SetDefault("NOTIFY_CRON", "0 8 * * *")
	v.SetDefault("BACKUP_CRON", "")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BACKUP_DRIVER", "file")
	v.SetDefault("BACKUP_DIR", "./data")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("BACKUP_KEEP", 14)
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT must be provided")
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided when STORE_DRIVER=sqlite")
		}
	case "redis":
		if c.Store.RedisURL == "" && c.Store.RedisAddr == "" {
			return errors.New("REDIS_URL or REDIS_ADDR must be provided when STORE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be memory, sqlite or redis, got %q", c.Store.Driver)
	}

	if !business.OverpaymentPolicy(c.Ledger.OverpaymentPolicy).Valid() {
		return fmt.Errorf("LEDGER_OVERPAYMENT_POLICY must be clamp, reject or credit, got %q", c.Ledger.OverpaymentPolicy)
	}
	if !business.DebtSource(c.Ledger.ClientDebtSource).Valid() {
		return fmt.Errorf("LEDGER_CLIENT_DEBT_SOURCE must be ledger or sales, got %q", c.Ledger.ClientDebtSource)
	}
	if c.Ledger.OverdueDays <= 0 || c.Ledger.FollowUpDays <= 0 || c.Ledger.DueSoonDays < 0 {
		return errors.New("LEDGER_*_DAYS thresholds must be positive")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is not a known time zone: %w", err)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}

	switch c.Backup.Driver {
	case "file":
		if c.Backup.Dir == "" {
			return errors.New("BACKUP_DIR must be provided when BACKUP_DRIVER=file")
		}
	case "s3":
		if c.Backup.S3Endpoint == "" || c.Backup.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET must be provided when BACKUP_DRIVER=s3")
		}
	default:
		return fmt.Errorf("BACKUP_DRIVER must be file or s3, got %q", c.Backup.Driver)
	}
	if c.Backup.Keep < 0 {
		return errors.New("BACKUP_KEEP must not be negative")
	}
	return nil
}

// Location returns the scheduler time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LedgerOptions converts the ledger section into business configuration.
func (c *Config) LedgerOptions() business.Config {
	cfg := business.DefaultConfig()
	cfg.Overpayment = business.OverpaymentPolicy(c.Ledger.OverpaymentPolicy)
	cfg.ClientDebt = business.DebtSource(c.Ledger.ClientDebtSource)
	cfg.Thresholds.OverdueDays = c.Ledger.OverdueDays
	cfg.Thresholds.FollowUpDays = c.Ledger.FollowUpDays
	cfg.Thresholds.DueSoonDays = c.Ledger.DueSoonDays
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
