/*
scheduler.go - Scheduled notification sweep and backups

PURPOSE:
  Periodically evaluates the notification rules so overdue and due-soon
  debts are surfaced without anyone opening the dashboard, and optionally
  writes a backup document on its own schedule.

DESIGN:
  - robfig/cron runs the jobs; specs are standard 5-field cron
  - The sweep hands alerts to a Notifier (log by default)
  - The last sweep's alerts are kept for the API and for tests
  - RunNow runs the sweep synchronously

CONFIGURATION:
  - NotifyCron: sweep schedule (default "0 8 * * *", every day at 08:00)
  - BackupCron: backup schedule, empty to disable
  - Keep:       backups kept after each scheduled backup, 0 keeps all
  - Location:   time zone the specs are read in

USAGE:
  sched, err := NewScheduler(ledger, LogNotifier{Log: log}, SchedulerConfig{NotifyCron: "0 8 * * *"}, log)
  sched.Start()
  defer sched.Stop()

SEE ALSO:
  - business/notifications.go: The rules
  - backup/backup.go: Backup documents
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/business"
)

// SweepSource is what the scheduler reads. *business.Ledger satisfies it.
type SweepSource interface {
	Alerts() []business.Alert
	Export() business.Document
}

// Notifier delivers the alerts of one sweep.
type Notifier interface {
	Notify(ctx context.Context, alerts []business.Alert) error
}

// LogNotifier writes each alert as a log line.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, alerts []business.Alert) error {
	log := n.Log
	if log == nil {
		return nil
	}
	for _, a := range alerts {
		log.Info("debt alert",
			zap.String("kind", string(a.Kind)),
			zap.String("client", a.ClientName),
			zap.String("amount", a.Amount.String()),
			zap.Int("days", a.Days),
			zap.String("message", a.Message),
		)
	}
	return nil
}

// SchedulerConfig holds the job schedules.
type SchedulerConfig struct {
	NotifyCron string
	BackupCron string
	Backup     backup.ObjectStorage
	Keep       int
	Location   *time.Location
}

// Scheduler runs the notification sweep and scheduled backups.
type Scheduler struct {
	cron     *cron.Cron
	source   SweepSource
	notifier Notifier
	cfg      SchedulerConfig
	log      *zap.Logger

	mu         sync.Mutex
	lastRun    time.Time
	lastAlerts []business.Alert
	lastBackup string
}

// NewScheduler validates the specs and registers the jobs. Nothing runs
// until Start.
func NewScheduler(source SweepSource, notifier Notifier, cfg SchedulerConfig, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	if cfg.NotifyCron == "" {
		cfg.NotifyCron = "0 8 * * *"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}

	if _, err := s.cron.AddFunc(cfg.NotifyCron, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid notify schedule %q: %w", cfg.NotifyCron, err)
	}
	if cfg.BackupCron != "" {
		if cfg.Backup == nil {
			return nil, fmt.Errorf("backup schedule %q set without backup storage", cfg.BackupCron)
		}
		if _, err := s.cron.AddFunc(cfg.BackupCron, s.backup); err != nil {
			return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.BackupCron, err)
		}
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Info("starting scheduler",
		zap.String("notify", s.cfg.NotifyCron),
		zap.String("backup", s.cfg.BackupCron),
	)
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunNow performs one sweep synchronously and returns its alerts.
func (s *Scheduler) RunNow(ctx context.Context) ([]business.Alert, error) {
	alerts := s.source.Alerts()

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastAlerts = alerts
	s.mu.Unlock()

	if len(alerts) == 0 {
		s.log.Debug("notification sweep: nothing due")
		return alerts, nil
	}
	if err := s.notifier.Notify(ctx, alerts); err != nil {
		return alerts, fmt.Errorf("notify: %w", err)
	}
	s.log.Info("notification sweep", zap.Int("alerts", len(alerts)))
	return alerts, nil
}

// BackupNow writes one backup synchronously and prunes down to Keep.
func (s *Scheduler) BackupNow(ctx context.Context) (string, error) {
	if s.cfg.Backup == nil {
		return "", fmt.Errorf("no backup storage configured")
	}
	key, err := backup.Backup(ctx, s.source, s.cfg.Backup)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.lastBackup = key
	s.mu.Unlock()
	s.log.Info("backup written", zap.String("key", key))

	if s.cfg.Keep > 0 {
		pruned, err := backup.Prune(ctx, s.cfg.Backup, s.cfg.Keep)
		if err != nil {
			return key, fmt.Errorf("prune backups: %w", err)
		}
		if len(pruned) > 0 {
			s.log.Info("old backups pruned", zap.Strings("keys", pruned))
		}
	}
	return key, nil
}

// Last returns the time and alerts of the most recent sweep.
func (s *Scheduler) Last() (time.Time, []business.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastAlerts
}

// LastBackup returns the key of the most recent scheduled backup.
func (s *Scheduler) LastBackup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBackup
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("notification sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) backup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := s.BackupNow(ctx); err != nil {
		s.log.Error("scheduled backup failed", zap.Error(err))
	}
}
