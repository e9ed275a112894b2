package api_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bizmob/ledger/api"
	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/business"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]business.Alert
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, alerts []business.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, alerts)
	return n.err
}

func TestScheduler_RunNow(t *testing.T) {
	// GIVEN: The overdue scenario and a recording notifier
	ts := newTestServer(t, business.DefaultConfig())
	loadScenario(t, ts, "overdue")
	notifier := &recordingNotifier{}
	sched, err := api.NewScheduler(ts.ledger, notifier, api.SchedulerConfig{}, nil)
	require.NoError(t, err)

	// WHEN: Sweeping
	alerts, err := sched.RunNow(context.Background())

	// THEN: Every alert is delivered once and remembered
	require.NoError(t, err)
	assert.Len(t, alerts, 4)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, alerts, notifier.calls[0])
	at, last := sched.Last()
	assert.False(t, at.IsZero())
	assert.Equal(t, alerts, last)
}

func TestScheduler_NothingDue(t *testing.T) {
	// GIVEN: An empty ledger
	ts := newTestServer(t, business.DefaultConfig())
	notifier := &recordingNotifier{}
	sched, err := api.NewScheduler(ts.ledger, notifier, api.SchedulerConfig{}, nil)
	require.NoError(t, err)

	// WHEN: Sweeping
	alerts, err := sched.RunNow(context.Background())

	// THEN: The notifier is not called
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, notifier.calls)
}

func TestScheduler_NotifierError(t *testing.T) {
	ts := newTestServer(t, business.DefaultConfig())
	loadScenario(t, ts, "acme-debt")
	ts.clock.Set(ts.clock.Now().AddDate(0, 0, 40))

	sched, err := api.NewScheduler(ts.ledger, &recordingNotifier{err: errors.New("smtp down")}, api.SchedulerConfig{}, nil)
	require.NoError(t, err)

	_, err = sched.RunNow(context.Background())
	assert.ErrorContains(t, err, "smtp down")
}

func TestScheduler_InvalidSchedules(t *testing.T) {
	ts := newTestServer(t, business.DefaultConfig())

	_, err := api.NewScheduler(ts.ledger, nil, api.SchedulerConfig{NotifyCron: "every morning"}, nil)
	assert.Error(t, err)

	_, err = api.NewScheduler(ts.ledger, nil, api.SchedulerConfig{BackupCron: "0 2 * * *"}, nil)
	assert.ErrorContains(t, err, "without backup storage")
}

func TestScheduler_BackupNow(t *testing.T) {
	// GIVEN: A scheduler with file backup storage
	ts := newTestServer(t, business.DefaultConfig())
	loadScenario(t, ts, "rice")
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	sched, err := api.NewScheduler(ts.ledger, nil, api.SchedulerConfig{BackupCron: "0 2 * * *", Backup: st}, nil)
	require.NoError(t, err)

	// WHEN: Backing up now
	key, err := sched.BackupNow(context.Background())

	// THEN: The backup is listed and restores the ledger
	require.NoError(t, err)
	assert.Equal(t, key, sched.LastBackup())
	keys, err := backup.List(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	other := newTestServer(t, business.DefaultConfig())
	require.NoError(t, backup.Restore(context.Background(), other.ledger, st, key))
	assert.Len(t, other.ledger.Purchases(), 2)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ts := newTestServer(t, business.DefaultConfig())
	loadScenario(t, ts, "overdue")

	err := api.LogNotifier{Log: zap.New(core)}.Notify(context.Background(), ts.ledger.Alerts())

	require.NoError(t, err)
	entries := logs.FilterMessage("debt alert").All()
	require.Len(t, entries, 4)
	var kinds []any
	for _, e := range entries {
		kinds = append(kinds, e.ContextMap()["kind"])
	}
	assert.Contains(t, kinds, "debt_overdue")
}

func TestScheduler_BackupPrunes(t *testing.T) {
	// GIVEN: Backups kept down to one
	ts := newTestServer(t, business.DefaultConfig())
	st, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	sched, err := api.NewScheduler(ts.ledger, nil, api.SchedulerConfig{Backup: st, Keep: 1}, nil)
	require.NoError(t, err)

	// WHEN: Two backups are taken a day apart
	_, err = sched.BackupNow(context.Background())
	require.NoError(t, err)
	ts.clock.Set(ts.clock.Now().AddDate(0, 0, 1))
	second, err := sched.BackupNow(context.Background())
	require.NoError(t, err)

	// THEN: Only the newest remains
	keys, err := backup.List(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, []string{second}, keys)
}
