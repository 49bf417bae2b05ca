package watcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"campwatch/lib/checkstore"
	"campwatch/lib/checkstore/db"
	"campwatch/lib/notify"
	"campwatch/lib/scrapers/reserve"
	"campwatch/lib/sqliteutil"
	"campwatch/lib/telemetry"
	"campwatch/lib/timezone"

	"github.com/stretchr/testify/require"
)

type outcome struct {
	status reserve.Status
	err    error
}

// scriptedChecker plays through a fixed sequence of outcomes and
// cancels the watch once the script runs out.
type scriptedChecker struct {
	mu      sync.Mutex
	script  []outcome
	idx     int
	onEmpty context.CancelFunc
}

func (c *scriptedChecker) CheckAvailability(ctx context.Context) (reserve.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.idx >= len(c.script) {
		if c.onEmpty != nil {
			c.onEmpty()
		}
		return reserve.Result{}, context.Canceled
	}
	out := c.script[c.idx]
	c.idx++

	if out.err != nil {
		return reserve.Result{}, out.err
	}
	return reserve.Result{
		Status:    out.status,
		CheckedAt: timezone.Now(),
		PageTitle: "Campground Reservations",
	}, nil
}

func (c *scriptedChecker) TargetUrl() string {
	return "https://example.com/camp"
}

type capturingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *capturingNotifier) Send(ctx context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *capturingNotifier) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification{}, n.sent...)
}

func setupStore(t *testing.T) checkstore.Store {
	sqlite, err := sqliteutil.OpenDB(db.Schema, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return checkstore.NewStore(sqlite)
}

func TestRunCheckRecordsHistory(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:watcher")
	defer cleanup()

	store := setupStore(t)
	checker := &scriptedChecker{script: []outcome{{status: reserve.StatusNoSites}}}
	service := NewService(checker, store, &capturingNotifier{}, Options{})

	rec, err := service.RunCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, string(reserve.StatusNoSites), rec.Status)
	require.Len(t, rec.RunId, 8)

	history, err := store.RecentChecks(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, rec.RunId, history[0].RunId)

	state := service.Snapshot()
	require.Equal(t, int64(1), state.ChecksRun)
	require.Equal(t, string(reserve.StatusNoSites), state.LastStatus)
	require.Equal(t, 0, state.ConsecutiveFailures)
}

func TestRunCheckRecordsFailure(t *testing.T) {
	store := setupStore(t)
	checker := &scriptedChecker{script: []outcome{{err: fmt.Errorf("connection refused")}}}
	service := NewService(checker, store, &capturingNotifier{}, Options{})

	rec, err := service.RunCheck(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusFailure, rec.Status)
	require.Equal(t, "connection refused", rec.Detail)
	require.Equal(t, 1, service.Snapshot().ConsecutiveFailures)
}

func TestWatchNotifiesOnAvailability(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	store := setupStore(t)
	notifier := &capturingNotifier{}
	checker := &scriptedChecker{
		script: []outcome{
			{status: reserve.StatusNoSites},
			{status: reserve.StatusSitesFound},
			// still available on the next round, cooldown should
			// swallow the repeat
			{status: reserve.StatusSitesFound},
		},
		onEmpty: cancel,
	}
	service := NewService(checker, store, notifier, Options{
		CheckInterval: time.Millisecond,
	})

	err := service.Watch(ctx)
	require.ErrorIs(t, err, context.Canceled)

	sent := notifier.all()
	require.Len(t, sent, 1)
	require.Equal(t, "Campsite Available!", sent[0].Title)
	require.Equal(t, 1, sent[0].Priority)
	require.Equal(t, "https://example.com/camp", sent[0].Url)
	require.Equal(t, "Book Now!", sent[0].UrlTitle)

	_, ok, err := store.LastNotification(context.Background(), "availability")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWatchNotifiesEveryHitWithoutCooldown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	store := setupStore(t)
	notifier := &capturingNotifier{}
	checker := &scriptedChecker{
		script: []outcome{
			{status: reserve.StatusSitesFound},
			{status: reserve.StatusSitesFound},
		},
		onEmpty: cancel,
	}
	service := NewService(checker, store, notifier, Options{
		CheckInterval:  time.Millisecond,
		NotifyCooldown: -1,
	})

	err := service.Watch(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, notifier.all(), 2)
}

func TestWatchStopsAfterConsecutiveFailures(t *testing.T) {
	store := setupStore(t)
	notifier := &capturingNotifier{}
	checker := &scriptedChecker{
		script: []outcome{
			{err: fmt.Errorf("timeout")},
			{err: fmt.Errorf("timeout")},
			{err: fmt.Errorf("timeout")},
		},
	}
	service := NewService(checker, store, notifier, Options{
		CheckInterval:          time.Millisecond,
		MaxConsecutiveFailures: 3,
	})

	err := service.Watch(context.Background())
	require.ErrorIs(t, err, ErrTooManyFailures)

	sent := notifier.all()
	require.Len(t, sent, 1)
	require.Equal(t, "Campsite Watcher Error", sent[0].Title)
	require.Contains(t, sent[0].Message, "3 failed attempts")

	state := service.Snapshot()
	require.True(t, state.Stopped)
	require.Equal(t, 3, state.ConsecutiveFailures)
}

func TestWatchFailureCounterResets(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	store := setupStore(t)
	notifier := &capturingNotifier{}
	checker := &scriptedChecker{
		script: []outcome{
			{err: fmt.Errorf("timeout")},
			{err: fmt.Errorf("timeout")},
			{status: reserve.StatusNoSites},
			{err: fmt.Errorf("timeout")},
		},
		onEmpty: cancel,
	}
	service := NewService(checker, store, notifier, Options{
		CheckInterval:          time.Millisecond,
		MaxConsecutiveFailures: 3,
	})

	err := service.Watch(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, notifier.all(), 0)
	require.False(t, service.Snapshot().Stopped)
}
