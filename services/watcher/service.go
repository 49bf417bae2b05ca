package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campwatch/lib/checkstore"
	"campwatch/lib/notify"
	"campwatch/lib/scrapers/reserve"
	"campwatch/lib/timezone"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watcher")

// ErrTooManyFailures is returned by Watch once the consecutive
// failure limit is hit and the watcher gives up.
var ErrTooManyFailures = fmt.Errorf("too many consecutive check failures")

// store status for rounds that never produced a verdict
const StatusFailure = "FAILURE"

const (
	notifyKindAvailability = "availability"
	notifyKindError        = "error"
)

// Checker is the part of the reservation scraper the watcher needs.
// *reserve.Client implements it.
type Checker interface {
	CheckAvailability(ctx context.Context) (reserve.Result, error)
	TargetUrl() string
}

type Options struct {
	// defaults to 5s
	CheckInterval time.Duration
	// defaults to 3
	MaxConsecutiveFailures int
	// minimum gap between availability notifications, 0 notifies on
	// every hit. defaults to 30m.
	NotifyCooldown time.Duration
	// check rows older than this get pruned, 0 keeps them forever.
	// defaults to 30 days.
	HistoryRetention time.Duration
}

type Service struct {
	checker  Checker
	store    checkstore.Store
	notifier notify.Notifier
	opts     Options

	mu    sync.Mutex
	state State
}

// State is a snapshot of the watcher for the status endpoint.
type State struct {
	TargetUrl           string    `json:"target_url"`
	ChecksRun           int64     `json:"checks_run"`
	LastStatus          string    `json:"last_status"`
	LastCheck           time.Time `json:"last_check"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Stopped             bool      `json:"stopped"`
}

func NewService(checker Checker, store checkstore.Store, notifier notify.Notifier, opts Options) *Service {
	if opts.CheckInterval == 0 {
		opts.CheckInterval = time.Second * 5
	}
	if opts.MaxConsecutiveFailures == 0 {
		opts.MaxConsecutiveFailures = 3
	}
	if opts.NotifyCooldown == 0 {
		opts.NotifyCooldown = time.Minute * 30
	}
	if opts.HistoryRetention == 0 {
		opts.HistoryRetention = time.Hour * 24 * 30
	}
	return &Service{
		checker:  checker,
		store:    store,
		notifier: notifier,
		opts:     opts,
		state: State{
			TargetUrl: checker.TargetUrl(),
		},
	}
}

func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunCheck performs one availability round and records it. The
// returned record always carries a status, failures included.
func (s *Service) RunCheck(ctx context.Context) (checkstore.CheckRecord, error) {
	ctx, span := tracer.Start(ctx, "RunCheck")
	defer span.End()

	runId, err := random.String(8)
	if err != nil {
		return checkstore.CheckRecord{}, err
	}

	rec := checkstore.CheckRecord{
		RunId: runId,
		Time:  timezone.Now(),
	}

	result, checkErr := s.checker.CheckAvailability(ctx)
	if checkErr != nil {
		rec.Status = StatusFailure
		rec.Detail = checkErr.Error()
		span.RecordError(checkErr)
		span.SetStatus(codes.Error, "check failed")
	} else {
		rec.Status = string(result.Status)
		rec.Detail = result.PageTitle
	}

	err = s.store.RecordCheck(ctx, rec)
	if err != nil {
		// history is best-effort, a busted store must not stop the watch
		slog.WarnContext(ctx, "failed to record check", "run_id", runId, "err", err)
	}

	s.mu.Lock()
	s.state.ChecksRun++
	s.state.LastStatus = rec.Status
	s.state.LastCheck = rec.Time
	if checkErr != nil {
		s.state.LastError = checkErr.Error()
		s.state.ConsecutiveFailures++
	} else {
		s.state.LastError = ""
		s.state.ConsecutiveFailures = 0
	}
	s.mu.Unlock()

	return rec, checkErr
}

func (s *Service) notifyAvailability(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "notifyAvailability")
	defer span.End()

	if s.opts.NotifyCooldown > 0 {
		last, ok, err := s.store.LastNotification(ctx, notifyKindAvailability)
		if err != nil {
			slog.WarnContext(ctx, "failed to read notification log", "err", err)
		}
		if ok && timezone.Now().Sub(last) < s.opts.NotifyCooldown {
			slog.DebugContext(ctx, "sites still available, notification cooldown active", "last", last)
			return
		}
	}

	n := notify.Notification{
		Title:    "Campsite Available!",
		Message:  "A site may be available for your selected dates! Go book it now!",
		Priority: 1,
		Url:      s.checker.TargetUrl(),
		UrlTitle: "Book Now!",
	}
	err := s.notifier.Send(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send availability notification")
		slog.ErrorContext(ctx, "failed to send availability notification", "err", err)
		return
	}

	err = s.store.RecordNotification(ctx, timezone.Now(), notifyKindAvailability, n.Message)
	if err != nil {
		slog.WarnContext(ctx, "failed to record notification", "err", err)
	}
}

func (s *Service) notifyStopped(ctx context.Context, failures int) {
	ctx, span := tracer.Start(ctx, "notifyStopped")
	defer span.End()

	n := notify.Notification{
		Title: "Campsite Watcher Error",
		Message: fmt.Sprintf(
			"Campsite watcher stopped after %d failed attempts to reach the reservation page.",
			failures,
		),
	}
	err := s.notifier.Send(ctx, n)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to send error notification", "err", err)
		return
	}

	err = s.store.RecordNotification(ctx, timezone.Now(), notifyKindError, n.Message)
	if err != nil {
		slog.WarnContext(ctx, "failed to record notification", "err", err)
	}
}
