package watcher

import (
	"context"
	"log/slog"
	"time"

	"campwatch/lib/scrapers/reserve"
	"campwatch/lib/timezone"
)

// Watch checks availability on the configured interval until the
// context is cancelled or the consecutive failure limit is reached.
// The first check runs immediately.
func (s *Service) Watch(ctx context.Context) error {
	slog.InfoContext(ctx, "starting campsite watch",
		"target", s.checker.TargetUrl(),
		"interval", s.opts.CheckInterval,
		"max_consecutive_failures", s.opts.MaxConsecutiveFailures,
	)

	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	lastPrune := timezone.Now()
	s.pruneHistory(ctx)

	for {
		rec, err := s.RunCheck(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			failures := s.Snapshot().ConsecutiveFailures
			slog.ErrorContext(ctx, "check failed",
				"run_id", rec.RunId,
				"failures", failures,
				"max", s.opts.MaxConsecutiveFailures,
				"err", err,
			)
			if failures >= s.opts.MaxConsecutiveFailures {
				slog.ErrorContext(ctx, "reached consecutive failure limit, stopping")
				s.notifyStopped(ctx, failures)
				s.mu.Lock()
				s.state.Stopped = true
				s.mu.Unlock()
				return ErrTooManyFailures
			}
		} else {
			slog.InfoContext(ctx, "check complete", "run_id", rec.RunId, "status", rec.Status)
			if rec.Status == string(reserve.StatusSitesFound) {
				s.notifyAvailability(ctx)
			}
		}

		if s.opts.HistoryRetention > 0 && timezone.Now().Sub(lastPrune) > time.Hour*12 {
			s.pruneHistory(ctx)
			lastPrune = timezone.Now()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) pruneHistory(ctx context.Context) {
	if s.opts.HistoryRetention <= 0 {
		return
	}
	err := s.store.Prune(ctx, timezone.Now(), s.opts.HistoryRetention)
	if err != nil {
		slog.WarnContext(ctx, "failed to prune check history", "err", err)
	}
}
