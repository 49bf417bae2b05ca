package checkstore

import (
	"context"
	"database/sql"
	"time"

	"campwatch/lib/checkstore/db"
)

// Store keeps the history of availability checks and the
// notifications that got sent for them.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type CheckRecord struct {
	RunId  string
	Time   time.Time
	Status string
	Detail string
}

func (s Store) RecordCheck(ctx context.Context, rec CheckRecord) error {
	return s.qry.CreateCheck(ctx, db.CreateCheckParams{
		Runid:  rec.RunId,
		Time:   rec.Time.Unix(),
		Status: rec.Status,
		Detail: rec.Detail,
	})
}

// RecentChecks returns up to `limit` checks, newest first.
func (s Store) RecentChecks(ctx context.Context, limit int64) ([]CheckRecord, error) {
	rows, err := s.qry.GetRecentChecks(ctx, limit)
	if err != nil {
		return nil, err
	}

	records := make([]CheckRecord, len(rows))
	for i, r := range rows {
		records[i] = CheckRecord{
			RunId:  r.Runid,
			Time:   time.Unix(r.Time, 0),
			Status: r.Status,
			Detail: r.Detail,
		}
	}
	return records, nil
}

func (s Store) RecordNotification(ctx context.Context, at time.Time, kind, message string) error {
	return s.qry.CreateNotification(ctx, db.CreateNotificationParams{
		Time:    at.Unix(),
		Kind:    kind,
		Message: message,
	})
}

// LastNotification returns when a notification of `kind` last went
// out, or ok=false when none ever has.
func (s Store) LastNotification(ctx context.Context, kind string) (at time.Time, ok bool, err error) {
	unix, err := s.qry.GetLastNotificationTime(ctx, kind)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}

// Prune drops check rows older than `retention` ago.
func (s Store) Prune(ctx context.Context, now time.Time, retention time.Duration) error {
	return s.qry.PruneChecksBefore(ctx, now.Add(-retention).Unix())
}
