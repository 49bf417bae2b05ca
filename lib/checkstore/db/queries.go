package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createCheck = `
INSERT INTO checks (runid, time, status, detail)
VALUES (?, ?, ?, ?)
`

type CreateCheckParams struct {
	Runid  string
	Time   int64
	Status string
	Detail string
}

func (q *Queries) CreateCheck(ctx context.Context, arg CreateCheckParams) error {
	_, err := q.db.ExecContext(ctx, createCheck, arg.Runid, arg.Time, arg.Status, arg.Detail)
	return err
}

const getRecentChecks = `
SELECT runid, time, status, detail FROM checks
ORDER BY time DESC, id DESC
LIMIT ?
`

type GetRecentChecksRow struct {
	Runid  string
	Time   int64
	Status string
	Detail string
}

func (q *Queries) GetRecentChecks(ctx context.Context, limit int64) ([]GetRecentChecksRow, error) {
	rows, err := q.db.QueryContext(ctx, getRecentChecks, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetRecentChecksRow
	for rows.Next() {
		var i GetRecentChecksRow
		err := rows.Scan(&i.Runid, &i.Time, &i.Status, &i.Detail)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createNotification = `
INSERT INTO notifications (time, kind, message)
VALUES (?, ?, ?)
`

type CreateNotificationParams struct {
	Time    int64
	Kind    string
	Message string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) error {
	_, err := q.db.ExecContext(ctx, createNotification, arg.Time, arg.Kind, arg.Message)
	return err
}

const getLastNotificationTime = `
SELECT time FROM notifications
WHERE kind = ?
ORDER BY time DESC
LIMIT 1
`

func (q *Queries) GetLastNotificationTime(ctx context.Context, kind string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getLastNotificationTime, kind)
	var time int64
	err := row.Scan(&time)
	return time, err
}

const pruneChecksBefore = `
DELETE FROM checks WHERE time < ?
`

func (q *Queries) PruneChecksBefore(ctx context.Context, before int64) error {
	_, err := q.db.ExecContext(ctx, pruneChecksBefore, before)
	return err
}
