// README: Journal store backed by PostgreSQL.
package journal

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) RecordDelivery(ctx context.Context, d Delivery) error {
	at := d.At
	if at.IsZero() {
		at = time.Now()
	}
	var errText *string
	if d.Error != "" {
		errText = &d.Error
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO notification_deliveries (recipient_id, type, channel, ok, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		string(d.RecipientID), d.Type, string(d.Channel), d.OK, errText, at,
	)
	return err
}

func (s *Store) RecordSweep(ctx context.Context, r SweepRun) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO sweep_runs (id, started_at, finished_at, scanned, completed, skipped, malformed, stale, failed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.StartedAt, r.FinishedAt, r.Scanned, r.Completed, r.Skipped, r.Malformed, r.Stale, r.Failed,
	)
	return err
}

// RecentSweeps returns up to limit runs, newest first.
func (s *Store) RecentSweeps(ctx context.Context, limit int) ([]SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
        SELECT id, started_at, finished_at, scanned, completed, skipped, malformed, stale, failed
        FROM sweep_runs
        ORDER BY started_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRun
	for rows.Next() {
		var r SweepRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Scanned, &r.Completed, &r.Skipped, &r.Malformed, &r.Stale, &r.Failed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeliveriesFor counts journal rows for a recipient on a channel.
func (s *Store) DeliveriesFor(ctx context.Context, recipientID string, ch Channel) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*) FROM notification_deliveries
        WHERE recipient_id = $1 AND channel = $2`, recipientID, string(ch),
	).Scan(&n)
	return n, err
}
