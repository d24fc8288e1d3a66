package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/lovetoday/internal/model"
)

// PushStore persists push subscriptions in SQLite. Active rows form the
// subscriber index.
type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Upsert inserts or replaces a subscription. created_at is kept on re-subscribe.
func (s *PushStore) Upsert(ctx context.Context, sub model.PushSubscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (id, endpoint, subscription, tz, hour, minute, active, last_sent_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, '', ?)
		 ON CONFLICT(id) DO UPDATE SET
		   endpoint = excluded.endpoint,
		   subscription = excluded.subscription,
		   tz = excluded.tz,
		   hour = excluded.hour,
		   minute = excluded.minute,
		   active = 1`,
		sub.ID, sub.Endpoint, string(sub.Subscription), sub.Timezone, sub.Hour, sub.Minute, sub.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// ListIDs returns the ids of active subscriptions, oldest first.
func (s *PushStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM push_subscriptions WHERE active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan push subscription id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PushStore) Get(ctx context.Context, id string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	var payload string
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, endpoint, subscription, tz, hour, minute, active, last_sent_date, created_at
		 FROM push_subscriptions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Endpoint, &payload, &sub.Timezone, &sub.Hour, &sub.Minute, &active, &sub.LastSentDate, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	sub.Subscription = []byte(payload)
	sub.Active = active != 0
	return &sub, nil
}

// Delete removes the record, which also drops it from the index.
func (s *PushStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) MarkSent(ctx context.Context, id, date string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE push_subscriptions SET last_sent_date = ? WHERE id = ?`, date, id)
	if err != nil {
		return fmt.Errorf("mark push subscription sent: %w", err)
	}
	return nil
}
