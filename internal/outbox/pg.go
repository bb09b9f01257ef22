package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Enqueue(ctx context.Context, topic, key string, payload []byte) error {
	_, err := s.db.Exec(ctx, `INSERT INTO outbox_events (id, topic, key, payload) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), topic, key, payload)
	return err
}

func (s *PGStore) FetchDue(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.Query(ctx, `SELECT id, topic, key, payload, status, attempts, next_attempt_at, created_at
		FROM outbox_events WHERE status=$1 AND next_attempt_at <= now()
		ORDER BY next_attempt_at LIMIT $2`, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Topic, &e.Key, &e.Payload, &e.Status, &e.Attempts, &e.NextAttemptAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		due = append(due, e)
	}
	return due, rows.Err()
}

func (s *PGStore) MarkDelivered(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `UPDATE outbox_events SET status=$1 WHERE id=$2`, StatusDelivered, id)
	return err
}

func (s *PGStore) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE outbox_events SET attempts=$1, next_attempt_at=$2 WHERE id=$3`, attempts, nextAttemptAt, id)
	return err
}

var _ Store = (*PGStore)(nil)
