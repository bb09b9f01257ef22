package outbox

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
)

// Event is a completion event that could not be delivered inline and waits
// for redelivery. The payload is the already-marshaled message body.
type Event struct {
	ID            string
	Topic         string
	Key           string
	Payload       []byte
	Status        Status
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
}

type Store interface {
	Enqueue(ctx context.Context, topic, key string, payload []byte) error
	FetchDue(ctx context.Context, limit int) ([]Event, error)
	MarkDelivered(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time) error
}
