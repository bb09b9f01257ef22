package ledger

import (
	"context"
	"errors"
)

var (
	// ErrSeatUnavailable means another caller already holds or confirmed the seat.
	ErrSeatUnavailable = errors.New("seat is unavailable")
	// ErrSeatNotFound means the seat does not exist for the concert. No retry helps.
	ErrSeatNotFound = errors.New("seat not found")
)

// Ledger is the authoritative record of which seats are held per concert and
// the single serialization point for concurrent reservation attempts. Hold is
// an atomic check-and-set: under N concurrent callers for the same seat
// exactly one receives a token, the rest observe ErrSeatUnavailable.
type Ledger interface {
	Hold(ctx context.Context, concertID int64, seatNumber int, userID string) (string, error)
	Release(ctx context.Context, concertID int64, seatNumber int) error
}
