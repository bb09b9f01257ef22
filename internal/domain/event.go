package domain

import (
	"errors"
	"time"
)

// ErrEventPreconditions is returned when an event is built from a pair that
// has not both reached its success state.
var ErrEventPreconditions = errors.New("reservation must be CONFIRMED and payment COMPLETED")

// ReservationCompletedEvent is an immutable snapshot published once a
// reservation is confirmed and its payment completed. Delivery is
// at-least-once; consumers deduplicate by (reservation_id, transaction_id).
type ReservationCompletedEvent struct {
	ReservationID string    `json:"reservation_id"`
	ConcertID     int64     `json:"concert_id"`
	ConcertTitle  string    `json:"concert_title"`
	UserID        string    `json:"user_id"`
	SeatNumber    int       `json:"seat_number"`
	AmountCents   int64     `json:"amount_cents"`
	TransactionID string    `json:"transaction_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NewReservationCompletedEvent builds the snapshot. The completion timestamp
// is fixed at construction and never mutated afterwards.
func NewReservationCompletedEvent(r *Reservation, p *Payment, concertTitle string, now time.Time) (ReservationCompletedEvent, error) {
	if r == nil || p == nil || r.Status != ReservationStatusConfirmed || p.Status != PaymentStatusCompleted {
		return ReservationCompletedEvent{}, ErrEventPreconditions
	}
	return ReservationCompletedEvent{
		ReservationID: r.ID,
		ConcertID:     r.ConcertID,
		ConcertTitle:  concertTitle,
		UserID:        r.UserID,
		SeatNumber:    r.SeatNumber,
		AmountCents:   p.AmountCents,
		TransactionID: p.TransactionID,
		CompletedAt:   now,
	}, nil
}
