package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID          string
	UserID      string
	ConcertID   int64
	SeatNumber  int
	PriceCents  int64
	HoldToken   string
	Status      ReservationStatus
	CreatedAt   time.Time
	ConfirmedAt time.Time
}

// Terminal reports whether no further status transition is permitted.
// CONFIRMED is not terminal: a failed payment still cancels the reservation.
func (r *Reservation) Terminal() bool {
	return r.Status == ReservationStatusCancelled
}
