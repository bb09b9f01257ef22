package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type Payment struct {
	ID            string
	ReservationID string
	UserID        string
	AmountCents   int64
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// Terminal reports whether the payment reached a sticky state.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
