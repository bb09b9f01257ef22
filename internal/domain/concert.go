package domain

import "time"

type Concert struct {
	ID         int64
	Title      string
	SeatCount  int
	PriceCents int64
	StartsAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasSeat reports whether seatNumber belongs to the concert's seat map.
func (c *Concert) HasSeat(seatNumber int) bool {
	return seatNumber > 0 && seatNumber <= c.SeatCount
}
