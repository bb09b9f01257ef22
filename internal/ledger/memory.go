package ledger

import (
	"context"
	"sync"

	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/google/uuid"
)

type seatSlot struct {
	concertID  int64
	seatNumber int
}

// MemoryLedger keeps holds in a mutex-guarded map. Used in tests and local
// development where redis is not available.
type MemoryLedger struct {
	catalog catalog.Catalog

	mu    sync.Mutex
	holds map[seatSlot]string
}

func NewMemoryLedger(cat catalog.Catalog) *MemoryLedger {
	return &MemoryLedger{catalog: cat, holds: make(map[seatSlot]string)}
}

func (l *MemoryLedger) Hold(ctx context.Context, concertID int64, seatNumber int, userID string) (string, error) {
	if err := checkSeat(ctx, l.catalog, concertID, seatNumber); err != nil {
		return "", err
	}

	slot := seatSlot{concertID: concertID, seatNumber: seatNumber}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.holds[slot]; taken {
		return "", ErrSeatUnavailable
	}
	token := uuid.NewString()
	l.holds[slot] = token
	return token, nil
}

func (l *MemoryLedger) Release(ctx context.Context, concertID int64, seatNumber int) error {
	slot := seatSlot{concertID: concertID, seatNumber: seatNumber}

	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.holds, slot)
	return nil
}

var _ Ledger = (*MemoryLedger)(nil)
