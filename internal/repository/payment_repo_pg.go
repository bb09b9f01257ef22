package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrDuplicatePayment surfaces the unique constraint on reservation_id.
	ErrDuplicatePayment = errors.New("payment already exists for reservation")
	// ErrPaymentAlreadyTerminal means a terminal transition was attempted on a
	// row that already left PENDING.
	ErrPaymentAlreadyTerminal = errors.New("payment already in a terminal status")
)

type PaymentRepository interface {
	CreatePending(ctx context.Context, payment *domain.Payment) error
	GetByReservationID(ctx context.Context, reservationID string) (*domain.Payment, error)
	MarkCompleted(ctx context.Context, id, transactionID string) (*domain.Payment, error)
	MarkFailed(ctx context.Context, id string) (*domain.Payment, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) CreatePending(ctx context.Context, payment *domain.Payment) error {
	payment.Status = domain.PaymentStatusPending
	err := r.db.QueryRow(ctx, `INSERT INTO payments (id, reservation_id, user_id, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		payment.ID, payment.ReservationID, payment.UserID, payment.AmountCents, payment.Status).
		Scan(&payment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *PGPaymentRepository) GetByReservationID(ctx context.Context, reservationID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, reservation_id, user_id, amount_cents, status, COALESCE(transaction_id, ''), created_at, COALESCE(completed_at, 'epoch'::timestamptz) FROM payments WHERE reservation_id=$1`, reservationID)
	return scanPayment(row)
}

// MarkCompleted records the gateway transaction. Guarded on PENDING so a
// terminal payment can never transition again.
func (r *PGPaymentRepository) MarkCompleted(ctx context.Context, id, transactionID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1, transaction_id=$2, completed_at=now() WHERE id=$3 AND status=$4
		RETURNING id, reservation_id, user_id, amount_cents, status, COALESCE(transaction_id, ''), created_at, COALESCE(completed_at, 'epoch'::timestamptz)`,
		domain.PaymentStatusCompleted, transactionID, id, domain.PaymentStatusPending)
	return r.scanTerminal(ctx, id, row)
}

func (r *PGPaymentRepository) MarkFailed(ctx context.Context, id string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1 WHERE id=$2 AND status=$3
		RETURNING id, reservation_id, user_id, amount_cents, status, COALESCE(transaction_id, ''), created_at, COALESCE(completed_at, 'epoch'::timestamptz)`,
		domain.PaymentStatusFailed, id, domain.PaymentStatusPending)
	return r.scanTerminal(ctx, id, row)
}

func (r *PGPaymentRepository) scanTerminal(ctx context.Context, id string, row pgx.Row) (*domain.Payment, error) {
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			existing := r.db.QueryRow(ctx, `SELECT id, reservation_id, user_id, amount_cents, status, COALESCE(transaction_id, ''), created_at, COALESCE(completed_at, 'epoch'::timestamptz) FROM payments WHERE id=$1`, id)
			if _, getErr := scanPayment(existing); getErr != nil {
				return nil, getErr
			}
			return nil, ErrPaymentAlreadyTerminal
		}
		return nil, err
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.ReservationID, &p.UserID, &p.AmountCents, &p.Status, &p.TransactionID, &p.CreatedAt, &p.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
