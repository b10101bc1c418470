// README: Payment store contract, PostgreSQL and in-memory implementations.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

// Store keeps at most one payment per booking.
type Store interface {
	// Save inserts the payment or replaces the booking's existing attempt.
	Save(ctx context.Context, p *Payment) error
	GetByRef(ctx context.Context, txnRef string) (*Payment, error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*Payment, error)
	UpdateStatus(ctx context.Context, id types.ID, status Status, providerRef string, at time.Time) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const paymentColumns = `id, booking_id, amount, currency, transaction_ref, provider_ref,
	status, payment_method, created_at, updated_at`

func (s *PGStore) Save(ctx context.Context, p *Payment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (booking_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    transaction_ref = EXCLUDED.transaction_ref,
		    provider_ref = EXCLUDED.provider_ref,
		    status = EXCLUDED.status,
		    payment_method = EXCLUDED.payment_method,
		    updated_at = EXCLUDED.updated_at`,
		string(p.ID), string(p.BookingID), p.Amount.Amount, p.Amount.Currency,
		p.TransactionRef, nullString(p.ProviderRef), string(p.Status), p.Method,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var id, bookingID, status string
	var providerRef *string
	err := row.Scan(&id, &bookingID, &p.Amount.Amount, &p.Amount.Currency, &p.TransactionRef,
		&providerRef, &status, &p.Method, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, err
	}
	p.ID, p.BookingID, p.Status = types.ID(id), types.ID(bookingID), Status(status)
	if providerRef != nil {
		p.ProviderRef = *providerRef
	}
	return &p, nil
}

func (s *PGStore) GetByRef(ctx context.Context, txnRef string) (*Payment, error) {
	return scanPayment(s.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_ref = $1`, txnRef))
}

func (s *PGStore) GetByBooking(ctx context.Context, bookingID types.ID) (*Payment, error) {
	return scanPayment(s.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, string(bookingID)))
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, status Status, providerRef string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, provider_ref = COALESCE($3, provider_ref), updated_at = $4
		WHERE id = $1`, string(id), string(status), nullString(providerRef), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Payment not found")
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type MemoryStore struct {
	mu        sync.Mutex
	byBooking map[types.ID]*Payment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byBooking: make(map[types.ID]*Payment)}
}

func (s *MemoryStore) Save(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byBooking {
		if existing.TransactionRef == p.TransactionRef && existing.BookingID != p.BookingID {
			return apperr.Conflict("duplicate transaction reference")
		}
	}
	c := *p
	s.byBooking[p.BookingID] = &c
	return nil
}

func (s *MemoryStore) GetByRef(_ context.Context, txnRef string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byBooking {
		if p.TransactionRef == txnRef {
			c := *p
			return &c, nil
		}
	}
	return nil, apperr.NotFound("Payment not found")
}

func (s *MemoryStore) GetByBooking(_ context.Context, bookingID types.ID) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byBooking[bookingID]
	if !ok {
		return nil, apperr.NotFound("Payment not found")
	}
	c := *p
	return &c, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id types.ID, status Status, providerRef string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byBooking {
		if p.ID != id {
			continue
		}
		p.Status = status
		if providerRef != "" {
			p.ProviderRef = providerRef
		}
		p.UpdatedAt = at
		return nil
	}
	return apperr.NotFound("Payment not found")
}
