// README: Booking store contract and its PostgreSQL implementation.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"openseat/internal/apperr"
	"openseat/internal/modules/trip"
	"openseat/internal/types"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListByRider(ctx context.Context, riderID types.ID) ([]*Booking, error)
	ListByTrip(ctx context.Context, tripID types.ID) ([]*Booking, error)
	// Transition applies the status change and any seat delta together, or
	// neither. A booking no longer in tr.From yields a Conflict.
	Transition(ctx context.Context, tr Transition) (*Booking, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `id, trip_id, rider_id, seats_booked, total_amount, currency,
	pickup_stop, dropoff_stop, payment_status, status, status_version,
	token_id, redeemed_at, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(b.ID), string(b.TripID), string(b.RiderID), b.SeatsBooked,
		b.TotalAmount.Amount, b.TotalAmount.Currency,
		b.PickupStop, b.DropoffStop, string(b.PaymentStatus), string(b.Status), b.StatusVersion,
		nullString(b.TokenID), b.RedeemedAt, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var id, tripID, riderID, payment, status string
	var tokenID *string
	err := row.Scan(
		&id, &tripID, &riderID, &b.SeatsBooked, &b.TotalAmount.Amount, &b.TotalAmount.Currency,
		&b.PickupStop, &b.DropoffStop, &payment, &status, &b.StatusVersion,
		&tokenID, &b.RedeemedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ID, b.TripID, b.RiderID = types.ID(id), types.ID(tripID), types.ID(riderID)
	b.PaymentStatus, b.Status = PaymentStatus(payment), Status(status)
	if tokenID != nil {
		b.TokenID = *tokenID
	}
	return &b, nil
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Booking not found")
	}
	return b, err
}

func (s *PGStore) list(ctx context.Context, sql string, arg string) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PGStore) ListByRider(ctx context.Context, riderID types.ID) ([]*Booking, error) {
	return s.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC, id`, string(riderID))
}

func (s *PGStore) ListByTrip(ctx context.Context, tripID types.ID) ([]*Booking, error) {
	return s.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE trip_id = $1 ORDER BY created_at, id`, string(tripID))
}

// Transition locks the booking row, applies the guarded seat update on the
// trip and bumps status_version in one transaction.
func (s *PGStore) Transition(ctx context.Context, tr Transition) (*Booking, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, string(tr.BookingID)).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	if Status(current) != tr.From {
		return nil, apperr.Conflict("Booking is %s, expected %s", current, tr.From)
	}

	if tr.SeatDelta != 0 {
		if _, err := trip.AdjustSeatsTx(ctx, tx, tr.TripID, tr.SeatDelta); err != nil {
			return nil, err
		}
	}

	var payment *string
	if tr.PaymentStatus != nil {
		p := string(*tr.PaymentStatus)
		payment = &p
	}
	b, err := scanBooking(tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    status_version = status_version + 1,
		    payment_status = COALESCE($3, payment_status),
		    token_id = COALESCE($4, token_id),
		    redeemed_at = COALESCE($5, redeemed_at),
		    updated_at = $6
		WHERE id = $1
		RETURNING `+bookingColumns,
		string(tr.BookingID), string(tr.To), payment, tr.TokenID, tr.RedeemedAt, tr.At,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return b, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
