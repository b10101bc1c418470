// README: Token store contract and its PostgreSQL implementation.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

type Store interface {
	// IssueIfAbsent stores t unless its booking already has a token and
	// returns whichever token is stored; created reports whether t won.
	IssueIfAbsent(ctx context.Context, t *Token) (stored *Token, created bool, err error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*Token, error)
	MarkRedeemed(ctx context.Context, bookingID types.ID, at time.Time) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) IssueIfAbsent(ctx context.Context, t *Token) (*Token, bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO verification_tokens (
			booking_id, token_id, trip_id, rider_id, amount, currency,
			booking_hash, transaction_hash, network, version, block_number,
			issued_at, expires_at, qr_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (booking_id) DO NOTHING`,
		string(t.BookingID), t.ID, string(t.TripID), string(t.RiderID),
		t.Amount.Amount, t.Amount.Currency,
		t.BookingHash, t.TransactionHash, t.Network, t.Version, t.BlockNumber,
		t.IssuedAt, t.ExpiresAt, t.QRData,
	)
	if err != nil {
		return nil, false, err
	}
	stored, err := s.GetByBooking(ctx, t.BookingID)
	if err != nil {
		return nil, false, err
	}
	return stored, tag.RowsAffected() == 1, nil
}

func (s *PGStore) GetByBooking(ctx context.Context, bookingID types.ID) (*Token, error) {
	var t Token
	var bid, tid, rid string
	err := s.db.QueryRow(ctx, `
		SELECT booking_id, token_id, trip_id, rider_id, amount, currency,
		       booking_hash, transaction_hash, network, version, block_number,
		       issued_at, expires_at, redeemed_at, qr_data
		FROM verification_tokens WHERE booking_id = $1`, string(bookingID),
	).Scan(
		&bid, &t.ID, &tid, &rid, &t.Amount.Amount, &t.Amount.Currency,
		&t.BookingHash, &t.TransactionHash, &t.Network, &t.Version, &t.BlockNumber,
		&t.IssuedAt, &t.ExpiresAt, &t.RedeemedAt, &t.QRData,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Verification token not found")
	}
	if err != nil {
		return nil, err
	}
	t.BookingID, t.TripID, t.RiderID = types.ID(bid), types.ID(tid), types.ID(rid)
	t.IssuedAt, t.ExpiresAt = t.IssuedAt.UTC(), t.ExpiresAt.UTC()
	return &t, nil
}

func (s *PGStore) MarkRedeemed(ctx context.Context, bookingID types.ID, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE verification_tokens SET redeemed_at = $2
		WHERE booking_id = $1 AND redeemed_at IS NULL`, string(bookingID), at)
	return err
}
