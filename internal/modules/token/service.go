// README: Token service issues, verifies and redeems per-booking verification credentials.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/config"
	"openseat/internal/logger"
	"openseat/internal/types"
)

// Issuer is the credential capability the booking ledger depends on. The
// hash-based Service is one implementation; a ledger-backed one can replace it.
type Issuer interface {
	Issue(ctx context.Context, s Subject) (*Token, error)
	Get(ctx context.Context, bookingID types.ID) (*Token, error)
	Verify(ctx context.Context, tokenID string, f Facts) (Result, error)
	MarkRedeemed(ctx context.Context, bookingID types.ID, at time.Time) error
	TTL() time.Duration
}

type Service struct {
	store   Store
	cfg     config.TokenConfig
	clock   types.Clock
	entropy io.Reader
	log     *slog.Logger
}

func NewService(store Store, cfg config.TokenConfig, clock types.Clock, log *slog.Logger) *Service {
	if cfg.NetworkTag == "" {
		cfg.NetworkTag = defaultNetwork
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Platform == "" {
		cfg.Platform = defaultPlatform
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Service{store: store, cfg: cfg, clock: clock, entropy: rand.Reader, log: logger.OrDiscard(log)}
}

func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// Issue returns the booking's token, creating it on first call.
func (s *Service) Issue(ctx context.Context, subj Subject) (*Token, error) {
	if subj.BookingID == "" {
		return nil, apperr.BadRequest("booking id is required")
	}
	existing, err := s.store.GetByBooking(ctx, subj.BookingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	t, err := s.build(subj, s.clock.Now())
	if err != nil {
		return nil, err
	}
	settlement, err := s.Settle(ctx)
	if err != nil {
		return nil, err
	}
	t.BlockNumber = settlement.BlockNumber

	stored, created, err := s.store.IssueIfAbsent(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	if created {
		logger.Action(s.log, "issue_token").Info("verification token issued",
			"booking_id", stored.BookingID, "token_id", stored.ID, "block", stored.BlockNumber)
	}
	return stored, nil
}

func (s *Service) build(subj Subject, now time.Time) (*Token, error) {
	issued := now.UTC().Truncate(time.Microsecond)
	hash := bookingHash(subj, issued, s.cfg.NetworkTag, s.cfg.Version)

	ref := make([]byte, 32)
	if _, err := io.ReadFull(s.entropy, ref); err != nil {
		return nil, fmt.Errorf("settlement reference: %w", err)
	}

	t := &Token{
		ID:              tokenID(subj, hash),
		BookingID:       subj.BookingID,
		TripID:          subj.TripID,
		RiderID:         subj.RiderID,
		Amount:          subj.Amount,
		BookingHash:     hash,
		TransactionHash: "0x" + hex.EncodeToString(ref),
		Network:         s.cfg.NetworkTag,
		Version:         s.cfg.Version,
		IssuedAt:        issued,
		ExpiresAt:       issued.Add(s.cfg.TTL),
	}
	qr, err := buildQR(t, s.cfg.Platform)
	if err != nil {
		return nil, err
	}
	t.QRData = qr
	return t, nil
}

func (s *Service) Get(ctx context.Context, bookingID types.ID) (*Token, error) {
	return s.store.GetByBooking(ctx, bookingID)
}

// Verify checks a presented token id against the booking's stored token. A
// malformed or tampered id is an error; every other outcome is a Result.
// Verification never mutates state.
func (s *Service) Verify(ctx context.Context, tokenID string, f Facts) (Result, error) {
	bookingPart, hashPart, err := splitID(tokenID)
	if err != nil {
		return Result{}, err
	}
	if bookingPart != f.BookingID.Short(8) {
		return Result{}, apperr.BadRequest("Token does not match this booking")
	}

	stored, err := s.store.GetByBooking(ctx, f.BookingID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Result{}, apperr.BadRequest("This booking does not have a verification token")
	}
	if err != nil {
		return Result{}, err
	}
	recomputed := bookingHash(stored.subject(), stored.IssuedAt, stored.Network, stored.Version)
	if recomputed != stored.BookingHash || hashPart != recomputed[:8] || stored.ID != tokenID {
		return Result{}, apperr.BadRequest("Token integrity check failed - possible tampering")
	}

	res := Result{
		Redeemed: f.Redeemed || stored.RedeemedAt != nil,
		Expired:  s.expired(stored),
		Token:    stored,
	}
	res.Verified = !res.Redeemed && !f.Cancelled && !res.Expired && f.PaymentConfirmed
	switch {
	case res.Redeemed:
		res.Reason = ReasonRedeemed
	case f.Cancelled:
		res.Reason = ReasonCancelled
	case res.Expired:
		res.Reason = ReasonExpired
	case !f.PaymentConfirmed:
		res.Reason = ReasonUnpaid
	default:
		res.Reason = ReasonValid
	}
	return res, nil
}

func (s *Service) expired(t *Token) bool {
	return s.clock.Now().Sub(t.IssuedAt) > s.cfg.TTL
}

func (s *Service) MarkRedeemed(ctx context.Context, bookingID types.ID, at time.Time) error {
	return s.store.MarkRedeemed(ctx, bookingID, at)
}

func (s *Service) ExplorerURL(t *Token) string {
	return ExplorerURL(t.TransactionHash, s.cfg.ExplorerNetwork)
}

// Settle simulates ledger confirmation: a short, cancellable delay and a mock block number.
func (s *Service) Settle(ctx context.Context) (Settlement, error) {
	if d := s.cfg.SettlementDelay; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Settlement{}, ctx.Err()
		case <-timer.C:
		}
	}
	n, err := rand.Int(s.entropy, big.NewInt(blockNumberRange))
	if err != nil {
		return Settlement{}, fmt.Errorf("block number: %w", err)
	}
	return Settlement{
		Confirmed:        true,
		BlockNumber:      blockNumberBase + n.Int64(),
		ConfirmationTime: s.cfg.SettlementDelay,
		GasUsed:          settlementGas,
		Status:           "success",
	}, nil
}
