// README: Payment service drives checkout, gateway callbacks and booking confirmation.
package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"openseat/internal/apperr"
	"openseat/internal/logger"
	"openseat/internal/modules/booking"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

// Ledger is the part of the booking ledger the payment flow drives.
type Ledger interface {
	Lookup(ctx context.Context, id types.ID) (*booking.Booking, error)
	Get(ctx context.Context, id, userID types.ID) (*booking.Booking, error)
	Confirm(ctx context.Context, id types.ID) (*booking.Booking, error)
	MarkPaymentPending(ctx context.Context, id types.ID) (*booking.Booking, error)
	MarkPaymentFailed(ctx context.Context, id types.ID) (*booking.Booking, error)
}

// Provider is the hosted checkout the rider is redirected to.
type Provider interface {
	Gateway
	Params(txnRef string, amountKobo int64, customerID, customerName string) PayParams
	VerifySignature(txnRef string, amountKobo int64, signature string) bool
}

type Directory interface {
	Lookup(ctx context.Context, id types.ID) user.Profile
}

type Service struct {
	store    Store
	bookings Ledger
	provider Provider
	users    Directory
	clock    types.Clock
	entropy  io.Reader
	log      *slog.Logger
}

func NewService(store Store, bookings Ledger, provider Provider, users Directory, clock types.Clock, log *slog.Logger) *Service {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Service{
		store:    store,
		bookings: bookings,
		provider: provider,
		users:    users,
		clock:    clock,
		entropy:  defaultEntropy,
		log:      logger.OrDiscard(log),
	}
}

type InitiateCommand struct {
	BookingID types.ID
	RiderID   types.ID
	Amount    types.Money
	Method    string
}

func amountsMatch(a, b types.Money) bool {
	return math.Abs(a.Major()-b.Major()) <= amountTolerance
}

// Initiate starts a checkout for one of the rider's unpaid bookings.
func (s *Service) Initiate(ctx context.Context, cmd InitiateCommand) (*Initiated, error) {
	b, err := s.bookings.Lookup(ctx, cmd.BookingID)
	if err != nil || b.RiderID != cmd.RiderID {
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.NotFound("Booking not found")
	}

	existing, err := s.store.GetByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == StatusSuccessful {
		return nil, apperr.BadRequest("Payment already completed for this booking")
	}
	if !b.AwaitsPayment() {
		return nil, apperr.BadRequest("Booking is %s and cannot be paid", b.Status)
	}
	if !amountsMatch(cmd.Amount, b.TotalAmount) {
		return nil, apperr.BadRequest("Payment amount doesn't match booking amount")
	}

	now := s.clock.Now()
	ref, err := NewTransactionRef(now, s.entropy)
	if err != nil {
		return nil, err
	}
	method := cmd.Method
	if method == "" {
		method = "card"
	}
	p := &Payment{
		ID:             types.NewID(),
		BookingID:      b.ID,
		Amount:         b.TotalAmount,
		TransactionRef: ref,
		Status:         StatusPending,
		Method:         method,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing != nil {
		p.ID, p.CreatedAt = existing.ID, existing.CreatedAt
	}

	if _, err := s.bookings.MarkPaymentPending(ctx, b.ID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	rider := s.users.Lookup(ctx, cmd.RiderID)
	params := s.provider.Params(ref, p.Amount.Amount, string(cmd.RiderID), rider.Name)
	logger.Action(s.log, "initiate_payment").Info("payment initiated",
		"booking_id", b.ID, "payment_id", p.ID, "txn_ref", ref, "amount", p.Amount.String())
	return &Initiated{Payment: p, Params: params}, nil
}

// HandleCallback applies a gateway outcome. Repeated successful callbacks
// are harmless.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (*Payment, error) {
	p, err := s.store.GetByRef(ctx, cb.TransactionRef)
	if err != nil {
		return nil, err
	}
	log := logger.Action(s.log, "payment_callback").With("booking_id", p.BookingID, "txn_ref", p.TransactionRef)
	if !amountsMatch(cb.Amount, p.Amount) {
		log.Warn("callback amount mismatch", "claimed", cb.Amount.String(), "expected", p.Amount.String())
		return nil, apperr.BadRequest("Payment amount doesn't match booking amount")
	}

	now := s.clock.Now()
	switch cb.Outcome {
	case OutcomeSuccessful:
		if p.Status != StatusSuccessful {
			if err := s.store.UpdateStatus(ctx, p.ID, StatusSuccessful, cb.ProviderRef, now); err != nil {
				return nil, err
			}
			p.Status, p.UpdatedAt = StatusSuccessful, now
			if cb.ProviderRef != "" {
				p.ProviderRef = cb.ProviderRef
			}
			log.Info("payment successful")
		}
		if _, err := s.bookings.Confirm(ctx, p.BookingID); err != nil {
			log.Error("paid booking could not be confirmed", logger.Err(err))
			return p, err
		}
		return p, nil

	case OutcomeFailed:
		if p.Status == StatusSuccessful {
			return nil, apperr.BadRequest("Payment already completed for this booking")
		}
		if err := s.store.UpdateStatus(ctx, p.ID, StatusFailed, cb.ProviderRef, now); err != nil {
			return nil, err
		}
		p.Status, p.UpdatedAt = StatusFailed, now
		if _, err := s.bookings.MarkPaymentFailed(ctx, p.BookingID); err != nil {
			log.Warn("booking not marked failed", logger.Err(err))
		}
		log.Info("payment failed")
		return p, nil
	}
	return nil, apperr.BadRequest("unknown payment outcome %q", cb.Outcome)
}

// HandleWebhook maps a provider notification onto a callback. Response code
// "00" is success. A signature, when sent, must match.
func (s *Service) HandleWebhook(ctx context.Context, w Webhook, signature string) (*Payment, error) {
	ref := w.ref()
	if ref == "" {
		return nil, apperr.BadRequest("Missing transaction reference in webhook data")
	}
	p, err := s.store.GetByRef(ctx, ref)
	if err != nil {
		return nil, apperr.NotFound("Payment not found for transaction: %s", ref)
	}
	amount := p.Amount
	if w.AmountKobo > 0 {
		amount = types.Money{Amount: w.AmountKobo, Currency: p.Amount.Currency}
	}
	if signature != "" && !s.provider.VerifySignature(ref, amount.Amount, signature) {
		logger.Action(s.log, "payment_webhook").Warn("webhook signature mismatch", "txn_ref", ref)
		return nil, apperr.Forbidden("Invalid webhook signature")
	}
	outcome := OutcomeFailed
	if w.code() == "00" {
		outcome = OutcomeSuccessful
	}
	return s.HandleCallback(ctx, Callback{TransactionRef: ref, Amount: amount, Outcome: outcome, ProviderRef: w.providerRef()})
}

// VerifyTransaction queries the provider. Network failures count as a failed
// attempt: the booking stays PENDING and the rider can retry.
func (s *Service) VerifyTransaction(ctx context.Context, txnRef string) (*Verification, error) {
	p, err := s.store.GetByRef(ctx, txnRef)
	if err != nil {
		return nil, err
	}
	v := &Verification{TransactionRef: txnRef, Amount: p.Amount}

	st, err := s.provider.Query(ctx, txnRef, p.Amount.Amount)
	if err != nil {
		s.log.Warn("transaction query failed", "txn_ref", txnRef, logger.Err(err))
		v.Outcome = OutcomeFailed
		v.Error = "Network error: " + err.Error()
		if p.Status != StatusSuccessful {
			if _, err := s.HandleCallback(ctx, Callback{TransactionRef: txnRef, Amount: p.Amount, Outcome: OutcomeFailed}); err != nil {
				return nil, err
			}
		}
		return v, nil
	}

	v.Verified = true
	v.ResponseCode = st.ResponseCode
	v.ResponseDescription = st.ResponseDescription
	v.ProviderRef = st.PaymentReference
	if v.ProviderRef == "" && len(txnRef) >= 12 {
		v.ProviderRef = "ISW-" + txnRef[len(txnRef)-12:]
	}
	if st.Amount > 0 {
		v.Amount = types.Money{Amount: st.Amount, Currency: p.Amount.Currency}
	}
	v.Outcome = OutcomeFailed
	if st.Successful() {
		v.Outcome = OutcomeSuccessful
	}
	if v.Outcome == OutcomeFailed && p.Status == StatusSuccessful {
		return v, nil
	}
	if _, err := s.HandleCallback(ctx, Callback{TransactionRef: txnRef, Amount: v.Amount, Outcome: v.Outcome, ProviderRef: v.ProviderRef}); err != nil {
		return v, err
	}
	return v, nil
}

// ForBooking returns the booking's payment to its rider or driver.
func (s *Service) ForBooking(ctx context.Context, bookingID, userID types.ID) (*Payment, error) {
	if _, err := s.bookings.Get(ctx, bookingID, userID); err != nil {
		return nil, err
	}
	p, err := s.store.GetByBooking(ctx, bookingID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("Payment not found for this booking")
	}
	return p, err
}
