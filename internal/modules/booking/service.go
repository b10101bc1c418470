// README: Booking service implements the booking state machine, seat accounting and boarding.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"openseat/internal/apperr"
	"openseat/internal/logger"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

// Trips is the slice of TripCatalog the ledger reads.
type Trips interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	Vehicle(ctx context.Context, id types.ID) (*trip.Vehicle, error)
}

// Directory resolves display names; unknown users come back as placeholders.
type Directory interface {
	Lookup(ctx context.Context, id types.ID) user.Profile
}

type Deps struct {
	Store     Store
	Trips     Trips
	Tokens    token.Issuer
	Users     Directory
	Locker    Locker
	Publisher Publisher
	Clock     types.Clock
	Log       *slog.Logger
}

type Service struct {
	store  Store
	trips  Trips
	tokens token.Issuer
	users  Directory
	locker Locker
	pub    Publisher
	clock  types.Clock
	log    *slog.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		store:  d.Store,
		trips:  d.Trips,
		tokens: d.Tokens,
		users:  d.Users,
		locker: d.Locker,
		pub:    d.Publisher,
		clock:  d.Clock,
		log:    logger.OrDiscard(d.Log),
	}
	if s.locker == nil {
		s.locker = NewMemoryLocker()
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.clock == nil {
		s.clock = types.SystemClock{}
	}
	return s
}

type CreateCommand struct {
	TripID      types.ID
	RiderID     types.ID
	Seats       int
	PickupStop  string
	DropoffStop string
}

type UpdateStatusCommand struct {
	BookingID types.ID
	Status    Status
	ActorID   types.ID
}

// Verification is the driver-facing scan result. It never changes state.
type Verification struct {
	Result    token.Result
	Detail    Detail
	RouteInfo string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.RiderID == "" || cmd.TripID == "" {
		return nil, apperr.BadRequest("trip and rider are required")
	}
	if cmd.Seats < MinSeats || cmd.Seats > MaxSeats {
		return nil, apperr.BadRequest("seats booked must be between %d and %d", MinSeats, MaxSeats)
	}
	t, err := s.trips.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.Status != trip.StatusActive {
		return nil, apperr.BadRequest("Route is not available for booking")
	}
	if cmd.Seats > t.AvailableSeats {
		return nil, apperr.BadRequest("Only %d seats available", t.AvailableSeats)
	}
	if t.DriverID == cmd.RiderID {
		return nil, apperr.BadRequest("You cannot book your own route")
	}

	pickup := strings.TrimSpace(cmd.PickupStop)
	if pickup == "" {
		pickup = t.StartLocation
	}
	dropoff := strings.TrimSpace(cmd.DropoffStop)
	if dropoff == "" {
		dropoff = t.EndLocation
	}

	now := s.clock.Now()
	b := &Booking{
		ID:            types.NewID(),
		TripID:        t.ID,
		RiderID:       cmd.RiderID,
		SeatsBooked:   cmd.Seats,
		TotalAmount:   t.PricePerSeat.Times(cmd.Seats),
		PickupStop:    pickup,
		DropoffStop:   dropoff,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	logger.Action(s.log, "create_booking").Info("booking created",
		"booking_id", b.ID, "trip_id", b.TripID, "seats", b.SeatsBooked, "amount", b.TotalAmount.String())
	s.publish(ctx, EventCreated, b, "", cmd.RiderID)
	return b, nil
}

// Get returns a booking to its rider or to the trip's driver.
func (s *Service) Get(ctx context.Context, id, userID types.ID) (*Booking, error) {
	b, _, err := s.visible(ctx, id, userID)
	return b, err
}

func (s *Service) visible(ctx context.Context, id, userID types.ID) (*Booking, *trip.Trip, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.trips.Get(ctx, b.TripID)
	if err != nil {
		return nil, nil, err
	}
	if b.RiderID != userID && t.DriverID != userID {
		return nil, nil, apperr.Forbidden("You do not have access to this booking")
	}
	return b, t, nil
}

// Lookup loads a booking without access checks, for trusted collaborators.
func (s *Service) Lookup(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Detail(ctx context.Context, id, userID types.ID) (*Detail, error) {
	b, t, err := s.visible(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	d := s.detail(ctx, b, t)
	return &d, nil
}

func (s *Service) detail(ctx context.Context, b *Booking, t *trip.Trip) Detail {
	driver := s.users.Lookup(ctx, t.DriverID)
	d := Detail{
		Booking:     b,
		RiderName:   s.users.Lookup(ctx, b.RiderID).Name,
		DriverName:  driver.Name,
		DriverPhone: driver.Phone,
		From:        t.StartLocation,
		To:          t.EndLocation,
		Departure:   t.DepartureDate.Format("2006-01-02") + " " + t.DepartureTime,
	}
	if v, err := s.trips.Vehicle(ctx, t.VehicleID); err == nil {
		d.VehicleInfo = v.Description()
	}
	return d
}

func (s *Service) ListRider(ctx context.Context, riderID types.ID) ([]*Booking, error) {
	return s.store.ListByRider(ctx, riderID)
}

func (s *Service) ListTrip(ctx context.Context, tripID, driverID types.ID) ([]*Booking, error) {
	t, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.DriverID != driverID {
		return nil, apperr.NotFound("Trip not found")
	}
	return s.store.ListByTrip(ctx, tripID)
}

// withLock runs fn while holding the booking's transition lock.
func (s *Service) withLock(ctx context.Context, id types.ID, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, "booking:"+string(id))
	if err != nil {
		return fmt.Errorf("lock booking %s: %w", id, err)
	}
	defer unlock()
	return fn()
}

// Confirm records a successful payment, reserves the booking's seats and
// issues its token. Confirming an already confirmed booking succeeds without
// side effects.
func (s *Service) Confirm(ctx context.Context, id types.ID) (*Booking, error) {
	var out *Booking
	err := s.withLock(ctx, id, func() error {
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		out, err = s.confirmLocked(ctx, b, true)
		return err
	})
	return out, err
}

// confirmLocked moves the booking to CONFIRMED. Only a settled payment sets
// payment_status; a manual confirm leaves it as is.
func (s *Service) confirmLocked(ctx context.Context, b *Booking, paid bool) (*Booking, error) {
	log := logger.Action(s.log, "confirm_booking").With("booking_id", b.ID, "trip_id", b.TripID)
	switch b.Status {
	case StatusConfirmed:
		if paid && b.PaymentStatus != PaymentSuccessful {
			ps := PaymentSuccessful
			next, err := s.store.Transition(ctx, Transition{
				BookingID:     b.ID,
				TripID:        b.TripID,
				From:          StatusConfirmed,
				To:            StatusConfirmed,
				PaymentStatus: &ps,
				At:            s.clock.Now(),
			})
			if err != nil {
				log.Warn("payment record failed", logger.Err(err))
				return nil, err
			}
			log.Info("payment recorded on confirmed booking")
			b = next
		}
		if b.TokenID != "" {
			return b, nil
		}
		return s.bindToken(ctx, b)
	case StatusCancelled:
		log.Warn("confirm rejected", "status", b.Status)
		return nil, apperr.BadRequest("Booking is already cancelled")
	case StatusCompleted:
		log.Warn("confirm rejected", "status", b.Status)
		return nil, apperr.BadRequest("Booking is already completed")
	}

	tr := Transition{
		BookingID: b.ID,
		TripID:    b.TripID,
		From:      b.Status,
		To:        StatusConfirmed,
		SeatDelta: seatDelta(b.Status, StatusConfirmed, b.SeatsBooked),
		At:        s.clock.Now(),
	}
	if paid {
		ps := PaymentSuccessful
		tr.PaymentStatus = &ps
	}
	next, err := s.store.Transition(ctx, tr)
	if err != nil {
		log.Warn("confirm failed", logger.Err(err))
		return nil, err
	}
	log.Info("booking confirmed", "from", b.Status, "to", next.Status, "seat_delta", -b.SeatsBooked)
	s.publish(ctx, EventConfirmed, next, b.Status, "")
	return s.bindToken(ctx, next)
}

// bindToken issues the booking's token (idempotent) and records its id.
func (s *Service) bindToken(ctx context.Context, b *Booking) (*Booking, error) {
	tok, err := s.tokens.Issue(ctx, token.Subject{
		BookingID: b.ID,
		TripID:    b.TripID,
		RiderID:   b.RiderID,
		Amount:    b.TotalAmount,
	})
	if err != nil {
		s.log.Error("token issuance failed", "booking_id", b.ID, logger.Err(err))
		return b, fmt.Errorf("issue token: %w", err)
	}
	next, err := s.store.Transition(ctx, Transition{
		BookingID: b.ID,
		TripID:    b.TripID,
		From:      StatusConfirmed,
		To:        StatusConfirmed,
		TokenID:   &tok.ID,
		At:        s.clock.Now(),
	})
	if err != nil {
		return b, fmt.Errorf("bind token: %w", err)
	}
	return next, nil
}

// Cancel is available to the booking's rider only. Seats held by a confirmed
// booking go back to the trip.
func (s *Service) Cancel(ctx context.Context, id, requester types.ID) (*Booking, error) {
	var out *Booking
	err := s.withLock(ctx, id, func() error {
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.RiderID != requester {
			return apperr.Forbidden("Only the rider can cancel this booking")
		}
		out, err = s.cancelLocked(ctx, b, requester)
		return err
	})
	return out, err
}

func (s *Service) cancelLocked(ctx context.Context, b *Booking, actor types.ID) (*Booking, error) {
	log := logger.Action(s.log, "cancel_booking").With("booking_id", b.ID, "trip_id", b.TripID)
	switch b.Status {
	case StatusCancelled:
		return nil, apperr.BadRequest("Booking is already cancelled")
	case StatusCompleted:
		log.Warn("cancel rejected", "status", b.Status)
		return nil, apperr.BadRequest("Completed bookings cannot be cancelled")
	}
	delta := seatDelta(b.Status, StatusCancelled, b.SeatsBooked)
	next, err := s.store.Transition(ctx, Transition{
		BookingID: b.ID,
		TripID:    b.TripID,
		From:      b.Status,
		To:        StatusCancelled,
		SeatDelta: delta,
		At:        s.clock.Now(),
	})
	if err != nil {
		log.Warn("cancel failed", logger.Err(err))
		return nil, err
	}
	log.Info("booking cancelled", "from", b.Status, "to", next.Status, "seat_delta", delta)
	s.publish(ctx, EventCancelled, next, b.Status, actor)
	return next, nil
}

// UpdateStatus is the generic status edit open to the rider and the trip's
// driver. It shares side effects with Confirm, Cancel and Redeem.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Booking, error) {
	var out *Booking
	err := s.withLock(ctx, cmd.BookingID, func() error {
		b, err := s.store.Get(ctx, cmd.BookingID)
		if err != nil {
			return err
		}
		t, err := s.trips.Get(ctx, b.TripID)
		if err != nil {
			return err
		}
		isDriver := t.DriverID == cmd.ActorID
		if b.RiderID != cmd.ActorID && !isDriver {
			return apperr.Forbidden("You don't have permission to update this booking")
		}
		if !CanTransition(b.Status, cmd.Status) {
			return apperr.BadRequest("Cannot change booking status from %s to %s", b.Status, cmd.Status)
		}

		switch cmd.Status {
		case StatusConfirmed:
			if !isDriver {
				return apperr.Forbidden("Only the driver can confirm a booking manually")
			}
			out, err = s.confirmLocked(ctx, b, false)
		case StatusCancelled:
			out, err = s.cancelLocked(ctx, b, cmd.ActorID)
		case StatusCompleted:
			if !isDriver {
				return apperr.Forbidden("Only the driver can complete a booking")
			}
			var r *Receipt
			if r, err = s.redeemLocked(ctx, b, t); err == nil {
				out, err = s.store.Get(ctx, r.BookingID)
			}
		}
		return err
	})
	return out, err
}

// Redeem boards the rider. It requires the trip's driver, a confirmed and
// paid booking and an unexpired token.
func (s *Service) Redeem(ctx context.Context, id, driverID types.ID) (*Receipt, error) {
	var out *Receipt
	err := s.withLock(ctx, id, func() error {
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		t, err := s.trips.Get(ctx, b.TripID)
		if err != nil {
			return err
		}
		if t.DriverID != driverID {
			return apperr.Forbidden("Only the trip's driver can redeem this booking")
		}
		out, err = s.redeemLocked(ctx, b, t)
		return err
	})
	return out, err
}

func (s *Service) redeemLocked(ctx context.Context, b *Booking, t *trip.Trip) (*Receipt, error) {
	log := logger.Action(s.log, "redeem_booking").With("booking_id", b.ID, "trip_id", t.ID)
	if b.Redeemed() || b.Status == StatusCompleted {
		log.Warn("redeem rejected", "reason", "already redeemed")
		return nil, apperr.BadRequest("Token already redeemed")
	}
	if b.Status != StatusConfirmed {
		log.Warn("redeem rejected", "status", b.Status)
		return nil, apperr.BadRequest("Booking must be confirmed before boarding")
	}
	if b.PaymentStatus != PaymentSuccessful {
		log.Warn("redeem rejected", "payment_status", b.PaymentStatus)
		return nil, apperr.BadRequest("Payment not confirmed")
	}
	if b.TokenID == "" {
		return nil, apperr.BadRequest("This booking does not have a verification token")
	}
	res, err := s.tokens.Verify(ctx, b.TokenID, s.facts(b))
	if err != nil {
		return nil, err
	}
	if res.Expired {
		log.Warn("redeem rejected", "reason", "expired")
		return nil, apperr.BadRequest("Token has expired")
	}

	now := s.clock.Now()
	next, err := s.store.Transition(ctx, Transition{
		BookingID:  b.ID,
		TripID:     b.TripID,
		From:       StatusConfirmed,
		To:         StatusCompleted,
		RedeemedAt: &now,
		At:         now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.tokens.MarkRedeemed(ctx, b.ID, now); err != nil {
		log.Error("mirror redemption on token failed", logger.Err(err))
	}
	log.Info("booking redeemed", "from", b.Status, "to", next.Status)
	s.publish(ctx, EventCompleted, next, b.Status, t.DriverID)
	return &Receipt{
		BookingID:   next.ID,
		RiderName:   s.users.Lookup(ctx, next.RiderID).Name,
		SeatsBooked: next.SeatsBooked,
		RedeemedAt:  now,
	}, nil
}

// Verify checks the booking's bound token for a boarding scan.
func (s *Service) Verify(ctx context.Context, id types.ID) (*Verification, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.trips.Get(ctx, b.TripID)
	if err != nil {
		return nil, err
	}
	if b.TokenID == "" {
		return nil, apperr.BadRequest("This booking does not have a verification token")
	}
	res, err := s.tokens.Verify(ctx, b.TokenID, s.facts(b))
	if err != nil {
		return nil, err
	}
	return &Verification{
		Result:    res,
		Detail:    s.detail(ctx, b, t),
		RouteInfo: fmt.Sprintf("%s to %s - %s", t.StartLocation, t.EndLocation, t.DepartureTime),
	}, nil
}

// VerifyToken checks a token id presented by a scanner against its booking.
func (s *Service) VerifyToken(ctx context.Context, id types.ID, tokenID string) (token.Result, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return token.Result{}, err
	}
	return s.tokens.Verify(ctx, tokenID, s.facts(b))
}

func (s *Service) facts(b *Booking) token.Facts {
	return token.Facts{
		BookingID:        b.ID,
		Redeemed:         b.Redeemed() || b.Status == StatusCompleted,
		Cancelled:        b.Status == StatusCancelled,
		PaymentConfirmed: b.PaymentStatus == PaymentSuccessful,
	}
}

// MarkPaymentPending records that a payment attempt has started.
func (s *Service) MarkPaymentPending(ctx context.Context, id types.ID) (*Booking, error) {
	return s.setPayment(ctx, id, PaymentPending)
}

// MarkPaymentFailed records a failed attempt; the booking stays PENDING and
// the rider may retry.
func (s *Service) MarkPaymentFailed(ctx context.Context, id types.ID) (*Booking, error) {
	return s.setPayment(ctx, id, PaymentFailed)
}

func (s *Service) setPayment(ctx context.Context, id types.ID, ps PaymentStatus) (*Booking, error) {
	var out *Booking
	err := s.withLock(ctx, id, func() error {
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !b.AwaitsPayment() {
			return apperr.BadRequest("Booking is %s and no longer awaits payment", b.Status)
		}
		out, err = s.store.Transition(ctx, Transition{
			BookingID:     b.ID,
			TripID:        b.TripID,
			From:          b.Status,
			To:            b.Status,
			PaymentStatus: &ps,
			At:            s.clock.Now(),
		})
		if err != nil {
			return err
		}
		logger.Action(s.log, "booking_payment").Info("payment status updated", "booking_id", b.ID, "payment_status", ps)
		if ps == PaymentFailed {
			s.publish(ctx, EventPayFailed, out, b.Status, "")
		}
		return nil
	})
	return out, err
}

func (s *Service) publish(ctx context.Context, typ EventType, b *Booking, from Status, actor types.ID) {
	ev := Event{
		Type:       typ,
		BookingID:  b.ID,
		TripID:     b.TripID,
		RiderID:    b.RiderID,
		FromStatus: from,
		ToStatus:   b.Status,
		Seats:      b.SeatsBooked,
		ActorID:    actor,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.pub.Publish(ctx, string(typ), ev); err != nil {
		s.log.Error("publish booking event failed", "event", typ, "booking_id", b.ID, logger.Err(err))
	}
}
