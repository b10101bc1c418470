// README: Booking service tests (state machine, seat accounting, boarding).
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/config"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

var testNow = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

const testDriver types.ID = "driver-1"

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, v.(Event))
	return nil
}

func (p *recordingPublisher) kinds() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    *Service
	trips  *trip.Service
	store  *MemoryStore
	tokens *token.Service
	users  *user.Service
	clock  *types.FixedClock
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := types.NewFixedClock(testNow)
	tripStore := trip.NewMemoryStore(clock)
	store := NewMemoryStore(tripStore)
	tripStore.SetBookingProbe(store.HasTrip)

	f := &fixture{
		trips:  trip.NewService(tripStore, clock, nil),
		store:  store,
		tokens: token.NewService(token.NewMemoryStore(), config.TokenConfig{}, clock, nil),
		users:  user.NewService(user.NewMemoryStore(), clock, nil),
		clock:  clock,
		pub:    &recordingPublisher{},
	}
	f.svc = NewService(Deps{
		Store:     store,
		Trips:     f.trips,
		Tokens:    f.tokens,
		Users:     f.users,
		Publisher: f.pub,
		Clock:     clock,
	})
	ctx := context.Background()
	if _, err := f.users.Update(ctx, user.UpdateCommand{UserID: testDriver, Name: "Tunde Bakare", Phone: "+2348011111111", Role: user.RoleDriver}); err != nil {
		t.Fatalf("driver profile: %v", err)
	}
	if _, err := f.users.Update(ctx, user.UpdateCommand{UserID: "rider-1", Name: "Ada Obi"}); err != nil {
		t.Fatalf("rider profile: %v", err)
	}
	return f
}

func (f *fixture) trip(t *testing.T, seats int, price float64) *trip.Trip {
	t.Helper()
	ctx := context.Background()
	v, err := f.trips.RegisterVehicle(ctx, trip.VehicleCommand{
		DriverID: testDriver, Make: "Toyota", Model: "Sienna", Color: "Silver", PlateNumber: "lnd-" + types.NewID().Short(6), TotalSeats: 7,
	})
	if err != nil {
		t.Fatalf("vehicle: %v", err)
	}
	tr, err := f.trips.Create(ctx, trip.CreateCommand{
		DriverID:      testDriver,
		VehicleID:     v.ID,
		StartLocation: "Ikeja",
		EndLocation:   "VI",
		Stops:         []string{"Ikeja", "Oshodi", "Obalende", "VI"},
		DepartureDate: testNow,
		DepartureTime: "07:30",
		Seats:         seats,
		PricePerSeat:  types.FromMajor(price, types.CurrencyNGN),
	})
	if err != nil {
		t.Fatalf("trip: %v", err)
	}
	return tr
}

func (f *fixture) book(t *testing.T, tripID, rider types.ID, seats int) *Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), CreateCommand{TripID: tripID, RiderID: rider, Seats: seats})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func (f *fixture) available(t *testing.T, tripID types.ID) int {
	t.Helper()
	tr, err := f.trips.Get(context.Background(), tripID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	return tr.AvailableSeats
}

// assertSeatInvariant checks available + held seats == total.
func (f *fixture) assertSeatInvariant(t *testing.T, tripID types.ID) {
	t.Helper()
	ctx := context.Background()
	tr, err := f.trips.Get(ctx, tripID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	bookings, err := f.store.ListByTrip(ctx, tripID)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	held := 0
	for _, b := range bookings {
		if b.Status == StatusConfirmed || b.Status == StatusCompleted {
			held += b.SeatsBooked
		}
	}
	if tr.AvailableSeats+held != tr.TotalSeats || tr.AvailableSeats < 0 {
		t.Fatalf("seat invariant broken: available=%d held=%d total=%d", tr.AvailableSeats, held, tr.TotalSeats)
	}
}

func wantBadRequest(t *testing.T, err error, msg string) {
	t.Helper()
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request %q, got %v", msg, err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf("message %q does not contain %q", err.Error(), msg)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s)=%v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreateComputesAmountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 5, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)

	if b.TotalAmount != types.FromMajor(3000, types.CurrencyNGN) {
		t.Fatalf("total=%s", b.TotalAmount)
	}
	if b.Status != StatusPending || b.PaymentStatus != PaymentPending {
		t.Fatalf("unexpected initial state %s/%s", b.Status, b.PaymentStatus)
	}
	if b.PickupStop != "Ikeja" || b.DropoffStop != "VI" {
		t.Fatalf("stops default to trip endpoints, got %s -> %s", b.PickupStop, b.DropoffStop)
	}
	if f.available(t, tr.ID) != 5 {
		t.Fatal("creating a booking must not reserve seats")
	}

	price := types.FromMajor(2500, types.CurrencyNGN)
	if _, err := f.trips.Update(ctx, trip.UpdateCommand{TripID: tr.ID, DriverID: testDriver, PricePerSeat: &price}); err != nil {
		t.Fatalf("update price: %v", err)
	}
	got, err := f.svc.Get(ctx, b.ID, "rider-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAmount.String() != "3000.00 NGN" {
		t.Fatalf("total changed after price edit: %s", got.TotalAmount)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 3, 1500)

	_, err := f.svc.Create(ctx, CreateCommand{TripID: tr.ID, RiderID: "rider-1", Seats: 4})
	wantBadRequest(t, err, "Only 3 seats available")
	if list, _ := f.svc.ListRider(ctx, "rider-1"); len(list) != 0 {
		t.Fatalf("rejected booking was persisted: %d", len(list))
	}

	_, err = f.svc.Create(ctx, CreateCommand{TripID: tr.ID, RiderID: testDriver, Seats: 1})
	wantBadRequest(t, err, "You cannot book your own route")

	for _, seats := range []int{0, 8} {
		_, err = f.svc.Create(ctx, CreateCommand{TripID: tr.ID, RiderID: "rider-1", Seats: seats})
		wantBadRequest(t, err, "between 1 and 7")
	}

	if _, err := f.svc.Create(ctx, CreateCommand{TripID: "missing", RiderID: "rider-1", Seats: 1}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	cancelled := trip.StatusCancelled
	if _, err := f.trips.Update(ctx, trip.UpdateCommand{TripID: tr.ID, DriverID: testDriver, Status: &cancelled}); err != nil {
		t.Fatalf("cancel trip: %v", err)
	}
	_, err = f.svc.Create(ctx, CreateCommand{TripID: tr.ID, RiderID: "rider-1", Seats: 1})
	wantBadRequest(t, err, "not available")
}

func TestConfirmReservesSeatsAndIssuesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)

	got, err := f.svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != StatusConfirmed || got.PaymentStatus != PaymentSuccessful {
		t.Fatalf("unexpected state %s/%s", got.Status, got.PaymentStatus)
	}
	if !strings.HasPrefix(got.TokenID, "SEAT-"+b.ID.Short(8)+"-") {
		t.Fatalf("token id=%q", got.TokenID)
	}
	if f.available(t, tr.ID) != 5 {
		t.Fatalf("available=%d", f.available(t, tr.ID))
	}

	again, err := f.svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm again: %v", err)
	}
	if again.TokenID != got.TokenID || f.available(t, tr.ID) != 5 {
		t.Fatalf("repeat confirm had side effects: token=%s available=%d", again.TokenID, f.available(t, tr.ID))
	}
	f.assertSeatInvariant(t, tr.ID)
}

func TestCancelConfirmedRestoresSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)
	if _, err := f.svc.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if f.available(t, tr.ID) != 5 {
		t.Fatalf("available=%d", f.available(t, tr.ID))
	}

	if _, err := f.svc.Cancel(ctx, b.ID, testDriver); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("driver cancel should be forbidden, got %v", err)
	}

	got, err := f.svc.Cancel(ctx, b.ID, "rider-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled || f.available(t, tr.ID) != 7 {
		t.Fatalf("status=%s available=%d", got.Status, f.available(t, tr.ID))
	}

	_, err = f.svc.Cancel(ctx, b.ID, "rider-1")
	wantBadRequest(t, err, "Booking is already cancelled")
	_, err = f.svc.Confirm(ctx, b.ID)
	wantBadRequest(t, err, "already cancelled")
	f.assertSeatInvariant(t, tr.ID)
}

func TestCancelPendingLeavesSeats(t *testing.T) {
	f := newFixture(t)
	tr := f.trip(t, 4, 1000)
	b := f.book(t, tr.ID, "rider-1", 3)
	if _, err := f.svc.Cancel(context.Background(), b.ID, "rider-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.available(t, tr.ID) != 4 {
		t.Fatalf("available=%d", f.available(t, tr.ID))
	}
}

func TestRedeemOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)
	if _, err := f.svc.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.clock.Advance(time.Hour)

	r, err := f.svc.Redeem(ctx, b.ID, testDriver)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if r.RiderName != "Ada Obi" || r.SeatsBooked != 2 || !r.RedeemedAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("receipt %+v", r)
	}
	got, _ := f.svc.Get(ctx, b.ID, testDriver)
	if got.Status != StatusCompleted || got.RedeemedAt == nil {
		t.Fatalf("status=%s redeemedAt=%v", got.Status, got.RedeemedAt)
	}

	_, err = f.svc.Redeem(ctx, b.ID, testDriver)
	wantBadRequest(t, err, "already redeemed")
	after, _ := f.svc.Get(ctx, b.ID, testDriver)
	if after.Status != StatusCompleted || after.StatusVersion != got.StatusVersion {
		t.Fatal("failed redeem changed state")
	}

	tok, err := f.tokens.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok.RedeemedAt == nil {
		t.Fatal("redemption not mirrored on token")
	}
	if f.available(t, tr.ID) != 5 {
		t.Fatalf("completion must keep seats held, available=%d", f.available(t, tr.ID))
	}
	f.assertSeatInvariant(t, tr.ID)
}

func TestRedeemPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)

	pending := f.book(t, tr.ID, "rider-1", 1)
	if _, err := f.svc.Redeem(ctx, pending.ID, "someone-else"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err := f.svc.Redeem(ctx, pending.ID, testDriver)
	wantBadRequest(t, err, "must be confirmed")

	unpaid := f.book(t, tr.ID, "rider-2", 1)
	failed := PaymentFailed
	if _, err := f.store.Transition(ctx, Transition{
		BookingID: unpaid.ID, TripID: tr.ID, From: StatusPending, To: StatusConfirmed,
		SeatDelta: -1, PaymentStatus: &failed, At: testNow,
	}); err != nil {
		t.Fatalf("force confirm: %v", err)
	}
	_, err = f.svc.Redeem(ctx, unpaid.ID, testDriver)
	wantBadRequest(t, err, "Payment not confirmed")

	stale := f.book(t, tr.ID, "rider-3", 1)
	if _, err := f.svc.Confirm(ctx, stale.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.clock.Advance(24*time.Hour + time.Second)
	_, err = f.svc.Redeem(ctx, stale.ID, testDriver)
	wantBadRequest(t, err, "Token has expired")
	got, _ := f.svc.Get(ctx, stale.ID, "rider-3")
	if got.Status != StatusConfirmed {
		t.Fatalf("expired redeem changed status to %s", got.Status)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)

	if _, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusConfirmed, ActorID: "stranger"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("stranger: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusConfirmed, ActorID: "rider-1"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("rider self-confirm: %v", err)
	}
	_, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusCompleted, ActorID: testDriver})
	wantBadRequest(t, err, "Cannot change booking status from PENDING to COMPLETED")

	got, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusConfirmed, ActorID: testDriver})
	if err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if got.Status != StatusConfirmed || got.TokenID == "" || f.available(t, tr.ID) != 5 {
		t.Fatalf("status=%s token=%q available=%d", got.Status, got.TokenID, f.available(t, tr.ID))
	}

	got, err = f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusCancelled, ActorID: testDriver})
	if err != nil {
		t.Fatalf("driver cancel: %v", err)
	}
	if got.Status != StatusCancelled || f.available(t, tr.ID) != 7 {
		t.Fatalf("status=%s available=%d", got.Status, f.available(t, tr.ID))
	}

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusPending, ActorID: "rider-1"})
	wantBadRequest(t, err, "Cannot change booking status")
	f.assertSeatInvariant(t, tr.ID)
}

func TestUpdateStatusCompleteUsesRedeemRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 1)
	if _, err := f.svc.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusCompleted, ActorID: testDriver})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted || got.RedeemedAt == nil {
		t.Fatalf("status=%s redeemedAt=%v", got.Status, got.RedeemedAt)
	}
}

func TestManualConfirmKeepsPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 1)
	if _, err := f.svc.MarkPaymentFailed(ctx, b.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{BookingID: b.ID, Status: StatusConfirmed, ActorID: testDriver})
	if err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if got.Status != StatusConfirmed || got.PaymentStatus != PaymentFailed || got.TokenID == "" {
		t.Fatalf("status=%s payment=%s token=%q", got.Status, got.PaymentStatus, got.TokenID)
	}
	if f.available(t, tr.ID) != 6 {
		t.Fatalf("available=%d", f.available(t, tr.ID))
	}

	v, err := f.svc.Verify(ctx, b.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Result.Verified || v.Result.Reason != token.ReasonUnpaid {
		t.Fatalf("unpaid booking verified: %+v", v.Result)
	}
	_, err = f.svc.Redeem(ctx, b.ID, testDriver)
	wantBadRequest(t, err, "Payment not confirmed")

	// A settled payment afterwards records the payment without moving seats again.
	paid, err := f.svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if paid.PaymentStatus != PaymentSuccessful || paid.TokenID != got.TokenID || f.available(t, tr.ID) != 6 {
		t.Fatalf("payment=%s token=%q available=%d", paid.PaymentStatus, paid.TokenID, f.available(t, tr.ID))
	}
	if _, err := f.svc.Redeem(ctx, b.ID, testDriver); err != nil {
		t.Fatalf("redeem after payment: %v", err)
	}
	f.assertSeatInvariant(t, tr.ID)
}

func TestCancelledBookingTokenDoesNotBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)
	confirmed, err := f.svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, b.ID, "rider-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.available(t, tr.ID) != 7 {
		t.Fatalf("available=%d", f.available(t, tr.ID))
	}

	v, err := f.svc.Verify(ctx, b.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Result.Verified || v.Result.Reason != token.ReasonCancelled {
		t.Fatalf("cancelled booking verified: %+v", v.Result)
	}
	res, err := f.svc.VerifyToken(ctx, b.ID, confirmed.TokenID)
	if err != nil || res.Verified {
		t.Fatalf("verify token: %+v %v", res, err)
	}
	_, err = f.svc.Redeem(ctx, b.ID, testDriver)
	wantBadRequest(t, err, "must be confirmed")
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 1)

	if _, err := f.svc.Get(ctx, b.ID, "stranger"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	d, err := f.svc.Detail(ctx, b.ID, testDriver)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.RiderName != "Ada Obi" || d.DriverName != "Tunde Bakare" || d.DriverPhone != "+2348011111111" {
		t.Fatalf("detail names %+v", d)
	}
	if !strings.HasPrefix(d.VehicleInfo, "Silver Toyota Sienna (LND-") || d.Departure != "2026-03-02 07:30" {
		t.Fatalf("detail trip info %+v", d)
	}

	if _, err := f.svc.ListTrip(ctx, tr.ID, "rider-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-owner list should be not found, got %v", err)
	}
	list, err := f.svc.ListTrip(ctx, tr.ID, testDriver)
	if err != nil || len(list) != 1 {
		t.Fatalf("list trip: %v %d", err, len(list))
	}
}

func TestPaymentMarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 1)

	got, err := f.svc.MarkPaymentFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got.Status != StatusPending || got.PaymentStatus != PaymentFailed {
		t.Fatalf("state %s/%s", got.Status, got.PaymentStatus)
	}
	if _, err := f.svc.MarkPaymentPending(ctx, b.ID); err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm after retry: %v", err)
	}
	_, err = f.svc.MarkPaymentFailed(ctx, b.ID)
	wantBadRequest(t, err, "no longer awaits payment")
}

func TestVerifyBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 2)

	_, err := f.svc.Verify(ctx, b.ID)
	wantBadRequest(t, err, "does not have a verification token")

	confirmed, err := f.svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	v, err := f.svc.Verify(ctx, b.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !v.Result.Verified || v.Result.Reason != token.ReasonValid || v.RouteInfo != "Ikeja to VI - 07:30" {
		t.Fatalf("verification %+v", v)
	}
	if v.Detail.RiderName != "Ada Obi" {
		t.Fatalf("rider=%q", v.Detail.RiderName)
	}

	res, err := f.svc.VerifyToken(ctx, b.ID, confirmed.TokenID)
	if err != nil || !res.Verified {
		t.Fatalf("verify token: %+v %v", res, err)
	}
	_, err = f.svc.VerifyToken(ctx, b.ID, "SEAT-"+b.ID.Short(8)+"-00000000")
	wantBadRequest(t, err, "integrity")

	if _, err := f.svc.Redeem(ctx, b.ID, testDriver); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	v, err = f.svc.Verify(ctx, b.ID)
	if err != nil {
		t.Fatalf("verify after redeem: %v", err)
	}
	if v.Result.Verified || v.Result.Reason != token.ReasonRedeemed {
		t.Fatalf("after redeem %+v", v.Result)
	}
}

func TestEventsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	b := f.book(t, tr.ID, "rider-1", 1)
	if _, err := f.svc.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.Redeem(ctx, b.ID, testDriver); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	got := f.pub.kinds()
	want := []EventType{EventCreated, EventConfirmed, EventCompleted}
	if len(got) != len(want) {
		t.Fatalf("events=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events=%v want %v", got, want)
		}
	}
}

func TestTripWithBookingsIsCancelledNotDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.trip(t, 7, 1500)
	f.book(t, tr.ID, "rider-1", 1)

	deleted, err := f.trips.DeleteOrCancel(ctx, tr.ID, testDriver)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Fatal("trip with a booking must not be deleted")
	}
	got, err := f.trips.Get(ctx, tr.ID)
	if err != nil || got.Status != trip.StatusCancelled {
		t.Fatalf("trip status: %v %v", got, err)
	}
}
