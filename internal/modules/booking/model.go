// README: Booking aggregate, status definitions and the booking state flow.
package booking

import (
	"time"

	"openseat/internal/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
)

const (
	MinSeats = 1
	MaxSeats = 7
)

type Booking struct {
	ID            types.ID
	TripID        types.ID
	RiderID       types.ID
	SeatsBooked   int
	TotalAmount   types.Money
	PickupStop    string
	DropoffStop   string
	PaymentStatus PaymentStatus
	Status        Status
	StatusVersion int
	TokenID       string
	RedeemedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *Booking) clone() *Booking {
	c := *b
	if b.RedeemedAt != nil {
		r := *b.RedeemedAt
		c.RedeemedAt = &r
	}
	return &c
}

// Redeemed reports whether the rider has boarded.
func (b *Booking) Redeemed() bool {
	return b.RedeemedAt != nil
}

// AwaitsPayment is true while a payment can still be taken: a pending booking,
// or one the driver confirmed before the rider paid.
func (b *Booking) AwaitsPayment() bool {
	switch b.Status {
	case StatusPending:
		return true
	case StatusConfirmed:
		return b.PaymentStatus != PaymentSuccessful
	}
	return false
}

// AllowedTransitions represents the booking state flow as code.
// COMPLETED and CANCELLED are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// seatDelta is the change to the trip's available seats when moving from -> to.
func seatDelta(from, to Status, seats int) int {
	switch {
	case to == StatusConfirmed && from == StatusPending:
		return -seats
	case to == StatusCancelled && from == StatusConfirmed:
		return seats
	default:
		return 0
	}
}

// Transition is one atomic booking update. Nil fields are left unchanged.
type Transition struct {
	BookingID     types.ID
	TripID        types.ID
	From          Status
	To            Status
	SeatDelta     int
	PaymentStatus *PaymentStatus
	TokenID       *string
	RedeemedAt    *time.Time
	At            time.Time
}

// Receipt is returned to the driver after a successful boarding scan.
type Receipt struct {
	BookingID   types.ID  `json:"booking_id"`
	RiderName   string    `json:"rider_name"`
	SeatsBooked int       `json:"seats_booked"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

// Detail is a booking joined with the people and trip around it.
type Detail struct {
	Booking     *Booking
	RiderName   string
	DriverName  string
	DriverPhone string
	VehicleInfo string
	From        string
	To          string
	Departure   string
}

type EventType string

const (
	EventCreated   EventType = "booking.created"
	EventConfirmed EventType = "booking.confirmed"
	EventCancelled EventType = "booking.cancelled"
	EventCompleted EventType = "booking.completed"
	EventPayFailed EventType = "payment.failed"
)

type Event struct {
	Type       EventType `json:"type"`
	BookingID  types.ID  `json:"booking_id"`
	TripID     types.ID  `json:"trip_id"`
	RiderID    types.ID  `json:"rider_id"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status"`
	Seats      int       `json:"seats"`
	ActorID    types.ID  `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
