// README: Trip aggregate, vehicle and driver profile definitions.
package trip

import (
	"fmt"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusDeparted  Status = "DEPARTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// DefaultDriverRating is used for drivers with no ratings yet.
const DefaultDriverRating = 4.5

type Trip struct {
	ID             types.ID
	DriverID       types.ID
	VehicleID      types.ID
	StartLocation  string
	EndLocation    string
	Stops          []string
	DepartureDate  time.Time
	DepartureTime  string
	TotalSeats     int
	AvailableSeats int
	PricePerSeat   types.Money
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Trip) clone() *Trip {
	c := *t
	c.Stops = append([]string(nil), t.Stops...)
	return &c
}

type Vehicle struct {
	ID          types.ID
	DriverID    types.ID
	Make        string
	Model       string
	Color       string
	PlateNumber string
	TotalSeats  int
	Verified    bool
	CreatedAt   time.Time
}

func (v *Vehicle) Description() string {
	return fmt.Sprintf("%s %s %s (%s)", v.Color, v.Make, v.Model, v.PlateNumber)
}

type DriverProfile struct {
	DriverID    types.ID
	Rating      float64
	RatingCount int
}

// AllowedTransitions represents the trip lifecycle as code.
var AllowedTransitions = map[Status][]Status{
	StatusActive:   {StatusDeparted, StatusCancelled},
	StatusDeparted: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Patch is a validated driver edit applied by the store in one step. It only
// applies while the trip is still in FromStatus.
type Patch struct {
	TripID       types.ID
	FromStatus   Status
	PricePerSeat *types.Money
	TotalSeats   *int
	Status       *Status
	At           time.Time
}

// rejection explains why a patch could not be applied to current.
func (p Patch) rejection(current *Trip) error {
	if current.Status != p.FromStatus {
		return apperr.Conflict("trip status changed concurrently")
	}
	return apperr.BadRequest("Cannot reduce seats below the number already booked")
}

// MinutesOfDay parses an "HH:MM" time-of-day.
func MinutesOfDay(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
