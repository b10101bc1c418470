// README: Trip service implements trip publication, edits and seat accounting.
package trip

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/logger"
	"openseat/internal/types"
)

type Service struct {
	store Store
	clock types.Clock
	log   *slog.Logger
}

func NewService(store Store, clock types.Clock, log *slog.Logger) *Service {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Service{store: store, clock: clock, log: logger.OrDiscard(log)}
}

type CreateCommand struct {
	DriverID      types.ID
	VehicleID     types.ID
	StartLocation string
	EndLocation   string
	Stops         []string
	DepartureDate time.Time
	DepartureTime string
	Seats         int
	PricePerSeat  types.Money
}

type UpdateCommand struct {
	TripID       types.ID
	DriverID     types.ID
	PricePerSeat *types.Money
	TotalSeats   *int
	Status       *Status
}

type VehicleCommand struct {
	DriverID    types.ID
	Make        string
	Model       string
	Color       string
	PlateNumber string
	TotalSeats  int
	Verified    bool
}

func (s *Service) RegisterVehicle(ctx context.Context, cmd VehicleCommand) (*Vehicle, error) {
	if cmd.DriverID == "" || cmd.PlateNumber == "" {
		return nil, apperr.BadRequest("driver and plate number are required")
	}
	if cmd.TotalSeats < 1 {
		return nil, apperr.BadRequest("vehicle must have at least one seat")
	}
	v := &Vehicle{
		ID:          types.NewID(),
		DriverID:    cmd.DriverID,
		Make:        cmd.Make,
		Model:       cmd.Model,
		Color:       cmd.Color,
		PlateNumber: strings.ToUpper(cmd.PlateNumber),
		TotalSeats:  cmd.TotalSeats,
		Verified:    cmd.Verified,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	if cmd.DriverID == "" || cmd.StartLocation == "" || cmd.EndLocation == "" {
		return nil, apperr.BadRequest("start and end locations are required")
	}
	if _, err := MinutesOfDay(cmd.DepartureTime); err != nil {
		return nil, apperr.BadRequest("departure time must be HH:MM")
	}
	if cmd.Seats < 1 {
		return nil, apperr.BadRequest("trip must offer at least one seat")
	}
	if !cmd.PricePerSeat.IsPositive() {
		return nil, apperr.BadRequest("price per seat must be positive")
	}

	v, err := s.store.GetVehicle(ctx, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.DriverID != cmd.DriverID {
		return nil, apperr.NotFound("Vehicle not found")
	}
	if cmd.Seats > v.TotalSeats {
		return nil, apperr.BadRequest("Available seats cannot exceed vehicle capacity of %d", v.TotalSeats)
	}

	now := s.clock.Now()
	t := &Trip{
		ID:             types.NewID(),
		DriverID:       cmd.DriverID,
		VehicleID:      cmd.VehicleID,
		StartLocation:  cmd.StartLocation,
		EndLocation:    cmd.EndLocation,
		Stops:          append([]string(nil), cmd.Stops...),
		DepartureDate:  DateOnly(cmd.DepartureDate),
		DepartureTime:  cmd.DepartureTime,
		TotalSeats:     cmd.Seats,
		AvailableSeats: cmd.Seats,
		PricePerSeat:   cmd.PricePerSeat,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTrip(ctx, t); err != nil {
		return nil, err
	}
	logger.Action(s.log, "create_trip").Info("trip published",
		"trip_id", t.ID, "driver_id", t.DriverID, "seats", t.TotalSeats)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.GetTrip(ctx, id)
}

// ListActive returns bookable trips departing on or after date (today when nil).
func (s *Service) ListActive(ctx context.Context, date *time.Time) ([]*Trip, error) {
	from := s.clock.Now()
	if date != nil {
		from = *date
	}
	return s.store.ListActive(ctx, from)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*Trip, error) {
	return s.store.ListByDriver(ctx, driverID)
}

// AdjustAvailableSeats applies delta atomically and returns the new seat count.
func (s *Service) AdjustAvailableSeats(ctx context.Context, id types.ID, delta int) (int, error) {
	n, err := s.store.AdjustSeats(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	logger.Action(s.log, "adjust_seats").Info("seats adjusted", "trip_id", id, "delta", delta, "available", n)
	return n, nil
}

func (s *Service) DriverProfile(ctx context.Context, driverID types.ID) (DriverProfile, error) {
	return s.store.DriverProfile(ctx, driverID)
}

func (s *Service) Vehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

// owned loads a trip and hides it from anyone but its driver.
func (s *Service) owned(ctx context.Context, tripID, driverID types.ID) (*Trip, error) {
	t, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.DriverID != driverID {
		return nil, apperr.NotFound("Trip not found")
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Trip, error) {
	t, err := s.owned(ctx, cmd.TripID, cmd.DriverID)
	if err != nil {
		return nil, err
	}

	if cmd.PricePerSeat != nil && !cmd.PricePerSeat.IsPositive() {
		return nil, apperr.BadRequest("price per seat must be positive")
	}
	if cmd.Status != nil && *cmd.Status != t.Status && !CanTransition(t.Status, *cmd.Status) {
		return nil, apperr.BadRequest("Cannot change trip status from %s to %s", t.Status, *cmd.Status)
	}
	if cmd.TotalSeats != nil {
		if *cmd.TotalSeats < 1 {
			return nil, apperr.BadRequest("trip must offer at least one seat")
		}
		v, err := s.store.GetVehicle(ctx, t.VehicleID)
		if err != nil {
			return nil, err
		}
		if *cmd.TotalSeats > v.TotalSeats {
			return nil, apperr.BadRequest("Available seats cannot exceed vehicle capacity of %d", v.TotalSeats)
		}
		if t.AvailableSeats+(*cmd.TotalSeats-t.TotalSeats) < 0 {
			return nil, apperr.BadRequest("Cannot reduce seats below the number already booked")
		}
	}

	patch := Patch{TripID: t.ID, FromStatus: t.Status, PricePerSeat: cmd.PricePerSeat, TotalSeats: cmd.TotalSeats, At: s.clock.Now()}
	if cmd.Status != nil && *cmd.Status != t.Status {
		patch.Status = cmd.Status
	}
	updated, err := s.store.ApplyUpdate(ctx, patch)
	if err != nil {
		return nil, err
	}
	logger.Action(s.log, "update_trip").Info("trip updated", "trip_id", t.ID,
		"total_seats", updated.TotalSeats, "available_seats", updated.AvailableSeats, "status", updated.Status)
	return updated, nil
}

// DeleteOrCancel removes a trip nobody has booked; any other trip is cancelled
// so its bookings keep a valid reference.
func (s *Service) DeleteOrCancel(ctx context.Context, tripID, driverID types.ID) (bool, error) {
	t, err := s.owned(ctx, tripID, driverID)
	if err != nil {
		return false, err
	}
	deleted, err := s.store.DeleteUnbooked(ctx, t.ID)
	if err != nil {
		return false, err
	}
	log := logger.Action(s.log, "delete_trip").With("trip_id", t.ID)
	if deleted {
		log.Info("trip deleted")
		return true, nil
	}
	if t.Status == StatusCancelled || t.Status == StatusCompleted {
		return false, nil
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCancelled)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.Conflict("trip status changed concurrently")
	}
	log.Info("trip cancelled instead of deleted")
	return false, nil
}
