// README: Trip store contract and its PostgreSQL implementation.
package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

// Store persists trips and vehicles. Seat mutations must be atomic.
type Store interface {
	CreateTrip(ctx context.Context, t *Trip) error
	GetTrip(ctx context.Context, id types.ID) (*Trip, error)
	ListActive(ctx context.Context, from time.Time) ([]*Trip, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Trip, error)
	// ApplyUpdate writes a driver edit as one guarded change; nothing is
	// written when any part of it is rejected.
	ApplyUpdate(ctx context.Context, u Patch) (*Trip, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
	// AdjustSeats adds delta to available seats if the result stays within [0, total].
	AdjustSeats(ctx context.Context, id types.ID, delta int) (int, error)
	// DeleteUnbooked removes a trip only if no booking references it.
	DeleteUnbooked(ctx context.Context, id types.ID) (bool, error)

	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	DriverProfile(ctx context.Context, driverID types.ID) (DriverProfile, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const tripColumns = `id, driver_id, vehicle_id, start_location, end_location, stops,
	departure_date, departure_time, total_seats, available_seats,
	price_per_seat, currency, status, created_at, updated_at`

func (s *PGStore) CreateTrip(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(t.ID), string(t.DriverID), string(t.VehicleID),
		t.StartLocation, t.EndLocation, t.Stops,
		t.DepartureDate, t.DepartureTime, t.TotalSeats, t.AvailableSeats,
		t.PricePerSeat.Amount, t.PricePerSeat.Currency, string(t.Status),
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var id, driverID, vehicleID, status string
	err := row.Scan(
		&id, &driverID, &vehicleID, &t.StartLocation, &t.EndLocation, &t.Stops,
		&t.DepartureDate, &t.DepartureTime, &t.TotalSeats, &t.AvailableSeats,
		&t.PricePerSeat.Amount, &t.PricePerSeat.Currency, &status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ID, t.DriverID, t.VehicleID, t.Status = types.ID(id), types.ID(driverID), types.ID(vehicleID), Status(status)
	return &t, nil
}

func (s *PGStore) GetTrip(ctx context.Context, id types.ID) (*Trip, error) {
	t, err := scanTrip(s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Trip not found")
	}
	return t, err
}

func (s *PGStore) queryTrips(ctx context.Context, sql string, args ...any) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) ListActive(ctx context.Context, from time.Time) ([]*Trip, error) {
	return s.queryTrips(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE status = 'ACTIVE' AND available_seats > 0 AND departure_date >= $1
		ORDER BY departure_date, departure_time, created_at, id`, DateOnly(from))
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID) ([]*Trip, error) {
	return s.queryTrips(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE driver_id = $1
		ORDER BY created_at DESC, id`, string(driverID))
}

func (s *PGStore) ApplyUpdate(ctx context.Context, u Patch) (*Trip, error) {
	var price *int64
	var currency *string
	if u.PricePerSeat != nil {
		price, currency = &u.PricePerSeat.Amount, &u.PricePerSeat.Currency
	}
	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	t, err := scanTrip(s.db.QueryRow(ctx, `
		UPDATE trips
		SET price_per_seat = COALESCE($2, price_per_seat),
		    currency = COALESCE($3, currency),
		    available_seats = available_seats + (COALESCE($4, total_seats) - total_seats),
		    total_seats = COALESCE($4, total_seats),
		    status = COALESCE($5, status),
		    updated_at = $6
		WHERE id = $1 AND status = $7
		  AND available_seats + (COALESCE($4, total_seats) - total_seats) >= 0
		RETURNING `+tripColumns,
		string(u.TripID), price, currency, u.TotalSeats, status, u.At, string(u.FromStatus)))
	if errors.Is(err, pgx.ErrNoRows) {
		current, gerr := s.GetTrip(ctx, u.TripID)
		if gerr != nil {
			return nil, gerr
		}
		return nil, u.rejection(current)
	}
	return t, err
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, string(to), string(id), string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AdjustSeats(ctx context.Context, id types.ID, delta int) (int, error) {
	return adjustSeats(ctx, s.db, id, delta)
}

// AdjustSeatsTx applies the guarded seat update inside a caller-owned transaction.
func AdjustSeatsTx(ctx context.Context, tx pgx.Tx, id types.ID, delta int) (int, error) {
	return adjustSeats(ctx, tx, id, delta)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func adjustSeats(ctx context.Context, q rowQuerier, id types.ID, delta int) (int, error) {
	var available int
	err := q.QueryRow(ctx, `
		UPDATE trips SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1 AND available_seats + $2 BETWEEN 0 AND total_seats
		RETURNING available_seats`, string(id), delta).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		t, gerr := scanTrip(q.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id)))
		if errors.Is(gerr, pgx.ErrNoRows) {
			return 0, apperr.NotFound("Trip not found")
		}
		if gerr != nil {
			return 0, gerr
		}
		return 0, seatError(t, delta)
	}
	return available, err
}

func (s *PGStore) DeleteUnbooked(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM trips
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM bookings WHERE trip_id = $1)`, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) CreateVehicle(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (id, driver_id, make, model, color, plate_number, total_seats, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(v.ID), string(v.DriverID), v.Make, v.Model, v.Color, v.PlateNumber,
		v.TotalSeats, v.Verified, v.CreatedAt,
	)
	return err
}

func (s *PGStore) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	var v Vehicle
	var vid, driverID string
	err := s.db.QueryRow(ctx, `
		SELECT id, driver_id, make, model, color, plate_number, total_seats, is_verified, created_at
		FROM vehicles WHERE id = $1`, string(id),
	).Scan(&vid, &driverID, &v.Make, &v.Model, &v.Color, &v.PlateNumber, &v.TotalSeats, &v.Verified, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Vehicle not found")
	}
	if err != nil {
		return nil, err
	}
	v.ID, v.DriverID = types.ID(vid), types.ID(driverID)
	return &v, nil
}

func (s *PGStore) DriverProfile(ctx context.Context, driverID types.ID) (DriverProfile, error) {
	p := DriverProfile{DriverID: driverID}
	var avg *float64
	err := s.db.QueryRow(ctx, `
		SELECT AVG(score)::float8, COUNT(*)
		FROM ratings WHERE driver_id = $1`, string(driverID)).Scan(&avg, &p.RatingCount)
	if err != nil {
		return p, fmt.Errorf("driver rating: %w", err)
	}
	p.Rating = DefaultDriverRating
	if avg != nil && p.RatingCount > 0 {
		p.Rating = *avg
	}
	return p, nil
}

func seatError(t *Trip, delta int) error {
	if delta < 0 {
		return apperr.BadRequest("Only %d seats available", t.AvailableSeats)
	}
	return apperr.BadRequest("Cannot restore %d seats: trip capacity is %d", delta, t.TotalSeats)
}
