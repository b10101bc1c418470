// README: In-memory trip store used by tests and the memory store driver.
package trip

import (
	"context"
	"sort"
	"sync"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	trips    map[types.ID]*Trip
	vehicles map[types.ID]*Vehicle
	ratings  map[types.ID][]float64
	// booked reports whether any booking references a trip.
	booked func(types.ID) bool
	clock  types.Clock
}

// NewMemoryStore stamps UpdatedAt from clock; nil means the system clock.
func NewMemoryStore(clock types.Clock) *MemoryStore {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &MemoryStore{
		trips:    make(map[types.ID]*Trip),
		vehicles: make(map[types.ID]*Vehicle),
		ratings:  make(map[types.ID][]float64),
		clock:    clock,
	}
}

// SetBookingProbe lets the booking store tell this store which trips are referenced.
func (s *MemoryStore) SetBookingProbe(fn func(types.ID) bool) {
	s.mu.Lock()
	s.booked = fn
	s.mu.Unlock()
}

func (s *MemoryStore) CreateTrip(_ context.Context, t *Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[t.ID]; ok {
		return apperr.Conflict("trip %s already exists", t.ID)
	}
	s.trips[t.ID] = t.clone()
	return nil
}

func (s *MemoryStore) GetTrip(_ context.Context, id types.ID) (*Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, apperr.NotFound("Trip not found")
	}
	return t.clone(), nil
}

func (s *MemoryStore) ListActive(_ context.Context, from time.Time) ([]*Trip, error) {
	from = DateOnly(from)
	s.mu.Lock()
	var out []*Trip
	for _, t := range s.trips {
		if t.Status == StatusActive && t.AvailableSeats > 0 && !DateOnly(t.DepartureDate).Before(from) {
			out = append(out, t.clone())
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DepartureDate.Equal(b.DepartureDate) {
			return a.DepartureDate.Before(b.DepartureDate)
		}
		if a.DepartureTime != b.DepartureTime {
			return a.DepartureTime < b.DepartureTime
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *MemoryStore) ListByDriver(_ context.Context, driverID types.ID) ([]*Trip, error) {
	s.mu.Lock()
	var out []*Trip
	for _, t := range s.trips {
		if t.DriverID == driverID {
			out = append(out, t.clone())
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ApplyUpdate(_ context.Context, u Patch) (*Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[u.TripID]
	if !ok {
		return nil, apperr.NotFound("Trip not found")
	}
	total := t.TotalSeats
	if u.TotalSeats != nil {
		total = *u.TotalSeats
	}
	available := t.AvailableSeats + (total - t.TotalSeats)
	if t.Status != u.FromStatus || available < 0 {
		return nil, u.rejection(t)
	}
	if u.PricePerSeat != nil {
		t.PricePerSeat = *u.PricePerSeat
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	t.TotalSeats, t.AvailableSeats = total, available
	t.UpdatedAt = u.At
	return t.clone(), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = s.clock.Now()
	return true, nil
}

func (s *MemoryStore) AdjustSeats(_ context.Context, id types.ID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return 0, apperr.NotFound("Trip not found")
	}
	next := t.AvailableSeats + delta
	if next < 0 || next > t.TotalSeats {
		return 0, seatError(t, delta)
	}
	t.AvailableSeats = next
	t.UpdatedAt = s.clock.Now()
	return next, nil
}

// DeleteUnbooked consults the booking probe before taking the store lock so
// the two stores never hold each other's mutex.
func (s *MemoryStore) DeleteUnbooked(_ context.Context, id types.ID) (bool, error) {
	s.mu.Lock()
	probe := s.booked
	s.mu.Unlock()
	if probe != nil && probe(id) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[id]; !ok {
		return false, nil
	}
	delete(s.trips, id)
	return true, nil
}

func (s *MemoryStore) CreateVehicle(_ context.Context, v *Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *v
	s.vehicles[v.ID] = &c
	return nil
}

func (s *MemoryStore) GetVehicle(_ context.Context, id types.ID) (*Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, apperr.NotFound("Vehicle not found")
	}
	c := *v
	return &c, nil
}

// AddRating records a rider's score for a driver.
func (s *MemoryStore) AddRating(driverID types.ID, score float64) {
	s.mu.Lock()
	s.ratings[driverID] = append(s.ratings[driverID], score)
	s.mu.Unlock()
}

func (s *MemoryStore) DriverProfile(_ context.Context, driverID types.ID) (DriverProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := DriverProfile{DriverID: driverID, Rating: DefaultDriverRating}
	scores := s.ratings[driverID]
	if len(scores) == 0 {
		return p, nil
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	p.Rating = sum / float64(len(scores))
	p.RatingCount = len(scores)
	return p, nil
}
