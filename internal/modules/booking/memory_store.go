// README: In-memory booking store; seat updates go through the trip store.
package booking

import (
	"context"
	"sort"
	"sync"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

// SeatAdjuster is the guarded seat update the memory store delegates to.
type SeatAdjuster interface {
	AdjustSeats(ctx context.Context, id types.ID, delta int) (int, error)
}

type MemoryStore struct {
	mu       sync.Mutex
	seats    SeatAdjuster
	bookings map[types.ID]*Booking
}

func NewMemoryStore(seats SeatAdjuster) *MemoryStore {
	return &MemoryStore{seats: seats, bookings: make(map[types.ID]*Booking)}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; ok {
		return apperr.Conflict("Booking already exists")
	}
	s.bookings[b.ID] = b.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("Booking not found")
	}
	return b.clone(), nil
}

func (s *MemoryStore) filter(keep func(*Booking) bool) []*Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b.clone())
		}
	}
	return out
}

func (s *MemoryStore) ListByRider(_ context.Context, riderID types.ID) ([]*Booking, error) {
	out := s.filter(func(b *Booking) bool { return b.RiderID == riderID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListByTrip(_ context.Context, tripID types.ID) ([]*Booking, error) {
	out := s.filter(func(b *Booking) bool { return b.TripID == tripID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// HasTrip reports whether any booking references the trip.
func (s *MemoryStore) HasTrip(tripID types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.TripID == tripID {
			return true
		}
	}
	return false
}

// Transition holds the booking lock across the seat update, so lock order is
// always booking store then trip store.
func (s *MemoryStore) Transition(ctx context.Context, tr Transition) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[tr.BookingID]
	if !ok {
		return nil, apperr.NotFound("Booking not found")
	}
	if b.Status != tr.From {
		return nil, apperr.Conflict("Booking is %s, expected %s", b.Status, tr.From)
	}
	if tr.SeatDelta != 0 {
		if _, err := s.seats.AdjustSeats(ctx, tr.TripID, tr.SeatDelta); err != nil {
			return nil, err
		}
	}
	b.Status = tr.To
	b.StatusVersion++
	if tr.PaymentStatus != nil {
		b.PaymentStatus = *tr.PaymentStatus
	}
	if tr.TokenID != nil {
		b.TokenID = *tr.TokenID
	}
	if tr.RedeemedAt != nil && b.RedeemedAt == nil {
		r := *tr.RedeemedAt
		b.RedeemedAt = &r
	}
	b.UpdatedAt = tr.At
	return b.clone(), nil
}
