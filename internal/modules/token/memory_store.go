// README: In-memory token store used by tests and the memory store driver.
package token

import (
	"context"
	"sync"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

type MemoryStore struct {
	mu     sync.Mutex
	tokens map[types.ID]*Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[types.ID]*Token)}
}

func (s *MemoryStore) IssueIfAbsent(_ context.Context, t *Token) (*Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tokens[t.BookingID]; ok {
		return existing.clone(), false, nil
	}
	s.tokens[t.BookingID] = t.clone()
	return t.clone(), true, nil
}

func (s *MemoryStore) GetByBooking(_ context.Context, bookingID types.ID) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[bookingID]
	if !ok {
		return nil, apperr.NotFound("Verification token not found")
	}
	return t.clone(), nil
}

func (s *MemoryStore) MarkRedeemed(_ context.Context, bookingID types.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[bookingID]; ok && t.RedeemedAt == nil {
		t.RedeemedAt = &at
	}
	return nil
}
