// README: User store contract, PostgreSQL and in-memory implementations.
package user

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Profile, error) {
	var p Profile
	var uid, role string
	err := s.db.QueryRow(ctx, `
		SELECT id, full_name, phone, role, updated_at FROM users WHERE id = $1`, string(id),
	).Scan(&uid, &p.Name, &p.Phone, &role, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	p.ID, p.Role = types.ID(uid), Role(role)
	return &p, nil
}

func (s *PGStore) Upsert(ctx context.Context, p *Profile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, full_name, phone, role, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    phone = EXCLUDED.phone,
		    role = EXCLUDED.role,
		    updated_at = EXCLUDED.updated_at`,
		string(p.ID), p.Name, p.Phone, string(p.Role), p.UpdatedAt)
	return err
}

type MemoryStore struct {
	mu    sync.RWMutex
	users map[types.ID]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[types.ID]Profile)}
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &p, nil
}

func (s *MemoryStore) Upsert(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[p.ID] = *p
	return nil
}
