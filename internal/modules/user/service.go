// README: User service keeps caller profiles and resolves display names.
package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"openseat/internal/apperr"
	"openseat/internal/logger"
	"openseat/internal/types"
)

const UnknownName = "Unknown"

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

type UpdateCommand struct {
	UserID types.ID
	Name   string
	Phone  string
	Role   Role
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Profile, error) {
	name := strings.TrimSpace(cmd.Name)
	if cmd.UserID == "" || name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	if cmd.Role == "" {
		cmd.Role = RoleRider
	}
	if !cmd.Role.Valid() {
		return nil, apperr.BadRequest("role must be rider or driver")
	}
	p := &Profile{
		ID:        cmd.UserID,
		Name:      name,
		Phone:     strings.TrimSpace(cmd.Phone),
		Role:      cmd.Role,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	logger.Action(s.log, "update_profile").Info("profile updated", "user_id", p.ID, "role", p.Role)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// Lookup returns the stored profile, or a placeholder when none exists.
func (s *Service) Lookup(ctx context.Context, id types.ID) Profile {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("profile lookup failed", "user_id", id, logger.Err(err))
		}
		return Profile{ID: id, Name: UnknownName}
	}
	return *p
}
