// README: User service tests.
package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"openseat/internal/apperr"
	"openseat/internal/types"
)

func TestUpdateAndLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), types.NewFixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), nil)

	if _, err := svc.Update(ctx, UpdateCommand{UserID: "u1", Name: "  "}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if _, err := svc.Update(ctx, UpdateCommand{UserID: "u1", Name: "Ada", Role: "admin"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad role rejection, got %v", err)
	}

	p, err := svc.Update(ctx, UpdateCommand{UserID: "u1", Name: " Ada Obi ", Phone: "+2348000000000"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Name != "Ada Obi" || p.Role != RoleRider {
		t.Fatalf("unexpected profile %+v", p)
	}
	if got := svc.Lookup(ctx, "u1"); got.Name != "Ada Obi" {
		t.Fatalf("lookup name=%q", got.Name)
	}
	if got := svc.Lookup(ctx, "missing"); got.Name != UnknownName {
		t.Fatalf("missing lookup name=%q", got.Name)
	}
}
