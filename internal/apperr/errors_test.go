package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := BadRequest("Only %d seats available", 3)
	if !errors.Is(err, ErrBadRequest) {
		t.Fatal("expected ErrBadRequest")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected ErrNotFound")
	}
	if err.Error() != "Only 3 seats available" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("confirm: %w", Forbidden("not yours"))
	if KindOf(err) != ErrForbidden {
		t.Fatalf("kind = %v", KindOf(err))
	}
	if KindOf(errors.New("boom")) != nil {
		t.Fatal("plain errors have no kind")
	}
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := &Error{Kind: ErrConflict}
	if err.Error() != "conflict" {
		t.Fatalf("message = %q", err.Error())
	}
}
