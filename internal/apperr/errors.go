// README: Error taxonomy shared by modules and mapped to HTTP status codes at the edge.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Error carries a user-facing message and unwraps to one of the sentinel kinds.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error   { return newError(ErrNotFound, format, args...) }
func BadRequest(format string, args ...any) error { return newError(ErrBadRequest, format, args...) }
func Forbidden(format string, args ...any) error  { return newError(ErrForbidden, format, args...) }
func Conflict(format string, args ...any) error   { return newError(ErrConflict, format, args...) }

// KindOf returns the sentinel an error unwraps to, or nil for infrastructure errors.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrBadRequest, ErrForbidden, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
