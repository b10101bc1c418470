// README: Identifier type shared by trips, bookings, payments and users.
package types

import "github.com/google/uuid"

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// Short returns the first n characters of the id, or the whole id when shorter.
func (id ID) Short(n int) string {
	s := string(id)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type Point struct {
	Lat float64
	Lng float64
}
