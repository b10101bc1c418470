// README: User profile records (display name, phone, role) keyed by auth uid.
package user

import (
	"time"

	"openseat/internal/types"
)

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

type Profile struct {
	ID        types.ID
	Name      string
	Phone     string
	Role      Role
	UpdatedAt time.Time
}

func (r Role) Valid() bool {
	return r == RoleRider || r == RoleDriver
}
