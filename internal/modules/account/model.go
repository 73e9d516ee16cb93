// README: Users and the staff profiles bookings are assigned to.
package account

import (
	"time"

	"carebook/internal/types"
)

type Role string

const (
	RoleFamily   Role = "FAMILY"
	RoleProvider Role = "PROVIDER"
	RoleDriver   Role = "DRIVER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFamily, RoleProvider, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// StaffKind is the capability a profile grants. A booking references a profile id,
// never a user id, so a person's staff identity stays distinct from their customer one.
type StaffKind string

const (
	StaffProvider StaffKind = "PROVIDER"
	StaffDriver   StaffKind = "DRIVER"
)

func (k StaffKind) Valid() bool {
	return k == StaffProvider || k == StaffDriver
}

// StaffKindFor returns the profile kind owned by users of role r, if any.
func StaffKindFor(r Role) (StaffKind, bool) {
	switch r {
	case RoleProvider:
		return StaffProvider, true
	case RoleDriver:
		return StaffDriver, true
	}
	return "", false
}

type User struct {
	ID        types.ID
	Name      string
	Email     string
	Role      Role
	Address   *string
	Phone     *string
	CreatedAt time.Time
}

type Profile struct {
	ID        types.ID
	UserID    types.ID
	Kind      StaffKind
	CreatedAt time.Time
}
