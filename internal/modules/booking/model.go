// README: Booking aggregate, status definitions and the lifecycle state machine.
package booking

import (
	"fmt"
	"time"

	"carebook/internal/modules/account"
	"carebook/internal/modules/catalog"
	"carebook/internal/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions and freeze every booking field.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted
}

// Action is a lifecycle operation a caller attempts on a booking.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionDecline  Action = "decline"
	ActionComplete Action = "complete"
)

// Target is the status an action moves a booking into.
func (a Action) Target() Status {
	switch a {
	case ActionAssign:
		return StatusApproved
	case ActionDecline:
		return StatusDeclined
	case ActionComplete:
		return StatusCompleted
	}
	return ""
}

// AllowedTransitions represents the booking state flow (diagram) as code.
//
//	PENDING  --assign-->   APPROVED
//	PENDING  --decline-->  DECLINED
//	APPROVED --complete--> COMPLETED
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDeclined},
	StatusApproved: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError reports an action the state machine does not allow from From.
// It matches types.ErrInvalidTransition.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a %s booking", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return types.ErrInvalidTransition
}

type Booking struct {
	ID            types.ID
	UserID        types.ID
	ServiceID     types.ID
	ProviderID    *types.ID
	DriverID      *types.ID
	Date          time.Time
	Notes         string
	Status        Status
	StatusVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Staff binds one profile to a booking during assignment.
type Staff struct {
	Kind      account.StaffKind
	ProfileID types.ID
}

// LedgerEntry is a booking joined with the records the dashboards display.
// Missing joins are left empty (FamilyName == "", Service == nil) rather than failing.
type LedgerEntry struct {
	Booking      Booking
	FamilyName   string
	Service      *catalog.Entry
	ProviderName string
	DriverName   string
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	UserID     types.ID
	ProviderID types.ID
	DriverID   types.ID
	Status     Status
}
