// README: Assignment resolver binds a provider or driver profile to a pending booking.
package assignment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"carebook/internal/logger"
	"carebook/internal/modules/account"
	"carebook/internal/modules/booking"
	"carebook/internal/types"
)

const unknownStaff = "Unknown"

type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	Approve(ctx context.Context, cmd booking.ApproveCommand) (*booking.Booking, error)
}

type Accounts interface {
	Profile(ctx context.Context, id types.ID) (*account.Profile, error)
	StaffName(ctx context.Context, profileID types.ID) (string, error)
}

type Service struct {
	bookings Bookings
	accounts Accounts
	locker   Locker
	log      logger.ILogger
	tracer   trace.Tracer
}

// NewService wires the resolver. A nil locker falls back to an in-process lock.
func NewService(bookings Bookings, accounts Accounts, locker Locker, log logger.ILogger) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		bookings: bookings,
		accounts: accounts,
		locker:   locker,
		log:      log,
		tracer:   otel.Tracer("carebook/assignment"),
	}
}

type AssignCommand struct {
	BookingID types.ID
	Kind      account.StaffKind
	ProfileID types.ID
}

type Result struct {
	Booking   *booking.Booking
	StaffName string
}

// Assign approves a pending booking with the given staff. Any provider or driver profile
// is eligible for any booking; a booking can be assigned once.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Assign", trace.WithAttributes(
		attribute.String("booking.id", string(cmd.BookingID)),
		attribute.String("staff.kind", string(cmd.Kind)),
	))
	defer span.End()

	if !cmd.Kind.Valid() || cmd.BookingID == "" || cmd.ProfileID == "" {
		return nil, types.ErrBadRequest
	}
	if _, err := s.bookings.Get(ctx, cmd.BookingID); err != nil {
		return nil, err
	}
	p, err := s.accounts.Profile(ctx, cmd.ProfileID)
	if err != nil {
		return nil, err
	}
	if p.Kind != cmd.Kind {
		return nil, fmt.Errorf("%w: %s profile %s", types.ErrNotFound, cmd.Kind, cmd.ProfileID)
	}

	release, err := s.locker.Acquire(ctx, cmd.BookingID)
	if err != nil {
		s.log.Warning("assignment lock unavailable",
			logger.String("booking_id", string(cmd.BookingID)),
			logger.Error(err),
		)
		return nil, err
	}
	defer release()

	b, err := s.bookings.Approve(ctx, booking.ApproveCommand{
		BookingID: cmd.BookingID,
		Staff:     booking.Staff{Kind: cmd.Kind, ProfileID: cmd.ProfileID},
	})
	if err != nil {
		return nil, err
	}

	name, err := s.accounts.StaffName(ctx, cmd.ProfileID)
	if err != nil || name == "" {
		name = unknownStaff
	}
	s.log.Info("booking assigned",
		logger.String("booking_id", string(b.ID)),
		logger.String("kind", string(cmd.Kind)),
		logger.String("profile_id", string(cmd.ProfileID)),
	)
	return &Result{Booking: b, StaffName: name}, nil
}
