// README: Booking service implements lifecycle transitions on top of the store's compare-and-set.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"carebook/internal/logger"
	"carebook/internal/modules/account"
	"carebook/internal/modules/catalog"
	"carebook/internal/types"
)

// Repository is the Entity Store contract for bookings.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	// UpdateStatus moves a booking from -> to only if it is still at (from, version),
	// setting the staff field in the same write. It reports false when the guard missed.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, staff *Staff) (bool, error)
	List(ctx context.Context, f Filter) ([]Booking, error)
	// Ledger returns every booking joined with user, service and staff names as one snapshot.
	Ledger(ctx context.Context) ([]LedgerEntry, error)
}

type Accounts interface {
	User(ctx context.Context, id types.ID) (*account.User, error)
	ProfileByUser(ctx context.Context, userID types.ID, kind account.StaffKind) (*account.Profile, error)
}

type Catalog interface {
	Get(ctx context.Context, id types.ID) (*catalog.Entry, error)
}

// Publisher receives lifecycle events after a successful write.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Service struct {
	store    Repository
	accounts Accounts
	catalog  Catalog
	events   Publisher
	log      logger.ILogger
	tracer   trace.Tracer
	loc      *time.Location
	now      func() time.Time
}

type Option func(*Service)

// WithLocation sets the zone in which "today" starts for schedule validation.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(l logger.ILogger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Repository, accounts Accounts, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		store:    store,
		accounts: accounts,
		catalog:  catalog,
		log:      logger.Nop(),
		tracer:   otel.Tracer("carebook/booking"),
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommand struct {
	UserID    types.ID
	ServiceID types.ID
	Date      time.Time
	Notes     string
}

type ApproveCommand struct {
	BookingID types.ID
	Staff     Staff
}

type DeclineCommand struct {
	BookingID types.ID
}

// CompleteCommand finishes an APPROVED booking. When StaffUserID is set the caller is
// a staff member and must be the one bound to the booking under StaffKind.
type CompleteCommand struct {
	BookingID   types.ID
	StaffUserID types.ID
	StaffKind   account.StaffKind
}

type ListQuery struct {
	UserID         types.ID
	ProviderUserID types.ID
	DriverUserID   types.ID
	Status         Status
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()

	if cmd.UserID == "" || cmd.ServiceID == "" {
		return nil, types.ErrBadRequest
	}
	u, err := s.accounts.User(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if u.Role != account.RoleFamily {
		return nil, types.ErrInvalidRole
	}
	if _, err := s.catalog.Get(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}
	if !s.schedulable(cmd.Date) {
		return nil, types.ErrInvalidSchedule
	}

	now := s.now().UTC()
	b := &Booking{
		ID:        types.NewID(),
		UserID:    cmd.UserID,
		ServiceID: cmd.ServiceID,
		Date:      cmd.Date.UTC(),
		Notes:     strings.TrimSpace(cmd.Notes),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", string(b.ID)))
	s.log.Info("booking created",
		logger.String("booking_id", string(b.ID)),
		logger.String("user_id", string(b.UserID)),
		logger.String("service_id", string(b.ServiceID)),
	)
	s.publish(ctx, "booking.created", b)
	return b, nil
}

// Approve binds staff and moves PENDING -> APPROVED in one write. Callers outside the
// assignment resolver should not use it directly.
func (s *Service) Approve(ctx context.Context, cmd ApproveCommand) (*Booking, error) {
	if !cmd.Staff.Kind.Valid() || cmd.Staff.ProfileID == "" {
		return nil, types.ErrBadRequest
	}
	staff := cmd.Staff
	return s.transition(ctx, cmd.BookingID, ActionAssign, &staff)
}

func (s *Service) Decline(ctx context.Context, cmd DeclineCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, ActionDecline, nil)
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Booking, error) {
	if cmd.StaffUserID != "" {
		if err := s.checkAssigned(ctx, cmd); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, cmd.BookingID, ActionComplete, nil)
}

// checkAssigned reports ErrForbidden unless cmd.StaffUserID owns the profile bound to
// the booking. Staff fields are written once at approval, so the check does not race
// with the transition that follows.
func (s *Service) checkAssigned(ctx context.Context, cmd CompleteCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !cmd.StaffKind.Valid() {
		return fmt.Errorf("%w: unknown staff kind %q", types.ErrForbidden, cmd.StaffKind)
	}
	p, err := s.accounts.ProfileByUser(ctx, cmd.StaffUserID, cmd.StaffKind)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("%w: user %s has no %s profile", types.ErrForbidden, cmd.StaffUserID, cmd.StaffKind)
	}
	if err != nil {
		return err
	}
	bound := b.ProviderID
	if cmd.StaffKind == account.StaffDriver {
		bound = b.DriverID
	}
	if bound == nil || *bound != p.ID {
		return fmt.Errorf("%w: booking %s is not assigned to %s", types.ErrForbidden, b.ID, p.ID)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

// List filters bookings. Staff filters take user ids and are resolved to profile ids;
// a staff user without a matching profile yields an empty list.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Booking, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, types.ErrBadRequest
	}
	f := Filter{UserID: q.UserID, Status: q.Status}
	if q.ProviderUserID != "" {
		p, err := s.accounts.ProfileByUser(ctx, q.ProviderUserID, account.StaffProvider)
		if errors.Is(err, types.ErrNotFound) {
			return []Booking{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.ProviderID = p.ID
	}
	if q.DriverUserID != "" {
		p, err := s.accounts.ProfileByUser(ctx, q.DriverUserID, account.StaffDriver)
		if errors.Is(err, types.ErrNotFound) {
			return []Booking{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.DriverID = p.ID
	}
	return s.store.List(ctx, f)
}

func (s *Service) Ledger(ctx context.Context) ([]LedgerEntry, error) {
	return s.store.Ledger(ctx)
}

func (s *Service) transition(ctx context.Context, id types.ID, action Action, staff *Staff) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking."+string(action),
		trace.WithAttributes(attribute.String("booking.id", string(id))))
	defer span.End()

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	to := action.Target()
	if !CanTransition(b.Status, to) {
		return nil, &TransitionError{From: b.Status, Action: action}
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, staff)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another writer moved the booking first; report what it is now.
		cur, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.log.Warning("booking transition lost race",
			logger.String("booking_id", string(id)),
			logger.String("action", string(action)),
			logger.String("status", string(cur.Status)),
		)
		return nil, &TransitionError{From: cur.Status, Action: action}
	}

	from := b.Status
	b.Status = to
	b.StatusVersion++
	b.UpdatedAt = s.now().UTC()
	if staff != nil {
		pid := staff.ProfileID
		switch staff.Kind {
		case account.StaffProvider:
			b.ProviderID = &pid
		case account.StaffDriver:
			b.DriverID = &pid
		}
	}
	s.log.Info("booking transitioned",
		logger.String("booking_id", string(b.ID)),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
	)
	s.publish(ctx, "booking."+strings.ToLower(string(to)), b)
	return b, nil
}

// schedulable accepts any instant from the start of the current day onwards.
func (s *Service) schedulable(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	now := s.now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return !date.Before(startOfDay)
}

func (s *Service) publish(ctx context.Context, key string, b *Booking) {
	if s.events == nil {
		return
	}
	payload := map[string]any{
		"booking_id": string(b.ID),
		"user_id":    string(b.UserID),
		"service_id": string(b.ServiceID),
		"status":     string(b.Status),
		"date":       b.Date.Format(time.RFC3339),
	}
	if b.ProviderID != nil {
		payload["provider_id"] = string(*b.ProviderID)
	}
	if b.DriverID != nil {
		payload["driver_id"] = string(*b.DriverID)
	}
	if err := s.events.PublishJSON(ctx, key, payload); err != nil {
		s.log.Warning("publish booking event failed",
			logger.String("key", key),
			logger.String("booking_id", string(b.ID)),
			logger.Error(err),
		)
	}
}
