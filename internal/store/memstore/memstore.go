// README: In-memory Entity Store for the "memory" driver and for tests. One lock guards all tables.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carebook/internal/modules/account"
	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
	"carebook/internal/types"
)

type Store struct {
	mu       sync.RWMutex
	users    map[types.ID]account.User
	profiles map[types.ID]account.Profile
	services map[types.ID]catalog.Entry
	bookings map[types.ID]booking.Booking
}

func New() *Store {
	return &Store{
		users:    map[types.ID]account.User{},
		profiles: map[types.ID]account.Profile{},
		services: map[types.ID]catalog.Entry{},
		bookings: map[types.ID]booking.Booking{},
	}
}

// Ping always succeeds; it lets the store stand in for a database health check.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Accounts, Catalog and Bookings are views over the same tables.
func (s *Store) Accounts() *Accounts { return &Accounts{s} }
func (s *Store) Catalog() *Catalog   { return &Catalog{s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s} }

type Accounts struct{ s *Store }

func (a *Accounts) CreateUser(ctx context.Context, u *account.User, p *account.Profile) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.users[u.ID]; ok {
		return fmt.Errorf("%w: duplicate user %s", types.ErrBadRequest, u.ID)
	}
	a.s.users[u.ID] = *u
	if p != nil {
		a.s.profiles[p.ID] = *p
	}
	return nil
}

func (a *Accounts) GetUser(ctx context.Context, id types.ID) (*account.User, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	u, ok := a.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", types.ErrNotFound, id)
	}
	return &u, nil
}

func (a *Accounts) GetProfile(ctx context.Context, id types.ID) (*account.Profile, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	p, ok := a.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", types.ErrNotFound, id)
	}
	return &p, nil
}

func (a *Accounts) ProfileByUser(ctx context.Context, userID types.ID, kind account.StaffKind) (*account.Profile, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	for _, p := range a.s.profiles {
		if p.UserID == userID && p.Kind == kind {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: profile for user %s", types.ErrNotFound, userID)
}

type Catalog struct{ s *Store }

func (c *Catalog) Create(ctx context.Context, e *catalog.Entry) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cp := *e
	cp.Features = append([]string(nil), e.Features...)
	c.s.services[e.ID] = cp
	return nil
}

func (c *Catalog) Get(ctx context.Context, id types.ID) (*catalog.Entry, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	e, ok := c.s.services[id]
	if !ok {
		return nil, fmt.Errorf("%w: service %s", types.ErrNotFound, id)
	}
	return &e, nil
}

func (c *Catalog) List(ctx context.Context, typ catalog.Type) ([]catalog.Entry, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := []catalog.Entry{}
	for _, e := range c.s.services {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type Bookings struct{ s *Store }

func (b *Bookings) Create(ctx context.Context, bk *booking.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.bookings[bk.ID]; ok {
		return fmt.Errorf("%w: duplicate booking %s", types.ErrBadRequest, bk.ID)
	}
	b.s.bookings[bk.ID] = cloneBooking(*bk)
	return nil
}

func (b *Bookings) Get(ctx context.Context, id types.ID) (*booking.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", types.ErrNotFound, id)
	}
	bk = cloneBooking(bk)
	return &bk, nil
}

func (b *Bookings) UpdateStatus(ctx context.Context, id types.ID, from, to booking.Status, version int, staff *booking.Staff) (bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok || bk.Status != from || bk.StatusVersion != version {
		return false, nil
	}
	bk.Status = to
	bk.StatusVersion++
	bk.UpdatedAt = time.Now().UTC()
	if staff != nil {
		pid := staff.ProfileID
		switch staff.Kind {
		case account.StaffProvider:
			bk.ProviderID = &pid
		case account.StaffDriver:
			bk.DriverID = &pid
		}
	}
	b.s.bookings[id] = bk
	return true, nil
}

func (b *Bookings) List(ctx context.Context, f booking.Filter) ([]booking.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	out := []booking.Booking{}
	for _, bk := range b.s.bookings {
		if f.UserID != "" && bk.UserID != f.UserID {
			continue
		}
		if f.ProviderID != "" && (bk.ProviderID == nil || *bk.ProviderID != f.ProviderID) {
			continue
		}
		if f.DriverID != "" && (bk.DriverID == nil || *bk.DriverID != f.DriverID) {
			continue
		}
		if f.Status != "" && bk.Status != f.Status {
			continue
		}
		out = append(out, cloneBooking(bk))
	}
	sortBookings(out, func(i int) booking.Booking { return out[i] })
	return out, nil
}

func (b *Bookings) Ledger(ctx context.Context) ([]booking.LedgerEntry, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	out := make([]booking.LedgerEntry, 0, len(b.s.bookings))
	for _, bk := range b.s.bookings {
		e := booking.LedgerEntry{Booking: cloneBooking(bk)}
		if u, ok := b.s.users[bk.UserID]; ok {
			e.FamilyName = u.Name
		}
		if svc, ok := b.s.services[bk.ServiceID]; ok {
			e.Service = &svc
		}
		e.ProviderName = b.s.staffName(bk.ProviderID)
		e.DriverName = b.s.staffName(bk.DriverID)
		out = append(out, e)
	}
	sortBookings(out, func(i int) booking.Booking { return out[i].Booking })
	return out, nil
}

// staffName is called with mu held.
func (s *Store) staffName(profileID *types.ID) string {
	if profileID == nil {
		return ""
	}
	p, ok := s.profiles[*profileID]
	if !ok {
		return ""
	}
	return s.users[p.UserID].Name
}

// sortBookings orders by date descending, then id ascending.
func sortBookings[T any](items []T, at func(int) booking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := at(i), at(j)
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
}

func cloneBooking(b booking.Booking) booking.Booking {
	if b.ProviderID != nil {
		b.ProviderID = b.ProviderID.Ptr()
	}
	if b.DriverID != nil {
		b.DriverID = b.DriverID.Ptr()
	}
	return b
}
