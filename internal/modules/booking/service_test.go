// README: Booking service tests (lifecycle flow, invalid requests and concurrent approvals).
package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/account"
	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
	"carebook/internal/store/memstore"
	"carebook/internal/types"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *booking.Service
	accounts *account.Service
	family   *account.User
	provider *account.Profile
	driver   *account.Profile
	admin    *account.User
	service  *catalog.Entry
	events   *recordingPublisher
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	accounts := account.NewService(store.Accounts())
	cat := catalog.NewService(store.Catalog())

	f := &fixture{accounts: accounts, events: &recordingPublisher{}}
	var err error
	if f.family, _, err = accounts.Register(ctx, account.RegisterCommand{Name: "Wanjiru Family", Role: account.RoleFamily}); err != nil {
		t.Fatalf("register family: %v", err)
	}
	if _, f.provider, err = accounts.Register(ctx, account.RegisterCommand{Name: "Nurse Achieng", Role: account.RoleProvider}); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	if _, f.driver, err = accounts.Register(ctx, account.RegisterCommand{Name: "Driver Otieno", Role: account.RoleDriver}); err != nil {
		t.Fatalf("register driver: %v", err)
	}
	if f.admin, _, err = accounts.Register(ctx, account.RegisterCommand{Name: "Ops", Role: account.RoleAdmin}); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if f.service, err = cat.Create(ctx, catalog.CreateCommand{
		Title: "Premium Care", Price: decimal.NewFromInt(15000), Type: catalog.TypeSubscription,
	}); err != nil {
		t.Fatalf("create service: %v", err)
	}

	f.svc = booking.NewService(store.Bookings(), accounts, cat,
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithPublisher(f.events),
	)
	return f
}

func (f *fixture) create(t *testing.T) *booking.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), booking.CreateCommand{
		UserID:    f.family.ID,
		ServiceID: f.service.ID,
		Date:      fixedNow.Add(48 * time.Hour),
		Notes:     "  mornings only ",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func (f *fixture) approveProvider(t *testing.T, id types.ID) *booking.Booking {
	t.Helper()
	b, err := f.svc.Approve(context.Background(), booking.ApproveCommand{
		BookingID: id,
		Staff:     booking.Staff{Kind: account.StaffProvider, ProfileID: f.provider.ID},
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return b
}

func assertStatus(t *testing.T, svc *booking.Service, id types.ID, want booking.Status) {
	t.Helper()
	b, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != want {
		t.Fatalf("status = %s, want %s", b.Status, want)
	}
}

func TestCreateStartsPending(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	if b.Status != booking.StatusPending || b.StatusVersion != 0 {
		t.Fatalf("got status %s version %d", b.Status, b.StatusVersion)
	}
	if b.ProviderID != nil || b.DriverID != nil {
		t.Fatal("new booking must have no staff")
	}
	if b.Notes != "mornings only" {
		t.Fatalf("notes = %q", b.Notes)
	}
	assertStatus(t, f.svc, b.ID, booking.StatusPending)
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startOfToday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		cmd  booking.CreateCommand
		want error
	}{
		{"admin cannot book", booking.CreateCommand{UserID: f.admin.ID, ServiceID: f.service.ID, Date: fixedNow}, types.ErrInvalidRole},
		{"staff cannot book", booking.CreateCommand{UserID: f.provider.UserID, ServiceID: f.service.ID, Date: fixedNow}, types.ErrInvalidRole},
		{"unknown user", booking.CreateCommand{UserID: "missing", ServiceID: f.service.ID, Date: fixedNow}, types.ErrNotFound},
		{"unknown service", booking.CreateCommand{UserID: f.family.ID, ServiceID: "missing", Date: fixedNow}, types.ErrNotFound},
		{"yesterday", booking.CreateCommand{UserID: f.family.ID, ServiceID: f.service.ID, Date: startOfToday.Add(-time.Second)}, types.ErrInvalidSchedule},
		{"zero date", booking.CreateCommand{UserID: f.family.ID, ServiceID: f.service.ID}, types.ErrInvalidSchedule},
		{"missing ids", booking.CreateCommand{Date: fixedNow}, types.ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	list, err := f.svc.List(ctx, booking.ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected creates must not persist, found %d bookings", len(list))
	}
}

func TestCreateAcceptsEarlierToday(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), booking.CreateCommand{
		UserID:    f.family.ID,
		ServiceID: f.service.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("start of today should be bookable: %v", err)
	}
}

func TestScheduleUsesConfiguredZone(t *testing.T) {
	f := newFixture(t)
	nairobi := time.FixedZone("EAT", 3*60*60)
	// 22:00 UTC on the 10th is already the 11th in Nairobi, so 20:59 UTC is yesterday there.
	late := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	svc := booking.NewService(nil, f.accounts, catalogOf(f),
		booking.WithClock(func() time.Time { return late }),
		booking.WithLocation(nairobi),
	)
	_, err := svc.Create(context.Background(), booking.CreateCommand{
		UserID:    f.family.ID,
		ServiceID: f.service.ID,
		Date:      time.Date(2026, 3, 10, 20, 59, 0, 0, time.UTC),
	})
	if !errors.Is(err, types.ErrInvalidSchedule) {
		t.Fatalf("err = %v, want ErrInvalidSchedule", err)
	}
}

type staticCatalog struct{ e *catalog.Entry }

func (c staticCatalog) Get(ctx context.Context, id types.ID) (*catalog.Entry, error) {
	if id != c.e.ID {
		return nil, types.ErrNotFound
	}
	return c.e, nil
}

func catalogOf(f *fixture) staticCatalog { return staticCatalog{f.service} }

func TestLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t)

	approved := f.approveProvider(t, b.ID)
	if approved.Status != booking.StatusApproved || approved.StatusVersion != 1 {
		t.Fatalf("approve: status %s version %d", approved.Status, approved.StatusVersion)
	}
	if approved.ProviderID == nil || *approved.ProviderID != f.provider.ID {
		t.Fatalf("provider not bound: %v", approved.ProviderID)
	}

	done, err := f.svc.Complete(ctx, booking.CompleteCommand{BookingID: b.ID})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != booking.StatusCompleted || done.StatusVersion != 2 {
		t.Fatalf("complete: status %s version %d", done.Status, done.StatusVersion)
	}

	stored, err := f.svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ProviderID == nil || *stored.ProviderID != f.provider.ID {
		t.Fatal("completion must keep the provider binding")
	}

	want := []string{"booking.created", "booking.approved", "booking.completed"}
	if fmt.Sprint(f.events.keys) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", f.events.keys, want)
	}
}

func TestDeclinePending(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	got, err := f.svc.Decline(context.Background(), booking.DeclineCommand{BookingID: b.ID})
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Status != booking.StatusDeclined {
		t.Fatalf("status = %s", got.Status)
	}
	if got.ProviderID != nil || got.DriverID != nil {
		t.Fatal("decline must not bind staff")
	}
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t)
	if _, err := f.svc.Complete(ctx, booking.CompleteCommand{BookingID: pending.ID}); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("complete pending: %v", err)
	}
	assertStatus(t, f.svc, pending.ID, booking.StatusPending)

	approved := f.create(t)
	f.approveProvider(t, approved.ID)
	_, err := f.svc.Decline(ctx, booking.DeclineCommand{BookingID: approved.ID})
	var te *booking.TransitionError
	if !errors.As(err, &te) || te.From != booking.StatusApproved {
		t.Fatalf("decline approved: %v", err)
	}

	declined := f.create(t)
	if _, err := f.svc.Decline(ctx, booking.DeclineCommand{BookingID: declined.ID}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	before, _ := f.svc.Get(ctx, declined.ID)
	for _, attempt := range []func() error{
		func() error {
			_, err := f.svc.Decline(ctx, booking.DeclineCommand{BookingID: declined.ID})
			return err
		},
		func() error {
			_, err := f.svc.Complete(ctx, booking.CompleteCommand{BookingID: declined.ID})
			return err
		},
		func() error {
			_, err := f.svc.Approve(ctx, booking.ApproveCommand{BookingID: declined.ID, Staff: booking.Staff{Kind: account.StaffDriver, ProfileID: f.driver.ID}})
			return err
		},
	} {
		if err := attempt(); !errors.Is(err, types.ErrInvalidTransition) {
			t.Fatalf("terminal booking accepted a transition: %v", err)
		}
	}
	after, _ := f.svc.Get(ctx, declined.ID)
	if after.StatusVersion != before.StatusVersion || after.DriverID != nil {
		t.Fatal("terminal booking was modified")
	}
}

func TestTransitionUnknownBooking(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Decline(context.Background(), booking.DeclineCommand{BookingID: "nope"}); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompleteByAssignedStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t)
	f.approveProvider(t, b.ID)

	_, other, err := f.accounts.Register(ctx, account.RegisterCommand{Name: "Nurse Kerubo", Role: account.RoleProvider})
	if err != nil {
		t.Fatalf("register provider: %v", err)
	}
	denied := []booking.CompleteCommand{
		{BookingID: b.ID, StaffUserID: other.UserID, StaffKind: account.StaffProvider},
		// the driver was never bound to this booking
		{BookingID: b.ID, StaffUserID: f.driver.UserID, StaffKind: account.StaffDriver},
		// a provider user has no driver profile
		{BookingID: b.ID, StaffUserID: f.provider.UserID, StaffKind: account.StaffDriver},
	}
	for _, cmd := range denied {
		if _, err := f.svc.Complete(ctx, cmd); !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("complete as %s %s: err = %v, want ErrForbidden", cmd.StaffKind, cmd.StaffUserID, err)
		}
	}
	assertStatus(t, f.svc, b.ID, booking.StatusApproved)

	if _, err := f.svc.Complete(ctx, booking.CompleteCommand{BookingID: types.NewID(), StaffUserID: other.UserID, StaffKind: account.StaffProvider}); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing booking: err = %v, want ErrNotFound", err)
	}

	done, err := f.svc.Complete(ctx, booking.CompleteCommand{BookingID: b.ID, StaffUserID: f.provider.UserID, StaffKind: account.StaffProvider})
	if err != nil {
		t.Fatalf("complete as assigned provider: %v", err)
	}
	if done.Status != booking.StatusCompleted {
		t.Fatalf("status = %s", done.Status)
	}
}

func TestApproveRequiresStaff(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)
	_, err := f.svc.Approve(context.Background(), booking.ApproveCommand{BookingID: b.ID})
	if !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	assertStatus(t, f.svc, b.ID, booking.StatusPending)
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.events.fail = true
	b := f.create(t)
	assertStatus(t, f.svc, b.ID, booking.StatusPending)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t)
	f.approveProvider(t, a.ID)
	d := f.create(t)
	if _, err := f.svc.Decline(ctx, booking.DeclineCommand{BookingID: d.ID}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	f.create(t)

	all, err := f.svc.List(ctx, booking.ListQuery{UserID: f.family.ID})
	if err != nil || len(all) != 3 {
		t.Fatalf("list by user: %d, %v", len(all), err)
	}

	byProvider, err := f.svc.List(ctx, booking.ListQuery{ProviderUserID: f.provider.UserID})
	if err != nil || len(byProvider) != 1 || byProvider[0].ID != a.ID {
		t.Fatalf("list by provider: %v, %v", byProvider, err)
	}

	pending, err := f.svc.List(ctx, booking.ListQuery{Status: booking.StatusPending})
	if err != nil || len(pending) != 1 {
		t.Fatalf("list pending: %d, %v", len(pending), err)
	}

	// A family user has no provider profile, so the filter matches nothing.
	none, err := f.svc.List(ctx, booking.ListQuery{ProviderUserID: f.family.ID})
	if err != nil || len(none) != 0 {
		t.Fatalf("list by non-provider: %v, %v", none, err)
	}

	if _, err := f.svc.List(ctx, booking.ListQuery{Status: "CANCELLED"}); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("bad status filter: %v", err)
	}
}

func TestLedgerJoinsNames(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)
	f.approveProvider(t, b.ID)

	entries, err := f.svc.Ledger(context.Background())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.FamilyName != "Wanjiru Family" || e.ProviderName != "Nurse Achieng" || e.DriverName != "" {
		t.Fatalf("unexpected names: %+v", e)
	}
	if e.Service == nil || e.Service.Title != "Premium Care" {
		t.Fatalf("service not joined: %+v", e.Service)
	}
}

func TestConcurrentApproveSameBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t)

	const attempts = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		staff := booking.Staff{Kind: account.StaffProvider, ProfileID: f.provider.ID}
		if i%2 == 1 {
			staff = booking.Staff{Kind: account.StaffDriver, ProfileID: f.driver.ID}
		}
		wg.Add(1)
		go func(s booking.Staff) {
			defer wg.Done()
			<-start
			_, err := f.svc.Approve(ctx, booking.ApproveCommand{BookingID: b.ID, Staff: s})
			errs <- err
		}(staff)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, types.ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	got, err := f.svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != booking.StatusApproved || got.StatusVersion != 1 {
		t.Fatalf("final status %s version %d", got.Status, got.StatusVersion)
	}
	if (got.ProviderID == nil) == (got.DriverID == nil) {
		t.Fatal("exactly one staff field must be bound")
	}
}
