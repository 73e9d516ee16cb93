// README: Assignment resolver tests (eligibility, single-shot assign, concurrent assigns).
package assignment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/account"
	"carebook/internal/modules/assignment"
	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
	"carebook/internal/store/memstore"
	"carebook/internal/types"
)

type fixture struct {
	svc       *assignment.Service
	bookings  *booking.Service
	providers []*account.Profile
	driver    *account.Profile
	booking   *booking.Booking
}

func newFixture(t *testing.T, providers int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	accounts := account.NewService(store.Accounts())
	cat := catalog.NewService(store.Catalog())
	f := &fixture{}

	family, _, err := accounts.Register(ctx, account.RegisterCommand{Name: "Mutua Family", Role: account.RoleFamily})
	if err != nil {
		t.Fatalf("register family: %v", err)
	}
	for i := 0; i < providers; i++ {
		_, p, err := accounts.Register(ctx, account.RegisterCommand{Name: "Carer", Role: account.RoleProvider})
		if err != nil {
			t.Fatalf("register provider: %v", err)
		}
		f.providers = append(f.providers, p)
	}
	if _, f.driver, err = accounts.Register(ctx, account.RegisterCommand{Name: "Driver Kiprop", Role: account.RoleDriver}); err != nil {
		t.Fatalf("register driver: %v", err)
	}
	svc, err := cat.Create(ctx, catalog.CreateCommand{Title: "Basic Care", Price: decimal.NewFromInt(15000), Type: catalog.TypeSubscription})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	f.bookings = booking.NewService(store.Bookings(), accounts, cat)
	if f.booking, err = f.bookings.Create(ctx, booking.CreateCommand{
		UserID: family.ID, ServiceID: svc.ID, Date: time.Now().Add(24 * time.Hour),
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	f.svc = assignment.NewService(f.bookings, accounts, nil, nil)
	return f
}

func TestAssignDriver(t *testing.T) {
	f := newFixture(t, 1)
	res, err := f.svc.Assign(context.Background(), assignment.AssignCommand{
		BookingID: f.booking.ID, Kind: account.StaffDriver, ProfileID: f.driver.ID,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.StaffName != "Driver Kiprop" {
		t.Fatalf("staff name = %q", res.StaffName)
	}
	b := res.Booking
	if b.Status != booking.StatusApproved || b.DriverID == nil || *b.DriverID != f.driver.ID || b.ProviderID != nil {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestAssignIsSingleShot(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	first := f.providers[0]

	if _, err := f.svc.Assign(ctx, assignment.AssignCommand{BookingID: f.booking.ID, Kind: account.StaffProvider, ProfileID: first.ID}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := f.svc.Assign(ctx, assignment.AssignCommand{BookingID: f.booking.ID, Kind: account.StaffProvider, ProfileID: f.providers[1].ID})
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("second assign: %v", err)
	}
	// Assigning the other staff kind afterwards is rejected too.
	_, err = f.svc.Assign(ctx, assignment.AssignCommand{BookingID: f.booking.ID, Kind: account.StaffDriver, ProfileID: f.driver.ID})
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("driver after provider: %v", err)
	}

	b, _ := f.bookings.Get(ctx, f.booking.ID)
	if b.ProviderID == nil || *b.ProviderID != first.ID || b.DriverID != nil {
		t.Fatalf("staff changed after approval: %+v", b)
	}
}

func TestAssignNotFound(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	cases := map[string]assignment.AssignCommand{
		"missing booking": {BookingID: "nope", Kind: account.StaffProvider, ProfileID: f.providers[0].ID},
		"missing profile": {BookingID: f.booking.ID, Kind: account.StaffProvider, ProfileID: "nope"},
		"kind mismatch":   {BookingID: f.booking.ID, Kind: account.StaffProvider, ProfileID: f.driver.ID},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Assign(ctx, cmd); !errors.Is(err, types.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
	b, _ := f.bookings.Get(ctx, f.booking.ID)
	if b.Status != booking.StatusPending {
		t.Fatalf("failed assigns changed status to %s", b.Status)
	}
}

func TestAssignRejectsUnknownKind(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Assign(context.Background(), assignment.AssignCommand{BookingID: f.booking.ID, Kind: "NURSE", ProfileID: f.providers[0].ID})
	if !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestConcurrentAssignSameBooking(t *testing.T) {
	const attempts = 8
	f := newFixture(t, attempts)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, attempts)
	for _, p := range f.providers {
		wg.Add(1)
		go func(pid types.ID) {
			defer wg.Done()
			<-start
			_, err := f.svc.Assign(ctx, assignment.AssignCommand{BookingID: f.booking.ID, Kind: account.StaffProvider, ProfileID: pid})
			errs <- err
		}(p.ID)
	}
	close(start)
	wg.Wait()
	close(errs)

	success, invalid := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, types.ErrInvalidTransition):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || invalid != attempts-1 {
		t.Fatalf("success=%d invalid=%d", success, invalid)
	}

	b, _ := f.bookings.Get(ctx, f.booking.ID)
	if b.Status != booking.StatusApproved || b.ProviderID == nil || b.DriverID != nil {
		t.Fatalf("final booking: %+v", b)
	}
}

func TestLocalLockerSerialises(t *testing.T) {
	l := assignment.NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "b1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	acquired := make(chan struct{})
	go func() {
		r, _ := l.Acquire(ctx, "b1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	// Other bookings are independent.
	other, err := l.Acquire(ctx, "b2")
	if err != nil {
		t.Fatalf("acquire other: %v", err)
	}
	other()

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not handed over after release")
	}
}
