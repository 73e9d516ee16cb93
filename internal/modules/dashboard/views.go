// README: Dashboard views derived from a ledger snapshot. All functions are pure.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/booking"
	"carebook/internal/types"
)

const (
	unknownFamily      = "Unknown"
	unknownService     = "Service"
	destinationUnknown = "Not specified"
	subscriptionPeriod = 30 * 24 * time.Hour
)

type Row struct {
	BookingID   types.ID       `json:"bookingId"`
	UserID      types.ID       `json:"userId"`
	FamilyName  string         `json:"familyName"`
	ServiceName string         `json:"serviceName"`
	Date        time.Time      `json:"date"`
	Status      booking.Status `json:"status"`
	Notes       string         `json:"notes"`
}

type TransportRow struct {
	Row
	DriverName  string `json:"driverName,omitempty"`
	Destination string `json:"destination"`
}

type RenewalRow struct {
	Row
	ExpiryDate time.Time `json:"expiryDate"`
	DaysLeft   int       `json:"daysLeft"`
}

type PaymentRow struct {
	TransactionID string         `json:"transactionId"`
	BookingID     types.ID       `json:"bookingId"`
	UserID        types.ID       `json:"userId"`
	FamilyName    string         `json:"familyName"`
	ServiceName   string         `json:"serviceName"`
	Date          time.Time      `json:"date"`
	Status        booking.Status `json:"status"`
	Amount        types.Money    `json:"amount"`
}

func UnassignedSubscriptions(entries []booking.LedgerEntry) []Row {
	out := []Row{}
	for _, e := range sorted(entries) {
		if isSubscription(e) && e.Booking.Status == booking.StatusPending {
			out = append(out, rowOf(e))
		}
	}
	return out
}

func UnassignedOrders(entries []booking.LedgerEntry) []Row {
	out := []Row{}
	for _, e := range sorted(entries) {
		if isOrder(e) && e.Booking.Status == booking.StatusPending {
			out = append(out, rowOf(e))
		}
	}
	return out
}

// TransportationRequests lists transport bookings in any status. Pickup and drop-off
// are not recorded, so the destination is always a placeholder.
func TransportationRequests(entries []booking.LedgerEntry) []TransportRow {
	out := []TransportRow{}
	for _, e := range sorted(entries) {
		if isTransport(e) {
			out = append(out, TransportRow{
				Row:         rowOf(e),
				DriverName:  e.DriverName,
				Destination: destinationUnknown,
			})
		}
	}
	return out
}

// RenewalCandidates lists subscription bookings with their expiry one period after the
// booking date. DaysLeft is truncated toward zero and negative once expired.
func RenewalCandidates(entries []booking.LedgerEntry, now time.Time) []RenewalRow {
	out := []RenewalRow{}
	for _, e := range sorted(entries) {
		if !isSubscription(e) {
			continue
		}
		expiry := e.Booking.Date.Add(subscriptionPeriod)
		out = append(out, RenewalRow{
			Row:        rowOf(e),
			ExpiryDate: expiry,
			DaysLeft:   int(expiry.Sub(now) / (24 * time.Hour)),
		})
	}
	return out
}

func PaymentHistory(entries []booking.LedgerEntry, currency string) []PaymentRow {
	out := []PaymentRow{}
	for _, e := range sorted(entries) {
		if !isPaid(e) {
			continue
		}
		amount := decimal.Zero
		if e.Service != nil {
			amount = e.Service.Price
		}
		r := rowOf(e)
		out = append(out, PaymentRow{
			TransactionID: fmt.Sprintf("TXN-%s", e.Booking.ID),
			BookingID:     r.BookingID,
			UserID:        r.UserID,
			FamilyName:    r.FamilyName,
			ServiceName:   r.ServiceName,
			Date:          r.Date,
			Status:        r.Status,
			Amount:        types.NewMoney(amount, currency),
		})
	}
	return out
}

// ForUser keeps the entries booked by userID; an empty id keeps everything.
func ForUser(entries []booking.LedgerEntry, userID types.ID) []booking.LedgerEntry {
	if userID == "" {
		return entries
	}
	out := make([]booking.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Booking.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func rowOf(e booking.LedgerEntry) Row {
	r := Row{
		BookingID:   e.Booking.ID,
		UserID:      e.Booking.UserID,
		FamilyName:  e.FamilyName,
		ServiceName: unknownService,
		Date:        e.Booking.Date,
		Status:      e.Booking.Status,
		Notes:       e.Booking.Notes,
	}
	if r.FamilyName == "" {
		r.FamilyName = unknownFamily
	}
	if e.Service != nil && e.Service.Title != "" {
		r.ServiceName = e.Service.Title
	}
	return r
}

// sorted returns a copy ordered by date descending, then booking id ascending.
func sorted(entries []booking.LedgerEntry) []booking.LedgerEntry {
	out := append([]booking.LedgerEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Booking, out[j].Booking
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
	return out
}
