// README: Title-based booking classification. Replace with a catalog category field once one exists.
package dashboard

import (
	"strings"

	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
)

func titleContains(e booking.LedgerEntry, word string) bool {
	if e.Service == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Service.Title), word)
}

func isSubscription(e booking.LedgerEntry) bool {
	return e.Service != nil && e.Service.Type == catalog.TypeSubscription
}

// isOrder covers one-time services plus grocery runs sold under any type.
func isOrder(e booking.LedgerEntry) bool {
	if e.Service != nil && e.Service.Type == catalog.TypeOneTime {
		return true
	}
	return titleContains(e, "grocery")
}

func isTransport(e booking.LedgerEntry) bool {
	return titleContains(e, "transport")
}

func isPaid(e booking.LedgerEntry) bool {
	s := e.Booking.Status
	return s == booking.StatusApproved || s == booking.StatusCompleted
}
