// README: Analytics aggregation over a ledger snapshot (revenue per plan and service usage).
package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/booking"
)

const unknownPlan = "Unknown"

type Options struct {
	// RealizedOnly counts revenue from APPROVED and COMPLETED bookings only.
	RealizedOnly bool
	Currency     string
}

type PlanRevenue struct {
	Title   string          `json:"title"`
	Revenue decimal.Decimal `json:"revenue"`
	Percent int             `json:"percent"`
}

type ServiceUsage struct {
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

type SystemHealth struct {
	Database string `json:"database"`
	API      string `json:"api"`
}

type Report struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	Currency        string          `json:"currency"`
	TotalBookings   int             `json:"totalBookings"`
	PendingBookings int             `json:"pendingBookings"`
	RevenueByPlan   []PlanRevenue   `json:"revenueByPlan"`
	ServiceUsage    []ServiceUsage  `json:"serviceUsage"`
	SystemHealth    SystemHealth    `json:"systemHealth"`
	Recommendations []string        `json:"recommendations"`
}

// Aggregate folds the ledger once. Health and recommendations are left for the caller.
func Aggregate(entries []booking.LedgerEntry, opts Options) Report {
	revenue := map[string]decimal.Decimal{}
	usage := map[string]int{}
	total := decimal.Zero
	pending := 0

	for _, e := range entries {
		title, price := unknownPlan, decimal.Zero
		if e.Service != nil {
			title, price = e.Service.Title, e.Service.Price
		}
		usage[title]++
		if e.Booking.Status == booking.StatusPending {
			pending++
		}
		if opts.RealizedOnly && !realized(e.Booking.Status) {
			continue
		}
		revenue[title] = revenue[title].Add(price)
		total = total.Add(price)
	}

	r := Report{
		TotalRevenue:    total,
		Currency:        opts.Currency,
		TotalBookings:   len(entries),
		PendingBookings: pending,
		RevenueByPlan:   make([]PlanRevenue, 0, len(revenue)),
		ServiceUsage:    make([]ServiceUsage, 0, len(usage)),
		Recommendations: []string{},
	}
	for title, amount := range revenue {
		r.RevenueByPlan = append(r.RevenueByPlan, PlanRevenue{
			Title:   title,
			Revenue: amount,
			Percent: decimalPercent(amount, total),
		})
	}
	for title, count := range usage {
		r.ServiceUsage = append(r.ServiceUsage, ServiceUsage{
			Title:   title,
			Count:   count,
			Percent: countPercent(count, len(entries)),
		})
	}

	sort.Slice(r.RevenueByPlan, func(i, j int) bool {
		a, b := r.RevenueByPlan[i], r.RevenueByPlan[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.Title < b.Title
	})
	sort.Slice(r.ServiceUsage, func(i, j int) bool {
		a, b := r.ServiceUsage[i], r.ServiceUsage[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Title < b.Title
	})
	return r
}

func realized(s booking.Status) bool {
	return s == booking.StatusApproved || s == booking.StatusCompleted
}

func decimalPercent(part, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart())
}

func countPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
