package ai

// recommendationResult is the JSON shape the model is asked to return.
type recommendationResult struct {
	Recommendations []string `json:"recommendations"`
}

// reportSummary is the subset of the analytics report sent to the model.
type reportSummary struct {
	Currency        string        `json:"currency"`
	TotalRevenue    string        `json:"total_revenue"`
	TotalBookings   int           `json:"total_bookings"`
	PendingBookings int           `json:"pending_bookings"`
	Plans           []planSummary `json:"plans"`
}

type planSummary struct {
	Title          string `json:"title"`
	Revenue        string `json:"revenue"`
	RevenuePercent int    `json:"revenue_percent"`
	Bookings       int    `json:"bookings"`
}
