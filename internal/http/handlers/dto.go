// README: JSON response shapes for bookings, assignments and catalog entries.
package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
	"carebook/internal/types"
)

type bookingResponse struct {
	ID         types.ID       `json:"id"`
	UserID     types.ID       `json:"userId"`
	ServiceID  types.ID       `json:"serviceId"`
	ProviderID *types.ID      `json:"providerId"`
	DriverID   *types.ID      `json:"driverId"`
	Date       time.Time      `json:"date"`
	Notes      string         `json:"notes"`
	Status     booking.Status `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func toBookingResponse(b *booking.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		ServiceID:  b.ServiceID,
		ProviderID: b.ProviderID,
		DriverID:   b.DriverID,
		Date:       b.Date,
		Notes:      b.Notes,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

type assignResponse struct {
	Booking   bookingResponse `json:"booking"`
	StaffName string          `json:"staffName"`
}

type serviceResponse struct {
	ID          types.ID        `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        catalog.Type    `json:"type"`
	Features    []string        `json:"features"`
}

func toServiceResponse(e catalog.Entry) serviceResponse {
	features := e.Features
	if features == nil {
		features = []string{}
	}
	return serviceResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Type:        e.Type,
		Features:    features,
	}
}
