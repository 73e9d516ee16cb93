// README: Dashboard view handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook/internal/modules/dashboard"
	"carebook/internal/types"
)

type ViewHandler struct {
	views *dashboard.Service
}

func NewViewHandler(views *dashboard.Service) *ViewHandler {
	return &ViewHandler{views: views}
}

// UnassignedSubscriptions handles GET /views/unassigned-subscriptions.
func (h *ViewHandler) UnassignedSubscriptions(c *gin.Context) {
	rows, err := h.views.UnassignedSubscriptions(c.Request.Context())
	respondRows(c, rows, err)
}

// UnassignedOrders handles GET /views/unassigned-orders.
func (h *ViewHandler) UnassignedOrders(c *gin.Context) {
	rows, err := h.views.UnassignedOrders(c.Request.Context())
	respondRows(c, rows, err)
}

// Transportation handles GET /views/transportation.
func (h *ViewHandler) Transportation(c *gin.Context) {
	rows, err := h.views.TransportationRequests(c.Request.Context())
	respondRows(c, rows, err)
}

// Renewals handles GET /views/renewals?userId=.
func (h *ViewHandler) Renewals(c *gin.Context) {
	rows, err := h.views.RenewalCandidates(c.Request.Context(), types.ID(c.Query("userId")))
	respondRows(c, rows, err)
}

// Payments handles GET /views/payments?userId=.
func (h *ViewHandler) Payments(c *gin.Context) {
	rows, err := h.views.PaymentHistory(c.Request.Context(), types.ID(c.Query("userId")))
	respondRows(c, rows, err)
}

func respondRows[T any](c *gin.Context, rows []T, err error) {
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"items": rows})
}
