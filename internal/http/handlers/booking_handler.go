// README: Booking handlers (create/list/get and the lifecycle actions).
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carebook/internal/http/middleware"
	"carebook/internal/modules/account"
	"carebook/internal/modules/assignment"
	"carebook/internal/modules/booking"
	"carebook/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
	assign  *assignment.Service
	loc     *time.Location
}

func NewBookingHandler(bookingSvc *booking.Service, assignSvc *assignment.Service, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{booking: bookingSvc, assign: assignSvc, loc: loc}
}

type createBookingReq struct {
	UserID    string `json:"userId"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.ServiceID) == "" || strings.TrimSpace(req.Date) == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	date, err := parseDate(req.Date, h.loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		UserID:    types.ID(strings.TrimSpace(req.UserID)),
		ServiceID: types.ID(strings.TrimSpace(req.ServiceID)),
		Date:      date,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingResponse(b))
}

// List handles GET /bookings?userId=&providerUserId=&driverUserId=&status=.
func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.booking.List(c.Request.Context(), booking.ListQuery{
		UserID:         types.ID(c.Query("userId")),
		ProviderUserID: types.ID(c.Query("providerUserId")),
		DriverUserID:   types.ID(c.Query("driverUserId")),
		Status:         booking.Status(strings.ToUpper(c.Query("status"))),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]bookingResponse, len(list))
	for i := range list {
		out[i] = toBookingResponse(&list[i])
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": out})
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.booking.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

type assignReq struct {
	Kind      string `json:"kind"`
	ProfileID string `json:"profileId"`
}

// Assign handles POST /bookings/:id/assign.
func (h *BookingHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	h.doAssign(c, account.StaffKind(strings.ToUpper(req.Kind)), req.ProfileID)
}

// Decline handles POST /bookings/:id/decline.
func (h *BookingHandler) Decline(c *gin.Context) {
	b, err := h.booking.Decline(c.Request.Context(), booking.DeclineCommand{BookingID: types.ID(c.Param("id"))})
	h.respond(c, b, err)
}

// Complete handles POST /bookings/:id/complete. Provider and driver callers may only
// complete bookings they are assigned to.
func (h *BookingHandler) Complete(c *gin.Context) {
	cmd := booking.CompleteCommand{BookingID: types.ID(c.Param("id"))}
	if kind, ok := account.StaffKindFor(account.Role(middleware.CallerRole(c))); ok {
		cmd.StaffUserID = types.ID(middleware.CallerUID(c))
		cmd.StaffKind = kind
	}
	b, err := h.booking.Complete(c.Request.Context(), cmd)
	h.respond(c, b, err)
}

type patchBookingReq struct {
	Status     *string `json:"status"`
	ProviderID *string `json:"providerId"`
	DriverID   *string `json:"driverId"`
}

// Patch handles PATCH /bookings/:id. A staff id (optionally with status APPROVED)
// assigns; status DECLINED or COMPLETED runs that action.
func (h *BookingHandler) Patch(c *gin.Context) {
	var req patchBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	provider, driver := trimmed(req.ProviderID), trimmed(req.DriverID)
	status := booking.Status(strings.ToUpper(trimmed(req.Status)))

	if provider != "" && driver != "" {
		writeError(c, http.StatusBadRequest, "assign either a provider or a driver, not both")
		return
	}
	if provider != "" || driver != "" {
		if status != "" && status != booking.StatusApproved {
			writeError(c, http.StatusBadRequest, "staff can only be set when approving")
			return
		}
		if provider != "" {
			h.doAssign(c, account.StaffProvider, provider)
		} else {
			h.doAssign(c, account.StaffDriver, driver)
		}
		return
	}

	switch status {
	case booking.StatusDeclined:
		h.Decline(c)
	case booking.StatusCompleted:
		h.Complete(c)
	case "":
		writeError(c, http.StatusBadRequest, "nothing to update")
	default:
		if !status.Valid() {
			writeError(c, http.StatusBadRequest, "unknown status")
			return
		}
		// PENDING, or APPROVED without staff, is not reachable by any action.
		writeDomainError(c, types.ErrInvalidTransition)
	}
}

func (h *BookingHandler) doAssign(c *gin.Context, kind account.StaffKind, profileID string) {
	res, err := h.assign.Assign(c.Request.Context(), assignment.AssignCommand{
		BookingID: types.ID(c.Param("id")),
		Kind:      kind,
		ProfileID: types.ID(strings.TrimSpace(profileID)),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, assignResponse{Booking: toBookingResponse(res.Booking), StaffName: res.StaffName})
}

func (h *BookingHandler) respond(c *gin.Context, b *booking.Booking, err error) {
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
