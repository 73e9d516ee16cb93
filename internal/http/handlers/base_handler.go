// README: Base handler utilities (JSON helpers, error mapping, request parsing).
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carebook/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Kind: types.Kind(types.ErrBadRequest)})
}

// writeDomainError maps an error kind to its HTTP status.
func writeDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidRole), errors.Is(err, types.ErrInvalidSchedule):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, types.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		_ = c.Error(err)
		msg = http.StatusText(status)
	}
	writeJSON(c, status, errorResponse{Error: msg, Kind: types.Kind(err)})
}

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates, the latter at
// midnight in loc.
func parseDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, v, loc)
}
