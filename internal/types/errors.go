// README: Error kinds returned by the booking core; compare with errors.Is.
package types

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidSchedule   = errors.New("invalid schedule")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrBadRequest        = errors.New("bad request")
	ErrForbidden         = errors.New("forbidden")
)

// Retryable reports whether err may succeed if the caller retries the same input.
// Only transient store failures qualify.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Kind names the error kind of err for API responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidRole):
		return "InvalidRole"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrInvalidSchedule):
		return "InvalidSchedule"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	default:
		return "Internal"
	}
}
