package booking

import "errors"

// Sentinel errors surfaced by the booking core. Handlers translate these to
// HTTP statuses; everything else bubbles up as an internal error.
var (
	ErrValidation       = errors.New("invalid booking input")
	ErrNotFound         = errors.New("not found")
	ErrSoldOut          = errors.New("ticket sold out")
	ErrCapacityExceeded = errors.New("ticket capacity exceeded")
	ErrInvalidState     = errors.New("booking is not in a valid state for this operation")
	ErrBookingExpired   = errors.New("booking hold has expired")
	ErrForbidden        = errors.New("not allowed to act on this booking")
)
