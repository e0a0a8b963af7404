package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow     = errors.New("invalid booking window")
	ErrConflict          = errors.New("booking window overlaps an existing reservation")
	ErrForbidden         = errors.New("actor is not allowed to perform this operation")
	ErrInvalidTransition = errors.New("booking status does not permit this change")
	ErrAlreadyReleased   = errors.New("escrow already released")
	ErrTooEarly          = errors.New("escrow release grace period has not elapsed")

	ErrNotFound          = errors.New("not found")
	ErrReasonRequired    = errors.New("reason is required")
	ErrDeviceUnavailable = errors.New("device is not available for booking")
	ErrInvalidRole       = errors.New("role must be renter or owner")
	ErrInvalidStatus     = errors.New("unknown booking status")
)

// TooEarlyError carries how long the caller has to wait before retrying.
type TooEarlyError struct {
	Remaining time.Duration
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s: %s remaining", ErrTooEarly.Error(), e.Remaining.Round(time.Second))
}

func (e *TooEarlyError) Is(target error) bool {
	return target == ErrTooEarly
}
