package domain

import (
	"math"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate rejects empty and inverted windows.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidWindow
	}
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// BillableHours rounds the duration up to whole hours.
func (w Window) BillableHours() int64 {
	return int64(math.Ceil(w.Duration().Hours()))
}

// Overlaps reports whether two half-open windows share any instant.
// Windows that only touch at a boundary do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}
