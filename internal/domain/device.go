package domain

import "time"

type Device struct {
	ID              int32     `db:"id" json:"id"`
	OwnerID         int32     `db:"owner_id" json:"owner_id"`
	Name            string    `db:"name" json:"name"`
	HourlyRateCents int64     `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PriceFor returns the amount due for renting the device over w.
func (d *Device) PriceFor(w Window) int64 {
	return w.BillableHours() * d.HourlyRateCents
}
