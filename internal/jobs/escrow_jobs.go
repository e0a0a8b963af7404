package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bravework-rental-backend/internal/logger"
)

const staleEscrowReportLimit = 200

// ReportStaleEscrows emails the admin address a list of accepted bookings
// whose escrow is still held after the grace period, so an admin can
// release them.
func (jr *JobRunner) ReportStaleEscrows() {
	jr.runWithRecovery("ReportStaleEscrows", func(ctx context.Context) {
		adminEmail := jr.config.Notifications.AdminEmail
		if adminEmail == "" {
			logger.Warn("No admin email configured, skipping stale escrow report")
			return
		}

		bookings, err := jr.services.Escrow.ListStaleEscrows(ctx, staleEscrowReportLimit)
		if err != nil {
			logger.Error("Failed to list stale escrows", "error", err)
			return
		}
		if len(bookings) == 0 {
			logger.Info("No stale escrows found")
			return
		}

		var body strings.Builder
		fmt.Fprintf(&body, "%d accepted bookings are past the escrow grace period and awaiting release:\n\n", len(bookings))
		for _, b := range bookings {
			fmt.Fprintf(&body, "- booking #%d device #%d renter #%d owner #%d ended %s amount %d cents\n",
				b.ID, b.DeviceID, b.RenterID, b.OwnerID, b.EndAt.UTC().Format(time.RFC3339), b.TotalAmountCents)
		}

		subject := fmt.Sprintf("%d escrows awaiting release", len(bookings))
		if err := jr.services.Email.SendAdminNotification(ctx, adminEmail, subject, body.String()); err != nil {
			logger.Error("Failed to send stale escrow report", "error", err, "count", len(bookings))
			return
		}
		logger.Info("Sent stale escrow report", "count", len(bookings))
	})
}
