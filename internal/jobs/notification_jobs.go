package jobs

import (
	"context"

	"bravework-rental-backend/internal/logger"
)

// maxRelayRounds caps how many batches one RelayOutbox run drains.
const maxRelayRounds = 20

// RelayOutbox retries notifications that were not delivered right after
// their transaction committed.
func (jr *JobRunner) RelayOutbox() {
	jr.runWithRecovery("RelayOutbox", func(ctx context.Context) {
		batch := jr.config.Notifications.RelayBatchSize
		total := 0
		for round := 0; round < maxRelayRounds; round++ {
			delivered, err := jr.services.Relay.DispatchPending(ctx)
			if err != nil {
				logger.Error("Failed to relay outbox", "round", round, "error", err)
				break
			}
			total += delivered
			if delivered == 0 || delivered < batch {
				break
			}
		}
		logger.Info("Relayed outbox notifications", "delivered", total)
	})
}
