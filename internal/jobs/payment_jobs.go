package jobs

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/logger"
)

const sweepTimeout = 5 * time.Minute

// SweepOverduePayments moves every PENDING payment past its due date to OVERDUE.
func (jr *JobRunner) SweepOverduePayments() {
	jr.runWithRecovery("SweepOverduePayments", func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		now := jr.now()
		count, err := jr.services.Payment.SweepOverdue(ctx, now)
		if err != nil {
			logger.Error("Failed to sweep overdue payments", "error", err)
			return
		}

		logger.Info("Marked payments as overdue", "count", count, "as_of", now.Format(time.RFC3339))
	})
}
