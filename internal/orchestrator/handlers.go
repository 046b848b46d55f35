package orchestrator

import (
	"context"

	"github.com/shaiso/Packsmith/internal/mq"
)

// handlePackagePending обрабатывает событие о новом pending package.
func (o *Orchestrator) handlePackagePending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.PackagePendingPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse package.pending payload", "error", err)
		return err
	}

	o.logger.Debug("received package.pending event", "package_id", payload.PackageID)

	if o.isActive(payload.PackageID) {
		o.logger.Debug("package already active, skipping", "package_id", payload.PackageID)
		return nil
	}

	o.startPackage(ctx, payload.PackageID)
	return nil
}
