package service

import (
	"context"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

// ApprovalResult is everything one approval wrote.
type ApprovalResult struct {
	Application *domain.Application
	Lease       *domain.Lease
	Payments    []domain.Payment
	Rejected    []domain.Application
}

// ApprovalOrchestrator applies an approval as one unit of work: the
// application, its siblings, the property, the lease and the payment
// schedule commit together or not at all.
type ApprovalOrchestrator struct {
	uow    repository.UnitOfWork
	leases LeaseService
}

func NewApprovalOrchestrator(uow repository.UnitOfWork, leases LeaseService) *ApprovalOrchestrator {
	return &ApprovalOrchestrator{uow: uow, leases: leases}
}

func (o *ApprovalOrchestrator) Approve(ctx context.Context, applicationID uuid.UUID, details domain.LeaseDetails) (*ApprovalResult, error) {
	logger.EnterMethod("ApprovalOrchestrator.Approve", "applicationID", applicationID)

	if err := details.Validate(); err != nil {
		logger.ExitMethodWithError("ApprovalOrchestrator.Approve", err)
		return nil, err
	}

	var result *ApprovalResult
	err := repository.RunInTx(ctx, o.uow, func(tx repository.Tx) error {
		// Re-read under the transaction; a concurrent approval that
		// committed first leaves this one looking at a non-pending row.
		app, err := tx.Applications().GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != domain.ApplicationStatusPending {
			return domain.NewInvalidStateError("application has already been processed")
		}
		property, err := tx.Properties().GetByID(ctx, app.PropertyID)
		if err != nil {
			return err
		}
		if !property.IsAvailable {
			return domain.NewInvalidStateError("property is no longer available")
		}

		app.Status = domain.ApplicationStatusApproved
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}

		rejected, err := tx.Applications().RejectSiblings(ctx, app.PropertyID, app.ID)
		if err != nil {
			return err
		}

		if err := tx.Properties().SetAvailability(ctx, app.PropertyID, false); err != nil {
			return err
		}

		lease, payments, err := o.leases.CreateFromApproval(ctx, tx, app, property, details)
		if err != nil {
			return err
		}

		app.LeaseID = &lease.ID
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}

		result = &ApprovalResult{Application: app, Lease: lease, Payments: payments, Rejected: rejected}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ApprovalOrchestrator.Approve", err)
		return nil, err
	}

	logger.ExitMethod("ApprovalOrchestrator.Approve", "applicationID", applicationID, "leaseID", result.Lease.ID,
		"payments", len(result.Payments), "rejectedSiblings", len(result.Rejected))
	return result, nil
}
