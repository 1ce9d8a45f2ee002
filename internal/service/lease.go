package service

import (
	"context"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type leaseService struct {
	leaseRepo repository.LeaseRepository
	uow       repository.UnitOfWork
	ledger    PaymentService
	events    EventPublisher
	now       clock
}

func NewLeaseService(leaseRepo repository.LeaseRepository, uow repository.UnitOfWork, ledger PaymentService, events EventPublisher) LeaseService {
	if events == nil {
		events = noopPublisher{}
	}
	return &leaseService{leaseRepo: leaseRepo, uow: uow, ledger: ledger, events: events, now: utcNow}
}

func (s *leaseService) CreateFromApproval(ctx context.Context, tx repository.Tx, app *domain.Application, property *domain.Property, details domain.LeaseDetails) (*domain.Lease, []domain.Payment, error) {
	logger.EnterMethod("leaseService.CreateFromApproval", "applicationID", app.ID, "propertyID", property.ID)

	if err := details.Validate(); err != nil {
		logger.ExitMethodWithError("leaseService.CreateFromApproval", err)
		return nil, nil, err
	}

	now := s.now()
	lease := &domain.Lease{
		ID:            uuid.New(),
		PropertyID:    property.ID,
		TenantID:      app.TenantID,
		LandlordID:    property.LandlordID,
		ApplicationID: app.ID,
		StartDate:     details.StartDate,
		EndDate:       details.EndDate,
		MonthlyRent:   details.MonthlyRent,
		Deposit:       details.Deposit,
		Status:        domain.LeaseStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Leases().Create(ctx, lease); err != nil {
		logger.ExitMethodWithError("leaseService.CreateFromApproval", err)
		return nil, nil, err
	}

	payments := s.ledger.GenerateSchedule(lease.ID, lease.MonthlyRent, lease.StartDate, lease.EndDate)
	for i := range payments {
		payments[i].CreatedAt = now
		payments[i].UpdatedAt = now
	}
	if err := tx.Payments().CreateBatch(ctx, payments); err != nil {
		logger.ExitMethodWithError("leaseService.CreateFromApproval", err, "reason", "payment schedule insert failed")
		return nil, nil, err
	}

	logger.ExitMethod("leaseService.CreateFromApproval", "leaseID", lease.ID, "payments", len(payments))
	return lease, payments, nil
}

// Terminate ends an active lease and frees its property in one unit of work.
func (s *leaseService) Terminate(ctx context.Context, principal domain.Principal, leaseID uuid.UUID) (*domain.Lease, error) {
	logger.EnterMethod("leaseService.Terminate", "userID", principal.UserID, "leaseID", leaseID)

	var lease *domain.Lease
	err := repository.RunInTx(ctx, s.uow, func(tx repository.Tx) error {
		current, err := tx.Leases().GetByIDForUpdate(ctx, leaseID)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() && current.LandlordID != principal.UserID {
			return domain.NewForbiddenError("only the landlord can terminate this lease")
		}
		if current.Status != domain.LeaseStatusActive {
			return domain.NewInvalidStateError("lease is not active")
		}

		now := s.now()
		current.Status = domain.LeaseStatusTerminated
		current.EndDate = now
		current.TerminatedAt = &now
		if err := tx.Leases().Update(ctx, current); err != nil {
			return err
		}
		if err := tx.Properties().SetAvailability(ctx, current.PropertyID, true); err != nil {
			return err
		}
		lease = current
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("leaseService.Terminate", err)
		return nil, err
	}

	s.events.Publish(ctx, domain.NewEvent(domain.EventLeaseTerminated, s.now(),
		[]uuid.UUID{lease.TenantID, lease.LandlordID},
		map[string]string{
			"lease_id":    lease.ID.String(),
			"property_id": lease.PropertyID.String(),
		}))

	logger.ExitMethod("leaseService.Terminate", "leaseID", lease.ID)
	return lease, nil
}

func (s *leaseService) GetLease(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Lease, error) {
	lease, err := s.leaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && !lease.IsParty(principal.UserID) {
		return nil, domain.NewForbiddenError("you are not a party to this lease")
	}
	return lease, nil
}

func (s *leaseService) ListLeases(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Lease, domain.Pagination, error) {
	var leases []domain.Lease
	var total int
	var err error
	switch principal.Role {
	case domain.RoleTenant:
		leases, total, err = s.leaseRepo.ListByTenant(ctx, principal.UserID, page)
	case domain.RoleLandlord:
		leases, total, err = s.leaseRepo.ListByLandlord(ctx, principal.UserID, page)
	default:
		return nil, domain.Pagination{}, domain.NewForbiddenError("role %q has no leases", principal.Role)
	}
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return leases, domain.NewPagination(page, total), nil
}
