package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type applicationService struct {
	appRepo      repository.ApplicationRepository
	propertyRepo repository.PropertyRepository
	uow          repository.UnitOfWork
	approvals    *ApprovalOrchestrator
	events       EventPublisher
	now          clock
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	propertyRepo repository.PropertyRepository,
	uow repository.UnitOfWork,
	approvals *ApprovalOrchestrator,
	events EventPublisher,
) ApplicationService {
	if events == nil {
		events = noopPublisher{}
	}
	return &applicationService{
		appRepo:      appRepo,
		propertyRepo: propertyRepo,
		uow:          uow,
		approvals:    approvals,
		events:       events,
		now:          utcNow,
	}
}

func (s *applicationService) Submit(ctx context.Context, principal domain.Principal, propertyID uuid.UUID, message string) (*domain.Application, error) {
	logger.EnterMethod("applicationService.Submit", "tenantID", principal.UserID, "propertyID", propertyID)

	if principal.Role != domain.RoleTenant {
		err := domain.NewForbiddenError("only tenants can apply for properties")
		logger.ExitMethodWithError("applicationService.Submit", err)
		return nil, err
	}

	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		logger.ExitMethodWithError("applicationService.Submit", err, "reason", "property lookup failed")
		return nil, err
	}
	if !property.IsAvailable {
		err := domain.NewInvalidStateError("property is not available for rent")
		logger.ExitMethodWithError("applicationService.Submit", err)
		return nil, err
	}

	existing, err := s.appRepo.GetByPropertyAndTenant(ctx, propertyID, principal.UserID)
	switch {
	case err == nil && existing != nil:
		err := domain.NewConflictError("you have already applied for this property")
		logger.ExitMethodWithError("applicationService.Submit", err, "applicationID", existing.ID)
		return nil, err
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		logger.ExitMethodWithError("applicationService.Submit", err)
		return nil, err
	}

	now := s.now()
	app := &domain.Application{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		TenantID:    principal.UserID,
		Status:      domain.ApplicationStatusPending,
		Message:     strings.TrimSpace(message),
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	// The unique (property, tenant) constraint still guards a concurrent
	// duplicate that slipped past the lookup above.
	if err := s.appRepo.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = domain.NewConflictError("you have already applied for this property")
		}
		logger.ExitMethodWithError("applicationService.Submit", err)
		return nil, err
	}

	s.events.Publish(ctx, domain.NewEvent(domain.EventApplicationSubmitted, now,
		[]uuid.UUID{property.LandlordID},
		map[string]string{
			"application_id": app.ID.String(),
			"property_id":    property.ID.String(),
			"property_name":  property.Name,
		}))

	logger.ExitMethod("applicationService.Submit", "applicationID", app.ID)
	return app, nil
}

func (s *applicationService) Decide(ctx context.Context, principal domain.Principal, applicationID uuid.UUID, decision domain.Decision, details *domain.LeaseDetails) (*domain.Application, error) {
	logger.EnterMethod("applicationService.Decide", "userID", principal.UserID, "applicationID", applicationID, "decision", decision)

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		logger.ExitMethodWithError("applicationService.Decide", err)
		return nil, err
	}
	property, err := s.propertyRepo.GetByID(ctx, app.PropertyID)
	if err != nil {
		logger.ExitMethodWithError("applicationService.Decide", err)
		return nil, err
	}
	if !principal.IsAdmin() && property.LandlordID != principal.UserID {
		err := domain.NewForbiddenError("only the property's landlord can decide on this application")
		logger.ExitMethodWithError("applicationService.Decide", err)
		return nil, err
	}
	if app.Status != domain.ApplicationStatusPending {
		err := domain.NewInvalidStateError("application has already been processed")
		logger.ExitMethodWithError("applicationService.Decide", err, "status", app.Status)
		return nil, err
	}

	var decided *domain.Application
	var leaseID string
	switch decision {
	case domain.DecisionApprove:
		if details == nil {
			err := domain.NewValidationError("lease details are required to approve an application")
			logger.ExitMethodWithError("applicationService.Decide", err)
			return nil, err
		}
		result, err := s.approvals.Approve(ctx, applicationID, *details)
		if err != nil {
			logger.ExitMethodWithError("applicationService.Decide", err)
			return nil, err
		}
		decided = result.Application
		leaseID = result.Lease.ID.String()
		for _, sibling := range result.Rejected {
			s.publishDecision(ctx, &sibling, property, "")
		}
	case domain.DecisionReject:
		decided, err = s.reject(ctx, applicationID)
		if err != nil {
			logger.ExitMethodWithError("applicationService.Decide", err)
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("invalid application decision %q", decision)
	}

	s.publishDecision(ctx, decided, property, leaseID)
	logger.ExitMethod("applicationService.Decide", "applicationID", decided.ID, "status", decided.Status)
	return decided, nil
}

// reject re-reads the application under the transaction so it cannot
// overwrite a concurrent approval.
func (s *applicationService) reject(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error) {
	var app *domain.Application
	err := repository.RunInTx(ctx, s.uow, func(tx repository.Tx) error {
		current, err := tx.Applications().GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if current.Status != domain.ApplicationStatusPending {
			return domain.NewInvalidStateError("application has already been processed")
		}
		current.Status = domain.ApplicationStatusRejected
		if err := tx.Applications().Update(ctx, current); err != nil {
			return err
		}
		app = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) publishDecision(ctx context.Context, app *domain.Application, property *domain.Property, leaseID string) {
	attrs := map[string]string{
		"application_id": app.ID.String(),
		"property_id":    property.ID.String(),
		"property_name":  property.Name,
		"status":         string(app.Status),
	}
	if leaseID != "" {
		attrs["lease_id"] = leaseID
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventApplicationDecided, s.now(), []uuid.UUID{app.TenantID}, attrs))
}

func (s *applicationService) GetApplication(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsAdmin() || app.TenantID == principal.UserID {
		return app, nil
	}
	property, err := s.propertyRepo.GetByID(ctx, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.LandlordID != principal.UserID {
		return nil, domain.NewForbiddenError("you are not allowed to view this application")
	}
	return app, nil
}

func (s *applicationService) ListForTenant(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Application, domain.Pagination, error) {
	if principal.Role != domain.RoleTenant {
		return nil, domain.Pagination{}, domain.NewForbiddenError("only tenants have submitted applications")
	}
	apps, total, err := s.appRepo.ListByTenant(ctx, principal.UserID, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return apps, domain.NewPagination(page, total), nil
}

func (s *applicationService) ListForLandlord(ctx context.Context, principal domain.Principal, status string, page domain.Page) ([]domain.Application, domain.Pagination, error) {
	if principal.Role != domain.RoleLandlord {
		return nil, domain.Pagination{}, domain.NewForbiddenError("only landlords can list received applications")
	}
	filter, err := parseApplicationStatus(status)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	propertyIDs, err := s.propertyRepo.ListIDsByLandlord(ctx, principal.UserID)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	apps, total, err := s.appRepo.ListByProperties(ctx, propertyIDs, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return apps, domain.NewPagination(page, total), nil
}

func (s *applicationService) CheckStatus(ctx context.Context, principal domain.Principal, propertyID uuid.UUID) (*domain.ApplicationStatusCheck, error) {
	app, err := s.appRepo.GetByPropertyAndTenant(ctx, propertyID, principal.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ApplicationStatusCheck{HasApplied: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.ApplicationStatusCheck{HasApplied: true, Application: app}, nil
}

// parseApplicationStatus accepts "" or "all" as no filter.
func parseApplicationStatus(s string) (domain.ApplicationStatus, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	status := domain.ApplicationStatus(strings.ToUpper(s))
	if !status.Valid() {
		return "", domain.NewValidationError("invalid application status %q", s)
	}
	return status, nil
}
