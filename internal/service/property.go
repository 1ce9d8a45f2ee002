package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type propertyService struct {
	propertyRepo repository.PropertyRepository
	now          clock
}

func NewPropertyService(propertyRepo repository.PropertyRepository) PropertyService {
	return &propertyService{propertyRepo: propertyRepo, now: utcNow}
}

func (s *propertyService) CreateProperty(ctx context.Context, principal domain.Principal, name string, monthlyRent, deposit decimal.Decimal) (*domain.Property, error) {
	logger.EnterMethod("propertyService.CreateProperty", "landlordID", principal.UserID, "name", name)

	if principal.Role != domain.RoleLandlord {
		err := domain.NewForbiddenError("only landlords can list properties")
		logger.ExitMethodWithError("propertyService.CreateProperty", err)
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("property name is required")
	}
	if monthlyRent.IsNegative() || deposit.IsNegative() {
		return nil, domain.NewValidationError("rent and deposit cannot be negative")
	}

	now := s.now()
	p := &domain.Property{
		ID:          uuid.New(),
		LandlordID:  principal.UserID,
		Name:        name,
		IsAvailable: true,
		MonthlyRent: monthlyRent,
		Deposit:     deposit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.propertyRepo.Create(ctx, p); err != nil {
		logger.ExitMethodWithError("propertyService.CreateProperty", err)
		return nil, err
	}
	logger.ExitMethod("propertyService.CreateProperty", "propertyID", p.ID)
	return p, nil
}

func (s *propertyService) GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	return s.propertyRepo.GetByID(ctx, id)
}

// ListProperties browses the catalogue. Without an availability filter
// tenants only see available properties.
func (s *propertyService) ListProperties(ctx context.Context, principal domain.Principal, filter domain.PropertyFilter, page domain.Page) ([]domain.Property, domain.Pagination, error) {
	if filter.MinRent != nil && filter.MaxRent != nil && filter.MinRent.GreaterThan(*filter.MaxRent) {
		return nil, domain.Pagination{}, domain.NewValidationError("min_rent cannot exceed max_rent")
	}
	if principal.Role == domain.RoleTenant && filter.Available == nil {
		available := true
		filter.Available = &available
	}
	filter.Search = strings.TrimSpace(filter.Search)

	properties, total, err := s.propertyRepo.List(ctx, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return properties, domain.NewPagination(page, total), nil
}

// UpdateProperty edits listing details. Only the owning landlord or an admin
// may do so, and availability cannot be changed here.
func (s *propertyService) UpdateProperty(ctx context.Context, principal domain.Principal, id uuid.UUID, update domain.PropertyUpdate) (*domain.Property, error) {
	logger.EnterMethod("propertyService.UpdateProperty", "propertyID", id, "userID", principal.UserID)

	if update.Empty() {
		return nil, domain.NewValidationError("nothing to update")
	}
	p, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("propertyService.UpdateProperty", err)
		return nil, err
	}
	if !principal.IsAdmin() && p.LandlordID != principal.UserID {
		err := domain.NewForbiddenError("you do not own this property")
		logger.ExitMethodWithError("propertyService.UpdateProperty", err)
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.NewValidationError("property name is required")
		}
		p.Name = name
	}
	if update.MonthlyRent != nil {
		p.MonthlyRent = *update.MonthlyRent
	}
	if update.Deposit != nil {
		p.Deposit = *update.Deposit
	}
	if p.MonthlyRent.IsNegative() || p.Deposit.IsNegative() {
		return nil, domain.NewValidationError("rent and deposit cannot be negative")
	}
	p.UpdatedAt = s.now()

	if err := s.propertyRepo.Update(ctx, p); err != nil {
		logger.ExitMethodWithError("propertyService.UpdateProperty", err)
		return nil, err
	}
	logger.ExitMethod("propertyService.UpdateProperty", "propertyID", p.ID)
	return p, nil
}
