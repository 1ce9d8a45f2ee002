package service

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type statsService struct {
	statsRepo repository.StatsRepository
	now       clock
}

func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo, now: utcNow}
}

func (s *statsService) AdminOverview(ctx context.Context, principal domain.Principal) (*domain.AdminStats, error) {
	if !principal.IsAdmin() {
		return nil, domain.NewForbiddenError("only admins can view platform statistics")
	}
	stats, err := s.statsRepo.AdminOverview(ctx)
	if err != nil {
		logger.ExitMethodWithError("statsService.AdminOverview", err)
		return nil, err
	}
	return stats, nil
}

func (s *statsService) TenantOverview(ctx context.Context, principal domain.Principal) (*domain.TenantStats, error) {
	if principal.Role != domain.RoleTenant {
		return nil, domain.NewForbiddenError("only tenants have a tenant overview")
	}
	stats, err := s.statsRepo.TenantOverview(ctx, principal.UserID, s.now())
	if err != nil {
		logger.ExitMethodWithError("statsService.TenantOverview", err)
		return nil, err
	}
	return stats, nil
}

func (s *statsService) LandlordOverview(ctx context.Context, principal domain.Principal) (*domain.LandlordStats, error) {
	if principal.Role != domain.RoleLandlord {
		return nil, domain.NewForbiddenError("only landlords have a landlord overview")
	}
	stats, err := s.statsRepo.LandlordOverview(ctx, principal.UserID, s.now())
	if err != nil {
		logger.ExitMethodWithError("statsService.LandlordOverview", err)
		return nil, err
	}
	return stats, nil
}
