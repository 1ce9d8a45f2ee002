package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
	// synced remembers the last record written per user so repeated
	// requests from the same caller skip the write.
	synced sync.Map
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// SyncPrincipal mirrors an authenticated caller into the local users table.
// Properties, applications, leases and notifications reference it.
func (s *userService) SyncPrincipal(ctx context.Context, principal domain.Principal, email string) error {
	u := domain.User{ID: principal.UserID, Name: email, Email: email, Role: principal.Role}
	if last, ok := s.synced.Load(u.ID); ok && last.(domain.User) == u {
		return nil
	}

	logger.EnterMethod("userService.SyncPrincipal", "userID", u.ID, "role", u.Role)
	if err := s.userRepo.Upsert(ctx, &u); err != nil {
		logger.ExitMethodWithError("userService.SyncPrincipal", err)
		return err
	}
	s.synced.Store(u.ID, u)
	logger.ExitMethod("userService.SyncPrincipal", "userID", u.ID)
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
