package service

import (
	"context"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Notification, domain.Pagination, error) {
	notes, total, err := s.noteRepo.List(ctx, principal.UserID, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return notes, domain.NewPagination(page, total), nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, principal domain.Principal, notificationID uuid.UUID) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, principal.UserID)
}
