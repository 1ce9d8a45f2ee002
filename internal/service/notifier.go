package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

// Notifier turns domain events into in-app notifications, emails and push
// messages for every recipient. It subscribes to the event bus.
type Notifier struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	email    EmailService
	push     PushService
	now      clock
}

func NewNotifier(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, email EmailService, push PushService) *Notifier {
	if email == nil {
		email = NewNoopEmailService()
	}
	if push == nil {
		push = NewNoopPushService()
	}
	return &Notifier{noteRepo: noteRepo, userRepo: userRepo, email: email, push: push, now: utcNow}
}

func (n *Notifier) HandleEvent(ctx context.Context, evt domain.Event) error {
	title, message := describe(evt)
	if title == "" {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, len(evt.Recipients))
	for i, recipient := range evt.Recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			errs[i] = n.deliver(gctx, recipient, evt, title, message)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// deliver persists the in-app notification first; email and push are
// best effort on top of it.
func (n *Notifier) deliver(ctx context.Context, userID uuid.UUID, evt domain.Event, title, message string) error {
	attrs := map[string]string{"type": string(evt.Type), "event_id": evt.ID.String()}
	for k, v := range evt.Attributes {
		attrs[k] = v
	}
	note := &domain.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
		CreatedAt:  n.now(),
	}
	if err := n.noteRepo.Create(ctx, note); err != nil {
		return fmt.Errorf("store notification for %s: %w", userID, err)
	}

	user, err := n.userRepo.GetByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("No contact record for notification recipient", "userID", userID)
	case err != nil:
		logger.Warn("Failed to load notification recipient", "userID", userID, "error", err)
	case user.Email != "":
		if err := n.email.SendEmail(ctx, user.Email, user.Name, title, message); err != nil {
			logger.Warn("Failed to send notification email", "userID", userID, "error", err)
		}
	}

	if err := n.push.SendToUser(ctx, userID, title, message, attrs); err != nil {
		logger.Warn("Failed to send push notification", "userID", userID, "error", err)
	}
	return nil
}

func describe(evt domain.Event) (string, string) {
	a := evt.Attributes
	switch evt.Type {
	case domain.EventApplicationSubmitted:
		return "New Rental Application", fmt.Sprintf("A tenant applied to rent %s", a["property_name"])
	case domain.EventApplicationDecided:
		if a["status"] == string(domain.ApplicationStatusApproved) {
			return "Application Approved", fmt.Sprintf("Your application for %s was approved. Your lease is ready.", a["property_name"])
		}
		return "Application Rejected", fmt.Sprintf("Your application for %s was not accepted.", a["property_name"])
	case domain.EventLeaseTerminated:
		return "Lease Terminated", "A lease you are party to has been terminated."
	case domain.EventPaymentCaptured:
		return "Payment Received", fmt.Sprintf("A payment of %s was recorded (status %s).", a["amount_paid"], a["status"])
	case domain.EventPaymentOverdue:
		return "Payment Overdue", fmt.Sprintf("The payment of %s due %s is overdue.", a["amount_due"], a["due_date"])
	}
	return "", ""
}
