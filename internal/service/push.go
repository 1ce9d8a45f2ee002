package service

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

// messageSender is satisfied by *messaging.Client.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type firebasePushService struct {
	client messageSender
}

// NewFirebasePushService builds an FCM sender from a service account file.
// Devices subscribe to the topic named by UserTopic.
func NewFirebasePushService(ctx context.Context, credentialsFile string) (PushService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, domain.NewInfrastructureError("initialize firebase app", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, domain.NewInfrastructureError("initialize firebase messaging", err)
	}
	return &firebasePushService{client: client}, nil
}

func UserTopic(userID uuid.UUID) string {
	return "user-" + userID.String()
}

func (s *firebasePushService) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	logger.ExternalServiceCall("fcm", "Send", "topic", msg.Topic)
	id, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	if err != nil {
		return domain.NewInfrastructureError("send push notification", err)
	}
	return nil
}

type noopPushService struct{}

func NewNoopPushService() PushService { return noopPushService{} }

func (noopPushService) SendToUser(context.Context, uuid.UUID, string, string, map[string]string) error {
	return nil
}
