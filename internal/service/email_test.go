package service

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
)

func TestSendGridEmailService_SendEmail(t *testing.T) {
	var sent *mail.SGMailV3
	svc := &sendGridEmailService{
		fromEmail: "noreply@rentals.test",
		fromName:  "Rentals",
		send: func(_ context.Context, msg *mail.SGMailV3) (int, string, error) {
			sent = msg
			return 202, "", nil
		},
	}

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, svc.SendEmail(context.Background(), "ada@example.com", "Ada", "Hello", "Body"))
		require.NotNil(t, sent)
		assert.Equal(t, "Hello", sent.Subject)
		assert.Equal(t, "noreply@rentals.test", sent.From.Address)
		require.Len(t, sent.Personalizations, 1)
		assert.Equal(t, "ada@example.com", sent.Personalizations[0].To[0].Address)
	})

	t.Run("Provider rejects", func(t *testing.T) {
		svc.send = func(context.Context, *mail.SGMailV3) (int, string, error) {
			return 401, `{"errors":[{"message":"bad key"}]}`, nil
		}
		err := svc.SendEmail(context.Background(), "ada@example.com", "Ada", "Hello", "Body")
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})
}

type fakeSender struct {
	messages []*messaging.Message
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.messages = append(f.messages, m)
	return "projects/test/messages/1", nil
}

func TestFirebasePushService_SendToUser(t *testing.T) {
	sender := &fakeSender{}
	svc := &firebasePushService{client: sender}
	userID := uuid.New()

	require.NoError(t, svc.SendToUser(context.Background(), userID, "Title", "Body", map[string]string{"type": "lease.terminated"}))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "user-"+userID.String(), sender.messages[0].Topic)
	assert.Equal(t, "Title", sender.messages[0].Notification.Title)
	assert.Equal(t, "lease.terminated", sender.messages[0].Data["type"])
}
