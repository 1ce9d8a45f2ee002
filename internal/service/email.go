package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

// sendFunc delivers one message and reports the provider's HTTP status.
type sendFunc func(ctx context.Context, msg *mail.SGMailV3) (int, string, error)

type sendGridEmailService struct {
	fromEmail string
	fromName  string
	send      sendFunc
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	client := sendgrid.NewSendClient(apiKey)
	return &sendGridEmailService{
		fromEmail: fromEmail,
		fromName:  fromName,
		send: func(ctx context.Context, msg *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, msg)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

func (s *sendGridEmailService) SendEmail(ctx context.Context, toEmail, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	logger.ExternalServiceCall("sendgrid", "Send", "to", toEmail, "subject", subject)
	status, respBody, err := s.send(ctx, message)
	if err == nil && status >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", status, respBody)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "status", status)
	if err != nil {
		return domain.NewInfrastructureError("send email", err)
	}
	return nil
}

type noopEmailService struct{}

// NewNoopEmailService is used when no SendGrid key is configured.
func NewNoopEmailService() EmailService { return noopEmailService{} }

func (noopEmailService) SendEmail(_ context.Context, toEmail, _, subject, _ string) error {
	logger.Debug("Email delivery disabled", "to", toEmail, "subject", subject)
	return nil
}
