package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type PropertyService interface {
	CreateProperty(ctx context.Context, principal domain.Principal, name string, monthlyRent, deposit decimal.Decimal) (*domain.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	ListProperties(ctx context.Context, principal domain.Principal, filter domain.PropertyFilter, page domain.Page) ([]domain.Property, domain.Pagination, error)
	UpdateProperty(ctx context.Context, principal domain.Principal, id uuid.UUID, update domain.PropertyUpdate) (*domain.Property, error)
}

type UserService interface {
	SyncPrincipal(ctx context.Context, principal domain.Principal, email string) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type ApplicationService interface {
	Submit(ctx context.Context, principal domain.Principal, propertyID uuid.UUID, message string) (*domain.Application, error)
	// Decide applies a landlord decision. Approval requires details and runs
	// the approval cascade atomically; rejection is a single update.
	Decide(ctx context.Context, principal domain.Principal, applicationID uuid.UUID, decision domain.Decision, details *domain.LeaseDetails) (*domain.Application, error)
	GetApplication(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Application, error)
	ListForTenant(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Application, domain.Pagination, error)
	ListForLandlord(ctx context.Context, principal domain.Principal, status string, page domain.Page) ([]domain.Application, domain.Pagination, error)
	CheckStatus(ctx context.Context, principal domain.Principal, propertyID uuid.UUID) (*domain.ApplicationStatusCheck, error)
}

type LeaseService interface {
	// CreateFromApproval must be called with the approval transaction; the
	// lease and its payment schedule are written through tx.
	CreateFromApproval(ctx context.Context, tx repository.Tx, app *domain.Application, property *domain.Property, details domain.LeaseDetails) (*domain.Lease, []domain.Payment, error)
	Terminate(ctx context.Context, principal domain.Principal, leaseID uuid.UUID) (*domain.Lease, error)
	GetLease(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Lease, error)
	ListLeases(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Lease, domain.Pagination, error)
}

type PaymentService interface {
	GenerateSchedule(leaseID uuid.UUID, monthlyRent decimal.Decimal, start, end time.Time) []domain.Payment
	RecordCapture(ctx context.Context, paymentID uuid.UUID, externalOrderID string, confirmation domain.CaptureConfirmation) (*domain.Payment, error)
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
	CreateOrder(ctx context.Context, principal domain.Principal, paymentID uuid.UUID) (*domain.PaymentOrder, error)
	CaptureOrder(ctx context.Context, principal domain.Principal, paymentID uuid.UUID, orderID string) (*domain.Payment, error)
	GetPayment(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Payment, error)
	ListForLease(ctx context.Context, principal domain.Principal, leaseID uuid.UUID, status string, page domain.Page) ([]domain.Payment, domain.Pagination, error)
	History(ctx context.Context, principal domain.Principal, status string, page domain.Page) ([]domain.Payment, domain.Pagination, error)
}

// StatsService serves the role dashboards. Each overview is restricted to
// its role.
type StatsService interface {
	AdminOverview(ctx context.Context, principal domain.Principal) (*domain.AdminStats, error)
	TenantOverview(ctx context.Context, principal domain.Principal) (*domain.TenantStats, error)
	LandlordOverview(ctx context.Context, principal domain.Principal) (*domain.LandlordStats, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, principal domain.Principal, page domain.Page) ([]domain.Notification, domain.Pagination, error)
	MarkAsRead(ctx context.Context, principal domain.Principal, notificationID uuid.UUID) error
}

// EventPublisher is the sink domain events are handed to after commit.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.Event)
}

// PaymentGateway is the external checkout provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.GatewayOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*domain.CaptureConfirmation, error)
}

type EmailService interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, body string) error
}

type PushService interface {
	SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) {}

// clock is overridden in tests.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
