package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Upsert inserts the user or refreshes its email and role. An existing
	// name is kept.
	Upsert(ctx context.Context, user *domain.User) error
}

type PropertyRepository interface {
	Create(ctx context.Context, property *domain.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	ListIDsByLandlord(ctx context.Context, landlordID uuid.UUID) ([]uuid.UUID, error)
	// List returns properties matching filter, newest first.
	List(ctx context.Context, filter domain.PropertyFilter, page domain.Page) ([]domain.Property, int, error)
	// Update writes name, rent and deposit. Availability is left alone.
	Update(ctx context.Context, property *domain.Property) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type ApplicationRepository interface {
	// Create fails with a CONFLICT error when (property, tenant) already exists.
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	// GetByIDForUpdate re-reads the row and holds it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	GetByPropertyAndTenant(ctx context.Context, propertyID, tenantID uuid.UUID) (*domain.Application, error)
	Update(ctx context.Context, app *domain.Application) error
	// RejectSiblings moves every other PENDING or APPROVED application of the
	// property to REJECTED and returns their ids. Already rejected rows are not touched.
	RejectSiblings(ctx context.Context, propertyID, keepID uuid.UUID) ([]domain.Application, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Application, int, error)
	ListByProperties(ctx context.Context, propertyIDs []uuid.UUID, status domain.ApplicationStatus, page domain.Page) ([]domain.Application, int, error)
}

type LeaseRepository interface {
	Create(ctx context.Context, lease *domain.Lease) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lease, error)
	Update(ctx context.Context, lease *domain.Lease) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Lease, int, error)
	ListByLandlord(ctx context.Context, landlordID uuid.UUID, page domain.Page) ([]domain.Lease, int, error)
	ListIDsByParty(ctx context.Context, userID uuid.UUID, role domain.Role) ([]uuid.UUID, error)
}

type PaymentRepository interface {
	CreateBatch(ctx context.Context, payments []domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	ListByLeases(ctx context.Context, leaseIDs []uuid.UUID, status domain.PaymentStatus, page domain.Page) ([]domain.Payment, int, error)
	// MarkOverdue applies status=PENDING AND due_date < now => OVERDUE in one
	// statement and returns the rows it changed.
	MarkOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, page domain.Page) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
}

// StatsRepository computes dashboard counters in one round trip each.
type StatsRepository interface {
	AdminOverview(ctx context.Context) (*domain.AdminStats, error)
	TenantOverview(ctx context.Context, tenantID uuid.UUID, now time.Time) (*domain.TenantStats, error)
	// LandlordOverview sums collections for the calendar month containing now.
	LandlordOverview(ctx context.Context, landlordID uuid.UUID, now time.Time) (*domain.LandlordStats, error)
}

// Tx is one open unit of work. Every repository it hands out reads and
// writes through the same underlying transaction.
type Tx interface {
	Properties() PropertyRepository
	Applications() ApplicationRepository
	Leases() LeaseRepository
	Payments() PaymentRepository
	Commit() error
	Rollback() error
}

// UnitOfWork begins transactions spanning several entity types.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// RunInTx runs fn inside a transaction. It commits only when fn succeeds
// and ctx is still live; any error, panic, or cancellation rolls back.
func RunInTx(ctx context.Context, uow UnitOfWork, fn func(tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback()
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	// Never commit on behalf of a caller that already gave up.
	if err := ctx.Err(); err != nil {
		return domain.NewInfrastructureError("transaction abandoned by caller", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.NewInfrastructureError("commit transaction", err)
	}
	committed = true
	return nil
}
