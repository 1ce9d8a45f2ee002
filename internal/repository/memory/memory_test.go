package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

func seedProperty(t *testing.T, s *Store) *domain.Property {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Property{ID: uuid.New(), LandlordID: uuid.New(), Name: "Flat 3", IsAvailable: true,
		MonthlyRent: decimal.NewFromInt(1000), Deposit: decimal.NewFromInt(500), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.PropertyRepository.Create(context.Background(), p))
	return p
}

func TestStore_TransactionIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProperty(t, s)

	t.Run("Uncommitted writes are invisible", func(t *testing.T) {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Properties().SetAvailability(ctx, p.ID, false))

		inside, err := tx.Properties().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, inside.IsAvailable)

		outside, err := s.PropertyRepository.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, outside.IsAvailable)

		require.NoError(t, tx.Rollback())
		after, _ := s.PropertyRepository.GetByID(ctx, p.ID)
		assert.True(t, after.IsAvailable)
	})

	t.Run("Commit publishes", func(t *testing.T) {
		err := repository.RunInTx(ctx, s, func(tx repository.Tx) error {
			return tx.Properties().SetAvailability(ctx, p.ID, false)
		})
		require.NoError(t, err)
		after, _ := s.PropertyRepository.GetByID(ctx, p.ID)
		assert.False(t, after.IsAvailable)
	})

	t.Run("Closed transaction rejects use", func(t *testing.T) {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.Error(t, tx.Commit())
		assert.Error(t, tx.Rollback())
		_, err = tx.Properties().GetByID(ctx, p.ID)
		assert.Error(t, err)
	})
}

func TestStore_BeginIsSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.Begin(ctx)
	require.NoError(t, err)

	t.Run("Cancelled waiter gives up", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := s.Begin(waitCtx)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})

	t.Run("Waiter proceeds after release", func(t *testing.T) {
		started := make(chan struct{})
		go func() {
			tx, err := s.Begin(ctx)
			if err == nil {
				_ = tx.Rollback()
			}
			close(started)
		}()
		select {
		case <-started:
			t.Fatal("second transaction began while the first was open")
		case <-time.After(20 * time.Millisecond):
		}
		require.NoError(t, first.Rollback())
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("second transaction never began")
		}
	})
}

func TestStore_CommitAfterCancelDiscards(t *testing.T) {
	s := NewStore()
	p := seedProperty(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Properties().SetAvailability(ctx, p.ID, false))
	cancel()
	assert.Error(t, tx.Commit())

	after, _ := s.PropertyRepository.GetByID(context.Background(), p.ID)
	assert.True(t, after.IsAvailable)
}

func TestApplicationRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProperty(t, s)
	tenant := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	app := &domain.Application{ID: uuid.New(), PropertyID: p.ID, TenantID: tenant, Status: domain.ApplicationStatusPending, SubmittedAt: base}
	require.NoError(t, s.ApplicationRepository.Create(ctx, app))

	t.Run("Duplicate is a conflict", func(t *testing.T) {
		dup := &domain.Application{ID: uuid.New(), PropertyID: p.ID, TenantID: tenant, Status: domain.ApplicationStatusPending}
		err := s.ApplicationRepository.Create(ctx, dup)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	other := &domain.Application{ID: uuid.New(), PropertyID: p.ID, TenantID: uuid.New(), Status: domain.ApplicationStatusPending, SubmittedAt: base.Add(time.Hour)}
	done := &domain.Application{ID: uuid.New(), PropertyID: p.ID, TenantID: uuid.New(), Status: domain.ApplicationStatusRejected, SubmittedAt: base.Add(2 * time.Hour)}
	require.NoError(t, s.ApplicationRepository.Create(ctx, other))
	require.NoError(t, s.ApplicationRepository.Create(ctx, done))

	t.Run("List newest first with status filter", func(t *testing.T) {
		apps, total, err := s.ApplicationRepository.ListByProperties(ctx, []uuid.UUID{p.ID}, "", domain.NewPage(1, 2))
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, apps, 2)
		assert.Equal(t, done.ID, apps[0].ID)

		pending, total, err := s.ApplicationRepository.ListByProperties(ctx, []uuid.UUID{p.ID}, domain.ApplicationStatusPending, domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, pending, 2)
	})

	t.Run("RejectSiblings skips kept and already rejected", func(t *testing.T) {
		rejected, err := s.ApplicationRepository.RejectSiblings(ctx, p.ID, app.ID)
		require.NoError(t, err)
		require.Len(t, rejected, 1)
		assert.Equal(t, other.ID, rejected[0].ID)

		kept, _ := s.ApplicationRepository.GetByID(ctx, app.ID)
		assert.Equal(t, domain.ApplicationStatusPending, kept.Status)
	})
}

func TestLeaseRepository_SingleActiveLease(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	propertyID := uuid.New()

	first := &domain.Lease{ID: uuid.New(), PropertyID: propertyID, ApplicationID: uuid.New(), Status: domain.LeaseStatusActive}
	require.NoError(t, s.LeaseRepository.Create(ctx, first))

	second := &domain.Lease{ID: uuid.New(), PropertyID: propertyID, ApplicationID: uuid.New(), Status: domain.LeaseStatusActive}
	assert.True(t, errors.Is(s.LeaseRepository.Create(ctx, second), domain.ErrConflict))

	first.Status = domain.LeaseStatusTerminated
	require.NoError(t, s.LeaseRepository.Update(ctx, first))
	assert.NoError(t, s.LeaseRepository.Create(ctx, second))
}

func TestPaymentRepository_MarkOverdue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	leaseID := uuid.New()
	now := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	past := domain.Payment{ID: uuid.New(), LeaseID: leaseID, DueDate: now.AddDate(0, 0, -1), Status: domain.PaymentStatusPending}
	future := domain.Payment{ID: uuid.New(), LeaseID: leaseID, DueDate: now.AddDate(0, 1, 0), Status: domain.PaymentStatusPending}
	partial := domain.Payment{ID: uuid.New(), LeaseID: leaseID, DueDate: now.AddDate(0, -1, 0), Status: domain.PaymentStatusPartiallyPaid}
	require.NoError(t, s.PaymentRepository.CreateBatch(ctx, []domain.Payment{past, future, partial}))

	changed, err := s.PaymentRepository.MarkOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, past.ID, changed[0].ID)

	again, err := s.PaymentRepository.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)

	list, total, err := s.PaymentRepository.ListByLeases(ctx, []uuid.UUID{leaseID}, "", domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, partial.ID, list[0].ID)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := uuid.New()
	n := &domain.Notification{ID: uuid.New(), UserID: owner, Title: "t", CreatedAt: time.Now()}
	require.NoError(t, s.NotificationRepository.Create(ctx, n))

	assert.True(t, errors.Is(s.NotificationRepository.MarkAsRead(ctx, n.ID, uuid.New()), domain.ErrNotFound))
	require.NoError(t, s.NotificationRepository.MarkAsRead(ctx, n.ID, owner))

	list, total, err := s.NotificationRepository.List(ctx, owner, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.True(t, list[0].IsRead)
}

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := uuid.New()

	require.NoError(t, s.UserRepository.Upsert(ctx, &domain.User{ID: id, Name: "Ada", Email: "ada@example.com", Role: domain.RoleTenant}))
	require.NoError(t, s.UserRepository.Upsert(ctx, &domain.User{ID: id, Name: "ada@new.example.com", Email: "ada@new.example.com", Role: domain.RoleLandlord}))

	u, err := s.UserRepository.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@new.example.com", u.Email)
	assert.Equal(t, domain.RoleLandlord, u.Role)
}
