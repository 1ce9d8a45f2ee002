package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/repository/postgres"
)

var applicationCols = []string{"id", "property_id", "tenant_id", "lease_id", "status", "message", "submitted_at", "updated_at"}

var paymentCols = []string{"id", "lease_id", "amount_due", "amount_paid", "due_date", "payment_date", "status",
	"payment_method", "external_order_id", "transaction_id", "payer_email", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPropertyRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewPropertyRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		now := time.Now()
		p := &domain.Property{ID: uuid.New(), LandlordID: uuid.New(), Name: "Loft", IsAvailable: true,
			MonthlyRent: decimal.NewFromInt(1200), Deposit: decimal.NewFromInt(600), CreatedAt: now, UpdatedAt: now}
		mock.ExpectExec("INSERT INTO properties").
			WithArgs(p.ID, p.LandlordID, p.Name, true, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, p))
	})

	t.Run("GetByID not found", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery("SELECT .* FROM properties WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("SetAvailability missing row", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectExec("UPDATE properties SET is_available").
			WithArgs(false, id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetAvailability(ctx, id, false)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewApplicationRepository(db)
	ctx := context.Background()
	app := &domain.Application{ID: uuid.New(), PropertyID: uuid.New(), TenantID: uuid.New(), Status: domain.ApplicationStatusPending,
		SubmittedAt: time.Now(), UpdatedAt: time.Now()}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO applications").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Create(ctx, app))
	})

	t.Run("Duplicate maps to conflict", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO applications").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_applications_property_tenant"})

		err := repo.Create(ctx, app)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("Driver failure maps to infrastructure", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO applications").
			WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, app)
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
		assert.True(t, domain.IsRetryable(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_RejectSiblings(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewApplicationRepository(db)
	propertyID, keepID, siblingID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("UPDATE applications SET status = \\$1").
		WithArgs(domain.ApplicationStatusRejected, propertyID, keepID, domain.ApplicationStatusPending, domain.ApplicationStatusApproved).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(siblingID.String(), propertyID.String(), uuid.NewString(), nil, "REJECTED", "", now, now))

	apps, err := repo.RejectSiblings(context.Background(), propertyID, keepID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, siblingID, apps[0].ID)
	assert.Equal(t, domain.ApplicationStatusRejected, apps[0].Status)
	assert.Nil(t, apps[0].LeaseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_ListByProperties(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewApplicationRepository(db)
	ctx := context.Background()

	t.Run("No properties", func(t *testing.T) {
		apps, total, err := repo.ListByProperties(ctx, nil, "", domain.NewPage(1, 10))
		assert.NoError(t, err)
		assert.Empty(t, apps)
		assert.Equal(t, 0, total)
	})

	t.Run("Filtered by status", func(t *testing.T) {
		propertyID := uuid.New()
		leaseID := uuid.New()
		now := time.Now()
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM applications WHERE property_id = ANY").
			WithArgs(sqlmock.AnyArg(), domain.ApplicationStatusApproved).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
		mock.ExpectQuery("SELECT .* FROM applications WHERE property_id = ANY.* LIMIT \\$3 OFFSET \\$4").
			WithArgs(sqlmock.AnyArg(), domain.ApplicationStatusApproved, 10, 10).
			WillReturnRows(sqlmock.NewRows(applicationCols).
				AddRow(uuid.NewString(), propertyID.String(), uuid.NewString(), leaseID.String(), "APPROVED", "hi", now, now))

		apps, total, err := repo.ListByProperties(ctx, []uuid.UUID{propertyID}, domain.ApplicationStatusApproved, domain.NewPage(2, 10))
		require.NoError(t, err)
		assert.Equal(t, 11, total)
		require.Len(t, apps, 1)
		require.NotNil(t, apps[0].LeaseID)
		assert.Equal(t, leaseID, *apps[0].LeaseID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_MarkOverdue(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewPaymentRepository(db)
	now := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	id, leaseID := uuid.New(), uuid.New()

	mock.ExpectQuery("UPDATE payments SET status = \\$1, updated_at = \\$2").
		WithArgs(domain.PaymentStatusOverdue, now, domain.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(id.String(), leaseID.String(), "1000.00", "0", due, nil, "OVERDUE", "", "", "", "", due, now))

	payments, err := repo.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusOverdue, payments[0].Status)
	assert.True(t, payments[0].AmountDue.Equal(decimal.NewFromInt(1000)))
	assert.Nil(t, payments[0].PaymentDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateBatch(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewPaymentRepository(db)
	leaseID := uuid.New()
	schedule := domain.GenerateSchedule(leaseID, decimal.NewFromInt(900),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), 5)
	require.Len(t, schedule, 3)

	mock.ExpectExec("INSERT INTO payments .* VALUES \\(\\$1, .*\\), \\(\\$14, .*\\), \\(\\$27, .*\\)").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, repo.CreateBatch(context.Background(), schedule))
	assert.NoError(t, repo.CreateBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RunInTx(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Commit uses row locks", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)
		appID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM applications WHERE id = \\$1 FOR UPDATE").
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows(applicationCols).
				AddRow(appID.String(), uuid.NewString(), uuid.NewString(), nil, "PENDING", "", now, now))
		mock.ExpectExec("UPDATE properties SET is_available").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repository.RunInTx(ctx, store, func(tx repository.Tx) error {
			app, err := tx.Applications().GetByIDForUpdate(ctx, appID)
			if err != nil {
				return err
			}
			return tx.Properties().SetAvailability(ctx, app.PropertyID, false)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE properties SET is_available").
			WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		err := repository.RunInTx(ctx, store, func(tx repository.Tx) error {
			return tx.Properties().SetAvailability(ctx, uuid.New(), false)
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit failure is infrastructure", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := repository.RunInTx(ctx, store, func(tx repository.Tx) error { return nil })
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})
}

func TestUserRepository_Upsert(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepository(db)
	u := &domain.User{ID: uuid.New(), Name: "lee@example.com", Email: "lee@example.com", Role: domain.RoleLandlord}

	t.Run("Inserts or refreshes", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users .* ON CONFLICT \\(id\\) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role").
			WithArgs(u.ID, u.Name, u.Email, u.Role).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Upsert(context.Background(), u))
	})

	t.Run("Driver failure is infrastructure", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(errors.New("connection reset"))

		err := repo.Upsert(context.Background(), u)
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

var propertyCols = []string{"id", "landlord_id", "name", "is_available", "monthly_rent", "deposit", "created_at", "updated_at"}

func TestPropertyRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewPropertyRepository(db)
	now := time.Now()
	available := true
	maxRent := decimal.NewFromInt(900)
	id := uuid.New()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM properties WHERE is_available = \\$1 AND name ILIKE '%' \\|\\| \\$2 \\|\\| '%' AND monthly_rent <= \\$3").
		WithArgs(true, "loft", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM properties WHERE .* ORDER BY created_at DESC, id LIMIT \\$4 OFFSET \\$5").
		WithArgs(true, "loft", sqlmock.AnyArg(), 10, 0).
		WillReturnRows(sqlmock.NewRows(propertyCols).
			AddRow(id.String(), uuid.NewString(), "Loft", true, "850.00", "400.00", now, now))

	list, total, err := repo.List(context.Background(), domain.PropertyFilter{Available: &available, Search: "loft", MaxRent: &maxRent}, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.True(t, list[0].MonthlyRent.Equal(decimal.NewFromInt(850)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewPropertyRepository(db)
	p := &domain.Property{ID: uuid.New(), Name: "Loft", MonthlyRent: decimal.NewFromInt(1100), Deposit: decimal.NewFromInt(500), UpdatedAt: time.Now()}

	t.Run("Leaves availability alone", func(t *testing.T) {
		mock.ExpectExec("UPDATE properties SET name = \\$1, monthly_rent = \\$2, deposit = \\$3, updated_at = \\$4 WHERE id = \\$5").
			WithArgs(p.Name, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Update(context.Background(), p))
	})

	t.Run("Missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE properties SET name").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.True(t, errors.Is(repo.Update(context.Background(), p), domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewStatsRepository(db)
	ctx := context.Background()

	t.Run("Landlord overview derives vacancy and month bounds", func(t *testing.T) {
		landlordID := uuid.New()
		now := time.Date(2024, 12, 18, 15, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT .* FROM properties WHERE landlord_id = \\$1").
			WithArgs(landlordID, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).
			WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h"}).
				AddRow(4, 3, 2, 3, 5, 1, "4200.00", "1400.00"))

		s, err := repo.LandlordOverview(ctx, landlordID, now)
		require.NoError(t, err)
		assert.Equal(t, 4, s.TotalProperties)
		assert.Equal(t, 1, s.VacantProperties)
		assert.Equal(t, 5, s.OpenPayments)
		assert.True(t, s.CollectedThisMonth.Equal(decimal.NewFromInt(1400)))
	})

	t.Run("Tenant overview", func(t *testing.T) {
		tenantID := uuid.New()
		now := time.Now()
		mock.ExpectQuery("SELECT .* FROM leases WHERE tenant_id = \\$1 AND status = 'ACTIVE'").
			WithArgs(tenantID, now).
			WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).AddRow(1, 2, 1, 0, "1000.00"))

		s, err := repo.TenantOverview(ctx, tenantID, now)
		require.NoError(t, err)
		assert.Equal(t, 2, s.UpcomingPayments)
		assert.True(t, s.TotalPaid.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("Admin overview failure is infrastructure", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM users").WillReturnError(errors.New("timeout"))
		_, err := repo.AdminOverview(ctx)
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
