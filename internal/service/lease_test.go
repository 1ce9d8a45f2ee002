package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
)

func TestLeaseService_Terminate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, lease, tenant := f.approved(t)

	terminatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.leases.(*leaseService).now = func() time.Time { return terminatedAt }

	t.Run("Tenant cannot terminate", func(t *testing.T) {
		_, err := f.leases.Terminate(ctx, tenant, lease.ID)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Success", func(t *testing.T) {
		got, err := f.leases.Terminate(ctx, f.landlord, lease.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeaseStatusTerminated, got.Status)
		assert.True(t, terminatedAt.Equal(got.EndDate))
		require.NotNil(t, got.TerminatedAt)

		prop, err := f.store.PropertyRepository.GetByID(ctx, lease.PropertyID)
		require.NoError(t, err)
		assert.True(t, prop.IsAvailable)

		events := f.events.ofType(domain.EventLeaseTerminated)
		require.Len(t, events, 1)
		assert.True(t, events[0].Concerns(tenant.UserID))
		assert.True(t, events[0].Concerns(f.landlord.UserID))
	})

	t.Run("Already terminated", func(t *testing.T) {
		_, err := f.leases.Terminate(ctx, f.landlord, lease.ID)
		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	})

	t.Run("Missing lease", func(t *testing.T) {
		_, err := f.leases.Terminate(ctx, f.landlord, uuid.New())
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("Property can be leased again", func(t *testing.T) {
		next := newTenant()
		app := f.apply(t, lease.PropertyID, next)
		d := leaseDetails()
		_, err := f.apps.Decide(ctx, f.landlord, app.ID, domain.DecisionApprove, &d)
		assert.NoError(t, err)
	})
}

func TestLeaseService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, lease, tenant := f.approved(t)

	t.Run("Parties and admin can read", func(t *testing.T) {
		for _, p := range []domain.Principal{tenant, f.landlord, f.admin} {
			got, err := f.leases.GetLease(ctx, p, lease.ID)
			require.NoError(t, err)
			assert.Equal(t, lease.ID, got.ID)
		}
		_, err := f.leases.GetLease(ctx, newTenant(), lease.ID)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("List by role", func(t *testing.T) {
		leases, page, err := f.leases.ListLeases(ctx, tenant, domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Len(t, leases, 1)
		assert.Equal(t, 1, page.TotalItems)

		leases, _, err = f.leases.ListLeases(ctx, f.landlord, domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Len(t, leases, 1)

		leases, _, err = f.leases.ListLeases(ctx, newTenant(), domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Empty(t, leases)
	})
}
