package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
)

func TestPropertyService_ListProperties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cheap, err := f.props.CreateProperty(ctx, f.landlord, "Garden Studio", decimal.NewFromInt(700), decimal.NewFromInt(300))
	require.NoError(t, err)
	_, lease, tenant := f.approved(t)

	t.Run("Tenants see available listings by default", func(t *testing.T) {
		list, page, err := f.props.ListProperties(ctx, tenant, domain.PropertyFilter{}, domain.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, cheap.ID, list[0].ID)
		assert.Equal(t, 1, page.TotalItems)
	})

	t.Run("Landlords see every listing", func(t *testing.T) {
		_, page, err := f.props.ListProperties(ctx, f.landlord, domain.PropertyFilter{}, domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalItems)
	})

	t.Run("Explicit availability filter", func(t *testing.T) {
		occupied := false
		list, _, err := f.props.ListProperties(ctx, tenant, domain.PropertyFilter{Available: &occupied}, domain.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, lease.PropertyID, list[0].ID)
	})

	t.Run("Search and rent range", func(t *testing.T) {
		maxRent := decimal.NewFromInt(800)
		list, _, err := f.props.ListProperties(ctx, f.landlord, domain.PropertyFilter{Search: " garden ", MaxRent: &maxRent}, domain.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, cheap.ID, list[0].ID)

		minRent := decimal.NewFromInt(900)
		_, _, err = f.props.ListProperties(ctx, f.landlord, domain.PropertyFilter{MinRent: &minRent, MaxRent: &maxRent}, domain.NewPage(1, 10))
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Pagination", func(t *testing.T) {
		list, page, err := f.props.ListProperties(ctx, f.landlord, domain.PropertyFilter{}, domain.NewPage(2, 1))
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.True(t, page.HasPreviousPage)
		assert.False(t, page.HasNextPage)
	})
}

func TestPropertyService_UpdateProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, lease, tenant := f.approved(t)

	name := "12 Elm Street, Unit B"
	rent := decimal.NewFromInt(1100)

	t.Run("Owner updates details but not availability", func(t *testing.T) {
		updated, err := f.props.UpdateProperty(ctx, f.landlord, lease.PropertyID, domain.PropertyUpdate{Name: &name, MonthlyRent: &rent})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.True(t, updated.MonthlyRent.Equal(rent))

		stored, err := f.props.GetProperty(ctx, lease.PropertyID)
		require.NoError(t, err)
		assert.Equal(t, name, stored.Name)
		assert.False(t, stored.IsAvailable)
		assert.True(t, stored.Deposit.Equal(decimal.NewFromInt(500)))
	})

	t.Run("Admin may update", func(t *testing.T) {
		_, err := f.props.UpdateProperty(ctx, f.admin, lease.PropertyID, domain.PropertyUpdate{MonthlyRent: &rent})
		assert.NoError(t, err)
	})

	t.Run("Other users are forbidden", func(t *testing.T) {
		_, err := f.props.UpdateProperty(ctx, tenant, lease.PropertyID, domain.PropertyUpdate{Name: &name})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := f.props.UpdateProperty(ctx, f.landlord, lease.PropertyID, domain.PropertyUpdate{})
		assert.True(t, errors.Is(err, domain.ErrValidation))

		negative := decimal.NewFromInt(-1)
		_, err = f.props.UpdateProperty(ctx, f.landlord, lease.PropertyID, domain.PropertyUpdate{Deposit: &negative})
		assert.True(t, errors.Is(err, domain.ErrValidation))

		blank := "  "
		_, err = f.props.UpdateProperty(ctx, f.landlord, lease.PropertyID, domain.PropertyUpdate{Name: &blank})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}
