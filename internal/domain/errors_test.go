package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("approve: %w", NewInvalidStateError("application is already processed"))

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, CodeInvalidState, CodeOf(err))
	assert.Equal(t, "application is already processed", MessageOf(err))
}

func TestCodeOf_Unclassified(t *testing.T) {
	err := errors.New("connection reset")
	assert.Equal(t, CodeInfrastructure, CodeOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewInfrastructureError("select payments", errors.New("timeout"))))
	assert.False(t, IsRetryable(NewValidationError("bad input")))
	assert.False(t, IsRetryable(nil))
}

func TestLeaseDetails_Validate(t *testing.T) {
	start := date(2024, 1, 15)

	t.Run("Valid", func(t *testing.T) {
		d := LeaseDetails{StartDate: start, EndDate: start.AddDate(1, 0, 0)}
		assert.NoError(t, d.Validate())
	})

	t.Run("End equal to start", func(t *testing.T) {
		d := LeaseDetails{StartDate: start, EndDate: start}
		assert.ErrorIs(t, d.Validate(), ErrValidation)
	})
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(NewPage(2, 10), 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)

	last := NewPagination(NewPage(3, 10), 25)
	assert.False(t, last.HasNextPage)
}
