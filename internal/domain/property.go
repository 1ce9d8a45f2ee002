package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Property struct {
	ID          uuid.UUID       `json:"id"`
	LandlordID  uuid.UUID       `json:"landlord_id"`
	Name        string          `json:"name"`
	IsAvailable bool            `json:"is_available"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	Deposit     decimal.Decimal `json:"deposit"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PropertyFilter narrows a property listing. Nil fields and an empty search
// match everything.
type PropertyFilter struct {
	Available  *bool
	LandlordID *uuid.UUID
	Search     string
	MinRent    *decimal.Decimal
	MaxRent    *decimal.Decimal
}

// PropertyUpdate holds the landlord-editable fields. Availability is not one
// of them: only approval and lease termination move it.
type PropertyUpdate struct {
	Name        *string
	MonthlyRent *decimal.Decimal
	Deposit     *decimal.Decimal
}

func (u PropertyUpdate) Empty() bool {
	return u.Name == nil && u.MonthlyRent == nil && u.Deposit == nil
}
