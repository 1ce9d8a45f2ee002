package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "ACTIVE"
	LeaseStatusTerminated LeaseStatus = "TERMINATED"
)

type Lease struct {
	ID            uuid.UUID       `json:"id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	LandlordID    uuid.UUID       `json:"landlord_id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
	Deposit       decimal.Decimal `json:"deposit"`
	Status        LeaseStatus     `json:"status"`
	TerminatedAt  *time.Time      `json:"terminated_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsParty reports whether the user is the tenant or landlord of the lease.
func (l *Lease) IsParty(userID uuid.UUID) bool {
	return l.TenantID == userID || l.LandlordID == userID
}

// LeaseDetails are the landlord-supplied terms accompanying an approval.
type LeaseDetails struct {
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	MonthlyRent decimal.Decimal `json:"rent"`
	Deposit     decimal.Decimal `json:"deposit"`
}

func (d *LeaseDetails) Validate() error {
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return NewValidationError("lease start and end dates are required")
	}
	if !d.EndDate.After(d.StartDate) {
		return NewValidationError("end date must be after start date")
	}
	if d.MonthlyRent.IsNegative() {
		return NewValidationError("rent cannot be negative")
	}
	if d.Deposit.IsNegative() {
		return NewValidationError("deposit cannot be negative")
	}
	return nil
}
