package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rental-marketplace-backend/internal/domain"
)

type createPropertyRequest struct {
	Name        string          `json:"name"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	Deposit     decimal.Decimal `json:"deposit"`
}

// updatePropertyRequest has no availability field: decodeJSON rejects
// unknown fields, so is_available cannot be smuggled in.
type updatePropertyRequest struct {
	Name        *string          `json:"name,omitempty"`
	MonthlyRent *decimal.Decimal `json:"monthly_rent,omitempty"`
	Deposit     *decimal.Decimal `json:"deposit,omitempty"`
}

func (r updatePropertyRequest) toDomain() domain.PropertyUpdate {
	return domain.PropertyUpdate{Name: r.Name, MonthlyRent: r.MonthlyRent, Deposit: r.Deposit}
}

type submitApplicationRequest struct {
	Message string `json:"message"`
}

type leaseDetailsRequest struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Rent      decimal.Decimal `json:"rent"`
	Deposit   decimal.Decimal `json:"deposit"`
}

type decideApplicationRequest struct {
	// Decision is APPROVE/REJECT; status names are accepted too.
	Decision     string               `json:"decision"`
	LeaseDetails *leaseDetailsRequest `json:"lease_details,omitempty"`
}

type captureOrderRequest struct {
	OrderID string `json:"order_id"`
}

func (r *leaseDetailsRequest) toDomain() (*domain.LeaseDetails, error) {
	if r == nil {
		return nil, nil
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	return &domain.LeaseDetails{
		StartDate:   start,
		EndDate:     end,
		MonthlyRent: r.Rent,
		Deposit:     r.Deposit,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.NewValidationError("%s is required", field)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("%s must be YYYY-MM-DD or RFC 3339", field)
	}
	return t.UTC(), nil
}
