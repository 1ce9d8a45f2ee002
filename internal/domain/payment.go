package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusOverdue       PaymentStatus = "OVERDUE"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

type Payment struct {
	ID              uuid.UUID       `json:"id"`
	LeaseID         uuid.UUID       `json:"lease_id"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	DueDate         time.Time       `json:"due_date"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	Status          PaymentStatus   `json:"status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	ExternalOrderID string          `json:"external_order_id,omitempty"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	PayerEmail      string          `json:"payer_email,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DerivePaymentStatus is the single source of truth for a payment's status:
//
//	paid >= due              => PAID
//	0 < paid < due           => PARTIALLY_PAID
//	paid == 0 && now > dueAt => OVERDUE
//	paid == 0 && now <= dueAt => PENDING
func DerivePaymentStatus(amountDue, amountPaid decimal.Decimal, dueDate, now time.Time) PaymentStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(amountDue):
		return PaymentStatusPaid
	case amountPaid.IsPositive():
		return PaymentStatusPartiallyPaid
	case now.After(dueDate):
		return PaymentStatusOverdue
	default:
		return PaymentStatusPending
	}
}

// Recompute re-derives Status at now and stamps PaymentDate on the
// transition into PAID. It must be called after every mutation of the
// amounts.
func (p *Payment) Recompute(now time.Time) {
	previous := p.Status
	p.Status = DerivePaymentStatus(p.AmountDue, p.AmountPaid, p.DueDate, now)
	if p.Status == PaymentStatusPaid && previous != PaymentStatusPaid {
		stamp := now
		p.PaymentDate = &stamp
	}
}

// CaptureConfirmation is what the gateway reports after collecting funds.
type CaptureConfirmation struct {
	CaptureID      string          `json:"capture_id"`
	CapturedAmount decimal.Decimal `json:"captured_amount"`
	PayerEmail     string          `json:"payer_email"`
}

// PaymentOrder is a gateway order created for a single payment.
type PaymentOrder struct {
	OrderID     string   `json:"order_id"`
	ApprovalURL string   `json:"approval_url"`
	Payment     *Payment `json:"payment"`
}

// OrderRequest is what the gateway needs to open a checkout for one payment.
type OrderRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReferenceID string
	ReturnURL   string
	CancelURL   string
}

type GatewayOrder struct {
	OrderID     string
	ApprovalURL string
}

// ErrOrderAlreadyCaptured is returned by a gateway when the order was
// captured by an earlier call.
var ErrOrderAlreadyCaptured = errors.New("order already captured")
