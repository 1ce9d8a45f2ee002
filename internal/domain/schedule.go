package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultDueDay is the day of month every scheduled payment falls due.
const DefaultDueDay = 5

// GenerateSchedule materializes one PENDING payment per month for a lease.
// The first due date is dueDay of the month after start's month; dates are
// produced month by month while they do not exceed end. An empty result is
// valid when the first due date already lies after end.
func GenerateSchedule(leaseID uuid.UUID, monthlyRent decimal.Decimal, start, end time.Time, dueDay int) []Payment {
	if dueDay < 1 || dueDay > 28 {
		dueDay = DefaultDueDay
	}
	loc := start.Location()
	year, month, _ := start.Date()

	payments := []Payment{}
	for i := 1; ; i++ {
		// time.Date normalizes month overflow into the following year.
		due := time.Date(year, month+time.Month(i), dueDay, 0, 0, 0, 0, loc)
		if due.After(end) {
			break
		}
		payments = append(payments, Payment{
			ID:         uuid.New(),
			LeaseID:    leaseID,
			AmountDue:  monthlyRent,
			AmountPaid: decimal.Zero,
			DueDate:    due,
			Status:     PaymentStatusPending,
		})
	}
	return payments
}
