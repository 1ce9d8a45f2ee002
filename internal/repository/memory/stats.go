package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rental-marketplace-backend/internal/domain"
)

type statsRepository struct{ a access }

func (r *statsRepository) AdminOverview(_ context.Context) (*domain.AdminStats, error) {
	s := &domain.AdminStats{}
	err := r.a.read(func(d *dataset) error {
		s.TotalUsers = len(d.users)
		s.TotalProperties = len(d.properties)
		for _, p := range d.properties {
			if p.IsAvailable {
				s.AvailableProperties++
			}
		}
		s.TotalLeases = len(d.leases)
		for _, l := range d.leases {
			if l.Status == domain.LeaseStatusActive {
				s.ActiveLeases++
			}
		}
		s.TotalPayments = len(d.payments)
		for _, p := range d.payments {
			if p.Status == domain.PaymentStatusOverdue {
				s.OverduePayments++
			}
		}
		s.TotalApplications = len(d.applications)
		for _, a := range d.applications {
			if a.Status == domain.ApplicationStatusPending {
				s.PendingApplications++
			}
		}
		return nil
	})
	return s, err
}

func (r *statsRepository) TenantOverview(_ context.Context, tenantID uuid.UUID, now time.Time) (*domain.TenantStats, error) {
	s := &domain.TenantStats{TotalPaid: decimal.Zero}
	err := r.a.read(func(d *dataset) error {
		for _, l := range d.leases {
			if l.TenantID == tenantID && l.Status == domain.LeaseStatusActive {
				s.ActiveLeases++
			}
		}
		for _, p := range d.payments {
			l, ok := d.leases[p.LeaseID]
			if !ok || l.TenantID != tenantID {
				continue
			}
			s.TotalPaid = s.TotalPaid.Add(p.AmountPaid)
			switch {
			case p.Status == domain.PaymentStatusPending && !p.DueDate.Before(now):
				s.UpcomingPayments++
			case p.Status == domain.PaymentStatusOverdue:
				s.OverduePayments++
			}
		}
		for _, a := range d.applications {
			if a.TenantID == tenantID && a.Status == domain.ApplicationStatusPending {
				s.PendingApplications++
			}
		}
		return nil
	})
	return s, err
}

func (r *statsRepository) LandlordOverview(_ context.Context, landlordID uuid.UUID, now time.Time) (*domain.LandlordStats, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	s := &domain.LandlordStats{TotalCollected: decimal.Zero, CollectedThisMonth: decimal.Zero}
	err := r.a.read(func(d *dataset) error {
		for _, p := range d.properties {
			if p.LandlordID != landlordID {
				continue
			}
			s.TotalProperties++
			if !p.IsAvailable {
				s.OccupiedProperties++
			}
		}
		for _, a := range d.applications {
			if p, ok := d.properties[a.PropertyID]; ok && p.LandlordID == landlordID && a.Status == domain.ApplicationStatusPending {
				s.PendingApplications++
			}
		}
		for _, l := range d.leases {
			if l.LandlordID == landlordID && l.Status == domain.LeaseStatusActive {
				s.ActiveLeases++
			}
		}
		for _, p := range d.payments {
			l, ok := d.leases[p.LeaseID]
			if !ok || l.LandlordID != landlordID {
				continue
			}
			switch p.Status {
			case domain.PaymentStatusPending, domain.PaymentStatusPartiallyPaid:
				s.OpenPayments++
			case domain.PaymentStatusOverdue:
				s.OverduePayments++
			}
			s.TotalCollected = s.TotalCollected.Add(p.AmountPaid)
			if p.PaymentDate != nil && !p.PaymentDate.Before(monthStart) && p.PaymentDate.Before(monthEnd) {
				s.CollectedThisMonth = s.CollectedThisMonth.Add(p.AmountPaid)
			}
		}
		return nil
	})
	s.VacantProperties = s.TotalProperties - s.OccupiedProperties
	return s, err
}
