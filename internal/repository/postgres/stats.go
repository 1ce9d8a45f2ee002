package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type statsRepository struct {
	q queryer
}

func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{q: db}
}

const adminOverviewQuery = `SELECT
    (SELECT count(*) FROM users),
    (SELECT count(*) FROM properties),
    (SELECT count(*) FROM properties WHERE is_available),
    (SELECT count(*) FROM leases),
    (SELECT count(*) FROM leases WHERE status = 'ACTIVE'),
    (SELECT count(*) FROM payments),
    (SELECT count(*) FROM payments WHERE status = 'OVERDUE'),
    (SELECT count(*) FROM applications),
    (SELECT count(*) FROM applications WHERE status = 'PENDING')`

func (r *statsRepository) AdminOverview(ctx context.Context) (*domain.AdminStats, error) {
	s := &domain.AdminStats{}
	logger.DatabaseCall("SELECT", "stats", "scope", "admin")
	err := r.q.QueryRowContext(ctx, adminOverviewQuery).Scan(&s.TotalUsers, &s.TotalProperties, &s.AvailableProperties,
		&s.TotalLeases, &s.ActiveLeases, &s.TotalPayments, &s.OverduePayments, &s.TotalApplications, &s.PendingApplications)
	logger.DatabaseResult("SELECT", 1, err)
	if err != nil {
		return nil, mapError("admin overview", "", err)
	}
	return s, nil
}

const tenantOverviewQuery = `SELECT
    (SELECT count(*) FROM leases WHERE tenant_id = $1 AND status = 'ACTIVE'),
    (SELECT count(*) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.tenant_id = $1 AND p.status = 'PENDING' AND p.due_date >= $2),
    (SELECT count(*) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.tenant_id = $1 AND p.status = 'OVERDUE'),
    (SELECT count(*) FROM applications WHERE tenant_id = $1 AND status = 'PENDING'),
    (SELECT COALESCE(SUM(p.amount_paid), 0) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.tenant_id = $1)`

func (r *statsRepository) TenantOverview(ctx context.Context, tenantID uuid.UUID, now time.Time) (*domain.TenantStats, error) {
	s := &domain.TenantStats{}
	logger.DatabaseCall("SELECT", "stats", "scope", "tenant", "tenantID", tenantID)
	err := r.q.QueryRowContext(ctx, tenantOverviewQuery, tenantID, now).Scan(&s.ActiveLeases, &s.UpcomingPayments,
		&s.OverduePayments, &s.PendingApplications, &s.TotalPaid)
	logger.DatabaseResult("SELECT", 1, err)
	if err != nil {
		return nil, mapError("tenant overview", "", err)
	}
	return s, nil
}

const landlordOverviewQuery = `SELECT
    (SELECT count(*) FROM properties WHERE landlord_id = $1),
    (SELECT count(*) FROM properties WHERE landlord_id = $1 AND NOT is_available),
    (SELECT count(*) FROM applications a JOIN properties pr ON pr.id = a.property_id
        WHERE pr.landlord_id = $1 AND a.status = 'PENDING'),
    (SELECT count(*) FROM leases WHERE landlord_id = $1 AND status = 'ACTIVE'),
    (SELECT count(*) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.landlord_id = $1 AND p.status IN ('PENDING', 'PARTIALLY_PAID')),
    (SELECT count(*) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.landlord_id = $1 AND p.status = 'OVERDUE'),
    (SELECT COALESCE(SUM(p.amount_paid), 0) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.landlord_id = $1),
    (SELECT COALESCE(SUM(p.amount_paid), 0) FROM payments p JOIN leases l ON l.id = p.lease_id
        WHERE l.landlord_id = $1 AND p.payment_date >= $2 AND p.payment_date < $3)`

func (r *statsRepository) LandlordOverview(ctx context.Context, landlordID uuid.UUID, now time.Time) (*domain.LandlordStats, error) {
	monthStart, monthEnd := monthBounds(now)
	s := &domain.LandlordStats{}
	logger.DatabaseCall("SELECT", "stats", "scope", "landlord", "landlordID", landlordID)
	err := r.q.QueryRowContext(ctx, landlordOverviewQuery, landlordID, monthStart, monthEnd).Scan(&s.TotalProperties,
		&s.OccupiedProperties, &s.PendingApplications, &s.ActiveLeases, &s.OpenPayments, &s.OverduePayments,
		&s.TotalCollected, &s.CollectedThisMonth)
	logger.DatabaseResult("SELECT", 1, err)
	if err != nil {
		return nil, mapError("landlord overview", "", err)
	}
	s.VacantProperties = s.TotalProperties - s.OccupiedProperties
	return s, nil
}

// monthBounds returns [first day of now's month, first day of the next) in UTC.
func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
