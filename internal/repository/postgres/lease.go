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

type leaseRepository struct {
	q       queryer
	locking bool
}

func NewLeaseRepository(db *sql.DB) repository.LeaseRepository {
	return &leaseRepository{q: db}
}

const leaseColumns = `id, property_id, tenant_id, landlord_id, application_id, start_date, end_date, monthly_rent, deposit, status, terminated_at, created_at, updated_at`

func scanLease(s rowScanner) (*domain.Lease, error) {
	l := &domain.Lease{}
	err := s.Scan(&l.ID, &l.PropertyID, &l.TenantID, &l.LandlordID, &l.ApplicationID, &l.StartDate, &l.EndDate,
		&l.MonthlyRent, &l.Deposit, &l.Status, &l.TerminatedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *leaseRepository) Create(ctx context.Context, l *domain.Lease) error {
	query := `INSERT INTO leases (` + leaseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	logger.DatabaseCall("INSERT", "leases", "leaseID", l.ID, "propertyID", l.PropertyID)
	_, err := r.q.ExecContext(ctx, query, l.ID, l.PropertyID, l.TenantID, l.LandlordID, l.ApplicationID, l.StartDate, l.EndDate,
		l.MonthlyRent, l.Deposit, l.Status, l.TerminatedAt, l.CreatedAt, l.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "leaseID", l.ID)
	return mapError("insert lease", "", err)
}

func (r *leaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	l, err := scanLease(r.q.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get lease", "lease not found", err)
	}
	return l, nil
}

func (r *leaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	if !r.locking {
		return r.GetByID(ctx, id)
	}
	l, err := scanLease(r.q.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("lock lease", "lease not found", err)
	}
	return l, nil
}

func (r *leaseRepository) Update(ctx context.Context, l *domain.Lease) error {
	l.UpdatedAt = time.Now().UTC()
	query := `UPDATE leases SET end_date = $1, status = $2, terminated_at = $3, updated_at = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "leases", "leaseID", l.ID, "status", l.Status)
	res, err := r.q.ExecContext(ctx, query, l.EndDate, l.Status, l.TerminatedAt, l.UpdatedAt, l.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError("update lease", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.NewNotFoundError("lease not found")
	}
	return nil
}

func (r *leaseRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Lease, int, error) {
	return r.listBy(ctx, "tenant_id", tenantID, page)
}

func (r *leaseRepository) ListByLandlord(ctx context.Context, landlordID uuid.UUID, page domain.Page) ([]domain.Lease, int, error) {
	return r.listBy(ctx, "landlord_id", landlordID, page)
}

// listBy is only called with a fixed column name, never with user input.
func (r *leaseRepository) listBy(ctx context.Context, column string, id uuid.UUID, page domain.Page) ([]domain.Lease, int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM leases WHERE `+column+` = $1`, id).Scan(&count); err != nil {
		return nil, 0, mapError("count leases", "", err)
	}

	query := `SELECT ` + leaseColumns + ` FROM leases WHERE ` + column + ` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, id, page.Size, page.Offset())
	if err != nil {
		return nil, 0, mapError("list leases", "", err)
	}
	defer rows.Close()

	leases := []domain.Lease{}
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, 0, mapError("scan lease", "", err)
		}
		leases = append(leases, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("list leases", "", err)
	}
	return leases, count, nil
}

func (r *leaseRepository) ListIDsByParty(ctx context.Context, userID uuid.UUID, role domain.Role) ([]uuid.UUID, error) {
	query := `SELECT id FROM leases`
	var args []any
	switch role {
	case domain.RoleTenant:
		query += ` WHERE tenant_id = $1`
		args = append(args, userID)
	case domain.RoleLandlord:
		query += ` WHERE landlord_id = $1`
		args = append(args, userID)
	case domain.RoleAdmin:
	default:
		return nil, domain.NewForbiddenError("role %q cannot own leases", role)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list leases", "", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scan lease", "", err)
		}
		ids = append(ids, id)
	}
	return ids, mapError("list leases", "", rows.Err())
}
