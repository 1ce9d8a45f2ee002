package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type applicationRepository struct {
	q       queryer
	locking bool
}

func NewApplicationRepository(db *sql.DB) repository.ApplicationRepository {
	return &applicationRepository{q: db}
}

const applicationColumns = `id, property_id, tenant_id, lease_id, status, message, submitted_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(s rowScanner) (*domain.Application, error) {
	a := &domain.Application{}
	var leaseID uuid.NullUUID
	if err := s.Scan(&a.ID, &a.PropertyID, &a.TenantID, &leaseID, &a.Status, &a.Message, &a.SubmittedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if leaseID.Valid {
		id := leaseID.UUID
		a.LeaseID = &id
	}
	return a, nil
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	logger.EnterMethod("applicationRepository.Create", "propertyID", a.PropertyID, "tenantID", a.TenantID)
	query := `INSERT INTO applications (` + applicationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "applications", "applicationID", a.ID)
	_, err := r.q.ExecContext(ctx, query, a.ID, a.PropertyID, a.TenantID, a.LeaseID, a.Status, a.Message, a.SubmittedAt, a.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "applicationID", a.ID)
	if err != nil {
		err = mapError("insert application", "", err)
		logger.ExitMethodWithError("applicationRepository.Create", err)
		return err
	}
	logger.ExitMethod("applicationRepository.Create", "applicationID", a.ID)
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	a, err := scanApplication(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get application", "application not found", err)
	}
	return a, nil
}

func (r *applicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	if !r.locking {
		return r.GetByID(ctx, id)
	}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	a, err := scanApplication(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("lock application", "application not found", err)
	}
	return a, nil
}

func (r *applicationRepository) GetByPropertyAndTenant(ctx context.Context, propertyID, tenantID uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE property_id = $1 AND tenant_id = $2`
	a, err := scanApplication(r.q.QueryRowContext(ctx, query, propertyID, tenantID))
	if err != nil {
		return nil, mapError("get application", "application not found", err)
	}
	return a, nil
}

func (r *applicationRepository) Update(ctx context.Context, a *domain.Application) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE applications SET status = $1, lease_id = $2, message = $3, updated_at = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "applications", "applicationID", a.ID, "status", a.Status)
	res, err := r.q.ExecContext(ctx, query, a.Status, a.LeaseID, a.Message, a.UpdatedAt, a.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError("update application", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.NewNotFoundError("application not found")
	}
	return nil
}

func (r *applicationRepository) RejectSiblings(ctx context.Context, propertyID, keepID uuid.UUID) ([]domain.Application, error) {
	query := `UPDATE applications SET status = $1, updated_at = NOW()
	          WHERE property_id = $2 AND id <> $3 AND status IN ($4, $5)
	          RETURNING ` + applicationColumns
	logger.DatabaseCall("UPDATE", "applications", "propertyID", propertyID, "keep", keepID)
	rows, err := r.q.QueryContext(ctx, query, domain.ApplicationStatusRejected, propertyID, keepID,
		domain.ApplicationStatusPending, domain.ApplicationStatusApproved)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, mapError("reject sibling applications", "", err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, mapError("scan application", "", err)
		}
		apps = append(apps, *a)
	}
	logger.DatabaseResult("UPDATE", int64(len(apps)), rows.Err())
	return apps, mapError("reject sibling applications", "", rows.Err())
}

func (r *applicationRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Application, int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM applications WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return nil, 0, mapError("count applications", "", err)
	}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE tenant_id = $1
	          ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`
	apps, err := r.list(ctx, query, tenantID, page.Size, page.Offset())
	return apps, count, err
}

// ListByProperties lists applications for any of propertyIDs. An empty
// status matches every status.
func (r *applicationRepository) ListByProperties(ctx context.Context, propertyIDs []uuid.UUID, status domain.ApplicationStatus, page domain.Page) ([]domain.Application, int, error) {
	if len(propertyIDs) == 0 {
		return []domain.Application{}, 0, nil
	}
	where := ` FROM applications WHERE property_id = ANY($1::uuid[])`
	args := []any{pq.Array(uuidStrings(propertyIDs))}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT count(*)`+where, args...).Scan(&count); err != nil {
		return nil, 0, mapError("count applications", "", err)
	}

	query := `SELECT ` + applicationColumns + where +
		fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())
	apps, err := r.list(ctx, query, args...)
	return apps, count, err
}

func (r *applicationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list applications", "", err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, mapError("scan application", "", err)
		}
		apps = append(apps, *a)
	}
	return apps, mapError("list applications", "", rows.Err())
}
