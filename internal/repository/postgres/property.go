package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type propertyRepository struct {
	q queryer
}

func NewPropertyRepository(db *sql.DB) repository.PropertyRepository {
	return &propertyRepository{q: db}
}

const propertyColumns = `id, landlord_id, name, is_available, monthly_rent, deposit, created_at, updated_at`

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	query := `INSERT INTO properties (` + propertyColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "properties", "propertyID", p.ID, "landlordID", p.LandlordID)
	_, err := r.q.ExecContext(ctx, query, p.ID, p.LandlordID, p.Name, p.IsAvailable, p.MonthlyRent, p.Deposit, p.CreatedAt, p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "propertyID", p.ID)
	return mapError("insert property", "property not found", err)
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get property", "property not found", err)
	}
	return p, nil
}

func (r *propertyRepository) ListIDsByLandlord(ctx context.Context, landlordID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM properties WHERE landlord_id = $1`, landlordID)
	if err != nil {
		return nil, mapError("list properties", "", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scan property", "", err)
		}
		ids = append(ids, id)
	}
	return ids, mapError("list properties", "", rows.Err())
}

func scanProperty(s rowScanner) (*domain.Property, error) {
	p := &domain.Property{}
	if err := s.Scan(&p.ID, &p.LandlordID, &p.Name, &p.IsAvailable, &p.MonthlyRent, &p.Deposit, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *propertyRepository) List(ctx context.Context, filter domain.PropertyFilter, page domain.Page) ([]domain.Property, int, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Available != nil {
		conds = append(conds, "is_available = "+arg(*filter.Available))
	}
	if filter.LandlordID != nil {
		conds = append(conds, "landlord_id = "+arg(*filter.LandlordID))
	}
	if filter.Search != "" {
		conds = append(conds, "name ILIKE '%' || "+arg(filter.Search)+" || '%'")
	}
	if filter.MinRent != nil {
		conds = append(conds, "monthly_rent >= "+arg(*filter.MinRent))
	}
	if filter.MaxRent != nil {
		conds = append(conds, "monthly_rent <= "+arg(*filter.MaxRent))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM properties`+where, args...).Scan(&count); err != nil {
		return nil, 0, mapError("count properties", "", err)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties` + where +
		` ORDER BY created_at DESC, id LIMIT ` + arg(page.Size) + ` OFFSET ` + arg(page.Offset())
	logger.DatabaseCall("SELECT", "properties", "filters", len(conds))
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, 0, mapError("list properties", "", err)
	}
	defer rows.Close()

	properties := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, mapError("scan property", "", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("list properties", "", err)
	}
	logger.DatabaseResult("SELECT", int64(len(properties)), nil)
	return properties, count, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `UPDATE properties SET name = $1, monthly_rent = $2, deposit = $3, updated_at = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "properties", "propertyID", p.ID)
	res, err := r.q.ExecContext(ctx, query, p.Name, p.MonthlyRent, p.Deposit, p.UpdatedAt, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError("update property", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.NewNotFoundError("property not found")
	}
	return nil
}

func (r *propertyRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	logger.DatabaseCall("UPDATE", "properties", "propertyID", id, "available", available)
	res, err := r.q.ExecContext(ctx, `UPDATE properties SET is_available = $1, updated_at = NOW() WHERE id = $2`, available, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError("update property", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.NewNotFoundError("property not found")
	}
	return nil
}
