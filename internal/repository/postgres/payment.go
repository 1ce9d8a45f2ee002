package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type paymentRepository struct {
	q       queryer
	locking bool
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{q: db}
}

const paymentColumns = `id, lease_id, amount_due, amount_paid, due_date, payment_date, status, payment_method, external_order_id, transaction_id, payer_email, created_at, updated_at`

func scanPayment(s rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := s.Scan(&p.ID, &p.LeaseID, &p.AmountDue, &p.AmountPaid, &p.DueDate, &p.PaymentDate, &p.Status,
		&p.PaymentMethod, &p.ExternalOrderID, &p.TransactionID, &p.PayerEmail, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateBatch writes the whole schedule in one multi-row INSERT.
func (r *paymentRepository) CreateBatch(ctx context.Context, payments []domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	const perRow = 13
	values := make([]string, 0, len(payments))
	args := make([]any, 0, len(payments)*perRow)
	for i, p := range payments {
		ph := make([]string, perRow)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*perRow+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args, p.ID, p.LeaseID, p.AmountDue, p.AmountPaid, p.DueDate, p.PaymentDate, p.Status,
			p.PaymentMethod, p.ExternalOrderID, p.TransactionID, p.PayerEmail, p.CreatedAt, p.UpdatedAt)
	}
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ` + strings.Join(values, ", ")
	logger.DatabaseCall("INSERT", "payments", "leaseID", payments[0].LeaseID, "count", len(payments))
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err)
		return mapError("insert payments", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, nil)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(r.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get payment", "payment not found", err)
	}
	return p, nil
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	if !r.locking {
		return r.GetByID(ctx, id)
	}
	p, err := scanPayment(r.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("lock payment", "payment not found", err)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE payments SET amount_paid = $1, payment_date = $2, status = $3, payment_method = $4,
	          external_order_id = $5, transaction_id = $6, payer_email = $7, updated_at = $8 WHERE id = $9`
	logger.DatabaseCall("UPDATE", "payments", "paymentID", p.ID, "status", p.Status)
	res, err := r.q.ExecContext(ctx, query, p.AmountPaid, p.PaymentDate, p.Status, p.PaymentMethod,
		p.ExternalOrderID, p.TransactionID, p.PayerEmail, p.UpdatedAt, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError("update payment", "", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.NewNotFoundError("payment not found")
	}
	return nil
}

func (r *paymentRepository) ListByLeases(ctx context.Context, leaseIDs []uuid.UUID, status domain.PaymentStatus, page domain.Page) ([]domain.Payment, int, error) {
	if len(leaseIDs) == 0 {
		return []domain.Payment{}, 0, nil
	}
	where := ` FROM payments WHERE lease_id = ANY($1::uuid[])`
	args := []any{pq.Array(uuidStrings(leaseIDs))}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT count(*)`+where, args...).Scan(&count); err != nil {
		return nil, 0, mapError("count payments", "", err)
	}

	query := `SELECT ` + paymentColumns + where +
		fmt.Sprintf(` ORDER BY due_date ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())
	payments, err := r.collect(ctx, "list payments", query, args...)
	return payments, count, err
}

func (r *paymentRepository) MarkOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	query := `UPDATE payments SET status = $1, updated_at = $2
	          WHERE status = $3 AND due_date < $2
	          RETURNING ` + paymentColumns
	logger.DatabaseCall("UPDATE", "payments", "operation", "mark_overdue", "now", now)
	payments, err := r.collect(ctx, "mark overdue payments", query, domain.PaymentStatusOverdue, now, domain.PaymentStatusPending)
	logger.DatabaseResult("UPDATE", int64(len(payments)), err)
	return payments, err
}

func (r *paymentRepository) collect(ctx context.Context, op, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, "", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError("scan payment", "", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, "", err)
	}
	return payments, nil
}
