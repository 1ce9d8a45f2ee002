package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	_ "github.com/lib/pq"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

//go:embed schema.sql
var schema string

// queryer is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same code runs standalone or inside a unit of work.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.PropertyRepository
	repository.ApplicationRepository
	repository.LeaseRepository
	repository.PaymentRepository
	repository.NotificationRepository
	repository.StatsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		PropertyRepository:     NewPropertyRepository(db),
		ApplicationRepository:  NewApplicationRepository(db),
		LeaseRepository:        NewLeaseRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		StatsRepository:        NewStatsRepository(db),
	}
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("DDL", "schema")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("DDL", 0, err)
	if err != nil {
		return domain.NewInfrastructureError("apply schema", err)
	}
	return nil
}

// Begin implements repository.UnitOfWork on top of database/sql. The
// transaction is bound to ctx: if ctx is cancelled before Commit the driver
// rolls it back.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	logger.TxBegin("postgres")
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, domain.NewInfrastructureError("begin transaction", err)
	}
	return &txHandle{
		tx:           tx,
		properties:   &propertyRepository{q: tx},
		applications: &applicationRepository{q: tx, locking: true},
		leases:       &leaseRepository{q: tx, locking: true},
		payments:     &paymentRepository{q: tx, locking: true},
	}, nil
}

type txHandle struct {
	tx           *sql.Tx
	properties   *propertyRepository
	applications *applicationRepository
	leases       *leaseRepository
	payments     *paymentRepository
}

func (t *txHandle) Properties() repository.PropertyRepository       { return t.properties }
func (t *txHandle) Applications() repository.ApplicationRepository { return t.applications }
func (t *txHandle) Leases() repository.LeaseRepository             { return t.leases }
func (t *txHandle) Payments() repository.PaymentRepository         { return t.payments }

func (t *txHandle) Commit() error {
	err := t.tx.Commit()
	logger.TxCommit("postgres", err)
	return err
}

func (t *txHandle) Rollback() error {
	err := t.tx.Rollback()
	if err == nil {
		logger.TxRollback("postgres")
	}
	return err
}
