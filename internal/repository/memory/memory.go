// Package memory is an in-process store for local development and tests.
// Transactions are serialized: Begin blocks until no other transaction is
// open, works on a private copy of the data and publishes it on Commit.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type dataset struct {
	users         map[uuid.UUID]domain.User
	properties    map[uuid.UUID]domain.Property
	applications  map[uuid.UUID]domain.Application
	leases        map[uuid.UUID]domain.Lease
	payments      map[uuid.UUID]domain.Payment
	notifications map[uuid.UUID]domain.Notification
}

func newDataset() *dataset {
	return &dataset{
		users:         map[uuid.UUID]domain.User{},
		properties:    map[uuid.UUID]domain.Property{},
		applications:  map[uuid.UUID]domain.Application{},
		leases:        map[uuid.UUID]domain.Lease{},
		payments:      map[uuid.UUID]domain.Payment{},
		notifications: map[uuid.UUID]domain.Notification{},
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:         cloneMap(d.users),
		properties:    cloneMap(d.properties),
		applications:  cloneMap(d.applications),
		leases:        cloneMap(d.leases),
		payments:      cloneMap(d.payments),
		notifications: cloneMap(d.notifications),
	}
}

// access is how repositories reach data: directly against the committed
// dataset, or against a transaction's private copy.
type access interface {
	read(fn func(d *dataset) error) error
	write(ctx context.Context, fn func(d *dataset) error) error
}

type Store struct {
	mu   sync.RWMutex
	data *dataset
	// sem admits one writer at a time, transactional or not.
	sem chan struct{}

	repository.UserRepository
	repository.PropertyRepository
	repository.ApplicationRepository
	repository.LeaseRepository
	repository.PaymentRepository
	repository.NotificationRepository
	repository.StatsRepository
}

func NewStore() *Store {
	s := &Store{data: newDataset(), sem: make(chan struct{}, 1)}
	s.UserRepository = &userRepository{a: s}
	s.PropertyRepository = &propertyRepository{a: s}
	s.ApplicationRepository = &applicationRepository{a: s}
	s.LeaseRepository = &leaseRepository{a: s}
	s.PaymentRepository = &paymentRepository{a: s}
	s.NotificationRepository = &notificationRepository{a: s}
	s.StatsRepository = &statsRepository{a: s}
	return s
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return domain.NewInfrastructureError("acquire store lock", ctx.Err())
	}
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) read(fn func(d *dataset) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// write applies fn to a copy and publishes it only if fn succeeds, so a
// failed statement leaves no partial effect.
func (s *Store) write(ctx context.Context, fn func(d *dataset) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()
	if err := fn(staged); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	logger.TxBegin("memory")
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	t := &txHandle{store: s, ctx: ctx, data: staged}
	t.properties = &propertyRepository{a: t}
	t.applications = &applicationRepository{a: t}
	t.leases = &leaseRepository{a: t}
	t.payments = &paymentRepository{a: t}
	return t, nil
}

type txHandle struct {
	store *Store
	ctx   context.Context
	data  *dataset
	done  bool

	properties   *propertyRepository
	applications *applicationRepository
	leases       *leaseRepository
	payments     *paymentRepository
}

func (t *txHandle) Properties() repository.PropertyRepository       { return t.properties }
func (t *txHandle) Applications() repository.ApplicationRepository { return t.applications }
func (t *txHandle) Leases() repository.LeaseRepository             { return t.leases }
func (t *txHandle) Payments() repository.PaymentRepository         { return t.payments }

func (t *txHandle) read(fn func(d *dataset) error) error {
	if t.done {
		return errTxDone
	}
	return fn(t.data)
}

// write stages fn against a scratch copy so a failing statement inside the
// transaction does not leak half-applied changes into later statements.
func (t *txHandle) write(_ context.Context, fn func(d *dataset) error) error {
	if t.done {
		return errTxDone
	}
	if err := t.ctx.Err(); err != nil {
		return domain.NewInfrastructureError("transaction context", err)
	}
	scratch := t.data.clone()
	if err := fn(scratch); err != nil {
		return err
	}
	t.data = scratch
	return nil
}

func (t *txHandle) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer t.store.release()
	if err := t.ctx.Err(); err != nil {
		logger.TxCommit("memory", err)
		return err
	}
	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()
	logger.TxCommit("memory", nil)
	return nil
}

func (t *txHandle) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.release()
	logger.TxRollback("memory")
	return nil
}

var errTxDone = domain.NewInfrastructureError("transaction already closed", nil)
