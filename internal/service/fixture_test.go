package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Publish(_ context.Context, evt domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayOrder), args.Error(1)
}

func (m *MockPaymentGateway) CaptureOrder(ctx context.Context, orderID string) (*domain.CaptureConfirmation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaptureConfirmation), args.Error(1)
}

type fixture struct {
	store    *memory.Store
	events   *recorder
	gateway  *MockPaymentGateway
	props    PropertyService
	apps     ApplicationService
	leases   LeaseService
	payments PaymentService

	landlord domain.Principal
	admin    domain.Principal
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithUoW(t, nil)
}

// newFixtureWithUoW lets a test wrap the unit of work to inject failures.
func newFixtureWithUoW(t *testing.T, wrap func(repository.UnitOfWork) repository.UnitOfWork) *fixture {
	t.Helper()
	store := memory.NewStore()
	var uow repository.UnitOfWork = store
	if wrap != nil {
		uow = wrap(store)
	}
	rec := &recorder{}
	gw := &MockPaymentGateway{}

	ledger := NewPaymentService(store.PaymentRepository, store.LeaseRepository, uow, gw, rec, LedgerOptions{FrontendURL: "http://app.test/"})
	leases := NewLeaseService(store.LeaseRepository, uow, ledger, rec)
	approvals := NewApprovalOrchestrator(uow, leases)

	return &fixture{
		store:    store,
		events:   rec,
		gateway:  gw,
		props:    NewPropertyService(store.PropertyRepository),
		apps:     NewApplicationService(store.ApplicationRepository, store.PropertyRepository, uow, approvals, rec),
		leases:   leases,
		payments: ledger,
		landlord: domain.Principal{UserID: uuid.New(), Role: domain.RoleLandlord},
		admin:    domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin},
	}
}

func newTenant() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleTenant}
}

func (f *fixture) property(t *testing.T) *domain.Property {
	t.Helper()
	p, err := f.props.CreateProperty(context.Background(), f.landlord, "12 Elm Street", decimal.NewFromInt(1000), decimal.NewFromInt(500))
	require.NoError(t, err)
	return p
}

func (f *fixture) apply(t *testing.T, propertyID uuid.UUID, tenant domain.Principal) *domain.Application {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), tenant, propertyID, "I would like to rent this place")
	require.NoError(t, err)
	return app
}

// approved runs a full approval and returns the resulting lease.
func (f *fixture) approved(t *testing.T) (*domain.Application, *domain.Lease, domain.Principal) {
	t.Helper()
	p := f.property(t)
	tenant := newTenant()
	app := f.apply(t, p.ID, tenant)
	d := leaseDetails()
	decided, err := f.apps.Decide(context.Background(), f.landlord, app.ID, domain.DecisionApprove, &d)
	require.NoError(t, err)
	require.NotNil(t, decided.LeaseID)
	lease, err := f.store.LeaseRepository.GetByID(context.Background(), *decided.LeaseID)
	require.NoError(t, err)
	return decided, lease, tenant
}

func leaseDetails() domain.LeaseDetails {
	return domain.LeaseDetails{
		StartDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		MonthlyRent: decimal.NewFromInt(1000),
		Deposit:     decimal.NewFromInt(500),
	}
}

// failingUoW hands out transactions whose payment batch insert fails, which
// happens after siblings are rejected and the property is flagged.
type failingUoW struct {
	inner repository.UnitOfWork
	err   error
}

func (f *failingUoW) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := f.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, err: f.err}, nil
}

type failingTx struct {
	repository.Tx
	err error
}

func (t *failingTx) Payments() repository.PaymentRepository {
	return failingPayments{PaymentRepository: t.Tx.Payments(), err: t.err}
}

type failingPayments struct {
	repository.PaymentRepository
	err error
}

func (p failingPayments) CreateBatch(context.Context, []domain.Payment) error {
	return p.err
}
