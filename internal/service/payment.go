package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

const paymentMethodPayPal = "paypal"

// LedgerOptions configures schedule generation and checkout.
type LedgerOptions struct {
	DueDay      int
	Currency    string
	FrontendURL string
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	leaseRepo   repository.LeaseRepository
	uow         repository.UnitOfWork
	gateway     PaymentGateway
	events      EventPublisher
	opts        LedgerOptions
	now         clock
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	leaseRepo repository.LeaseRepository,
	uow repository.UnitOfWork,
	gateway PaymentGateway,
	events EventPublisher,
	opts LedgerOptions,
) PaymentService {
	if events == nil {
		events = noopPublisher{}
	}
	if opts.DueDay == 0 {
		opts.DueDay = domain.DefaultDueDay
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &paymentService{
		paymentRepo: paymentRepo,
		leaseRepo:   leaseRepo,
		uow:         uow,
		gateway:     gateway,
		events:      events,
		opts:        opts,
		now:         utcNow,
	}
}

func (s *paymentService) GenerateSchedule(leaseID uuid.UUID, monthlyRent decimal.Decimal, start, end time.Time) []domain.Payment {
	return domain.GenerateSchedule(leaseID, monthlyRent, start, end, s.opts.DueDay)
}

// RecordCapture applies a gateway capture confirmation to one payment. A
// retried confirmation for an already paid payment returns it unchanged.
func (s *paymentService) RecordCapture(ctx context.Context, paymentID uuid.UUID, externalOrderID string, confirmation domain.CaptureConfirmation) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.RecordCapture", "paymentID", paymentID, "orderID", externalOrderID)

	if confirmation.CapturedAmount.IsNegative() {
		return nil, domain.NewValidationError("captured amount cannot be negative")
	}

	var payment *domain.Payment
	var lease *domain.Lease
	changed := false
	err := repository.RunInTx(ctx, s.uow, func(tx repository.Tx) error {
		p, err := tx.Payments().GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if externalOrderID == "" || p.ExternalOrderID == "" || p.ExternalOrderID != externalOrderID {
			return domain.NewInvalidArgumentError("invalid order id")
		}
		if p.Status == domain.PaymentStatusPaid {
			payment = p
			return nil
		}

		p.AmountPaid = confirmation.CapturedAmount
		p.TransactionID = confirmation.CaptureID
		p.PayerEmail = confirmation.PayerEmail
		p.Recompute(s.now())
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}
		lease, err = tx.Leases().GetByID(ctx, p.LeaseID)
		if err != nil {
			return err
		}
		payment = p
		changed = true
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RecordCapture", err)
		return nil, err
	}

	if changed {
		s.events.Publish(ctx, domain.NewEvent(domain.EventPaymentCaptured, s.now(),
			[]uuid.UUID{lease.TenantID, lease.LandlordID},
			map[string]string{
				"payment_id":  payment.ID.String(),
				"lease_id":    lease.ID.String(),
				"amount_paid": payment.AmountPaid.StringFixed(2),
				"status":      string(payment.Status),
			}))
	}
	logger.ExitMethod("paymentService.RecordCapture", "paymentID", payment.ID, "status", payment.Status, "changed", changed)
	return payment, nil
}

// SweepOverdue reclassifies PENDING payments due before now as OVERDUE and
// reports how many changed. A second run at the same instant changes nothing.
func (s *paymentService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	logger.EnterMethod("paymentService.SweepOverdue", "now", now)

	changed, err := s.paymentRepo.MarkOverdue(ctx, now)
	if err != nil {
		logger.ExitMethodWithError("paymentService.SweepOverdue", err)
		return 0, err
	}
	if len(changed) > 0 {
		s.publishOverdue(ctx, changed, now)
	}

	logger.ExitMethod("paymentService.SweepOverdue", "updated", len(changed))
	return len(changed), nil
}

// publishOverdue resolves lease parties concurrently; a lookup failure only
// drops that lease's events since the status change is already committed.
func (s *paymentService) publishOverdue(ctx context.Context, payments []domain.Payment, now time.Time) {
	var leaseIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, p := range payments {
		if !seen[p.LeaseID] {
			seen[p.LeaseID] = true
			leaseIDs = append(leaseIDs, p.LeaseID)
		}
	}

	var mu sync.Mutex
	leases := make(map[uuid.UUID]*domain.Lease, len(leaseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, leaseID := range leaseIDs {
		leaseID := leaseID
		g.Go(func() error {
			lease, err := s.leaseRepo.GetByID(gctx, leaseID)
			if err != nil {
				logger.Warn("Overdue notification skipped", "leaseID", leaseID, "error", err)
				return nil
			}
			mu.Lock()
			leases[leaseID] = lease
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range payments {
		lease := leases[p.LeaseID]
		if lease == nil {
			continue
		}
		s.events.Publish(ctx, domain.NewEvent(domain.EventPaymentOverdue, now,
			[]uuid.UUID{lease.TenantID, lease.LandlordID},
			map[string]string{
				"payment_id": p.ID.String(),
				"lease_id":   lease.ID.String(),
				"amount_due": p.AmountDue.StringFixed(2),
				"due_date":   p.DueDate.Format("2006-01-02"),
			}))
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, principal domain.Principal, paymentID uuid.UUID) (*domain.PaymentOrder, error) {
	logger.EnterMethod("paymentService.CreateOrder", "userID", principal.UserID, "paymentID", paymentID)

	payment, err := s.payableBy(ctx, principal, paymentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreateOrder", err)
		return nil, err
	}
	if payment.Status == domain.PaymentStatusPaid {
		err := domain.NewInvalidStateError("payment has already been completed")
		logger.ExitMethodWithError("paymentService.CreateOrder", err)
		return nil, err
	}

	base := strings.TrimRight(s.opts.FrontendURL, "/")
	logger.ExternalServiceCall("paypal", "CreateOrder", "paymentID", payment.ID, "amount", payment.AmountDue)
	order, err := s.gateway.CreateOrder(ctx, domain.OrderRequest{
		Amount:      payment.AmountDue,
		Currency:    s.opts.Currency,
		Description: fmt.Sprintf("Rent payment due %s", payment.DueDate.Format("2006-01-02")),
		ReferenceID: payment.ID.String(),
		ReturnURL:   fmt.Sprintf("%s/payments/%s/success", base, payment.ID),
		CancelURL:   fmt.Sprintf("%s/payments/%s/cancel", base, payment.ID),
	})
	logger.ExternalServiceResult("paypal", "CreateOrder", err)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreateOrder", err)
		return nil, err
	}

	err = repository.RunInTx(ctx, s.uow, func(tx repository.Tx) error {
		p, err := tx.Payments().GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentStatusPaid {
			return domain.NewInvalidStateError("payment has already been completed")
		}
		p.ExternalOrderID = order.OrderID
		p.PaymentMethod = paymentMethodPayPal
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreateOrder", err)
		return nil, err
	}

	logger.ExitMethod("paymentService.CreateOrder", "paymentID", payment.ID, "orderID", order.OrderID)
	return &domain.PaymentOrder{OrderID: order.OrderID, ApprovalURL: order.ApprovalURL, Payment: payment}, nil
}

func (s *paymentService) CaptureOrder(ctx context.Context, principal domain.Principal, paymentID uuid.UUID, orderID string) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.CaptureOrder", "userID", principal.UserID, "paymentID", paymentID, "orderID", orderID)

	payment, err := s.payableBy(ctx, principal, paymentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CaptureOrder", err)
		return nil, err
	}
	if orderID == "" || payment.ExternalOrderID != orderID {
		err := domain.NewInvalidArgumentError("invalid order id")
		logger.ExitMethodWithError("paymentService.CaptureOrder", err)
		return nil, err
	}
	if payment.Status == domain.PaymentStatusPaid {
		logger.ExitMethod("paymentService.CaptureOrder", "paymentID", payment.ID, "reason", "already captured")
		return payment, nil
	}

	logger.ExternalServiceCall("paypal", "CaptureOrder", "orderID", orderID)
	confirmation, err := s.gateway.CaptureOrder(ctx, orderID)
	logger.ExternalServiceResult("paypal", "CaptureOrder", err)
	if errors.Is(err, domain.ErrOrderAlreadyCaptured) {
		current, rerr := s.paymentRepo.GetByID(ctx, paymentID)
		if rerr == nil && current.Status == domain.PaymentStatusPaid {
			logger.ExitMethod("paymentService.CaptureOrder", "paymentID", current.ID, "reason", "captured by earlier request")
			return current, nil
		}
		err = domain.NewInvalidStateError("order was already captured")
	}
	if err != nil {
		logger.ExitMethodWithError("paymentService.CaptureOrder", err)
		return nil, err
	}

	return s.RecordCapture(ctx, paymentID, orderID, *confirmation)
}

// payableBy loads a payment the principal may pay: its lease's tenant or an admin.
func (s *paymentService) payableBy(ctx context.Context, principal domain.Principal, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, lease, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && lease.TenantID != principal.UserID {
		return nil, domain.NewForbiddenError("only the lease tenant can pay this payment")
	}
	return payment, nil
}

func (s *paymentService) load(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, *domain.Lease, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	lease, err := s.leaseRepo.GetByID(ctx, payment.LeaseID)
	if err != nil {
		return nil, nil, err
	}
	return payment, lease, nil
}

func (s *paymentService) GetPayment(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Payment, error) {
	payment, lease, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && !lease.IsParty(principal.UserID) {
		return nil, domain.NewForbiddenError("you are not a party to this payment's lease")
	}
	return payment, nil
}

func (s *paymentService) ListForLease(ctx context.Context, principal domain.Principal, leaseID uuid.UUID, status string, page domain.Page) ([]domain.Payment, domain.Pagination, error) {
	filter, err := parsePaymentStatus(status)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	lease, err := s.leaseRepo.GetByID(ctx, leaseID)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	if !principal.IsAdmin() && !lease.IsParty(principal.UserID) {
		return nil, domain.Pagination{}, domain.NewForbiddenError("you are not a party to this lease")
	}
	payments, total, err := s.paymentRepo.ListByLeases(ctx, []uuid.UUID{leaseID}, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return payments, domain.NewPagination(page, total), nil
}

func (s *paymentService) History(ctx context.Context, principal domain.Principal, status string, page domain.Page) ([]domain.Payment, domain.Pagination, error) {
	filter, err := parsePaymentStatus(status)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	leaseIDs, err := s.leaseRepo.ListIDsByParty(ctx, principal.UserID, principal.Role)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	payments, total, err := s.paymentRepo.ListByLeases(ctx, leaseIDs, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return payments, domain.NewPagination(page, total), nil
}

// parsePaymentStatus accepts "" or "all" as no filter.
func parsePaymentStatus(s string) (domain.PaymentStatus, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	status := domain.PaymentStatus(strings.ToUpper(s))
	if !status.Valid() {
		return "", domain.NewValidationError("invalid payment status %q", s)
	}
	return status, nil
}
