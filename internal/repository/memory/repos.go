package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
)

func paginate[T any](items []T, page domain.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type userRepository struct{ a access }

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.a.read(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return domain.NewNotFoundError("user not found")
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) Upsert(ctx context.Context, u *domain.User) error {
	return r.a.write(ctx, func(d *dataset) error {
		next := *u
		if existing, ok := d.users[u.ID]; ok && existing.Name != "" {
			next.Name = existing.Name
		}
		d.users[u.ID] = next
		return nil
	})
}

type propertyRepository struct{ a access }

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.properties[p.ID]; ok {
			return domain.NewConflictError("property %s already exists", p.ID)
		}
		d.properties[p.ID] = *p
		return nil
	})
}

func (r *propertyRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Property, error) {
	var out *domain.Property
	err := r.a.read(func(d *dataset) error {
		p, ok := d.properties[id]
		if !ok {
			return domain.NewNotFoundError("property not found")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *propertyRepository) ListIDsByLandlord(_ context.Context, landlordID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.a.read(func(d *dataset) error {
		for id, p := range d.properties {
			if p.LandlordID == landlordID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (r *propertyRepository) List(_ context.Context, filter domain.PropertyFilter, page domain.Page) ([]domain.Property, int, error) {
	search := strings.ToLower(filter.Search)
	var matched []domain.Property
	err := r.a.read(func(d *dataset) error {
		for _, p := range d.properties {
			switch {
			case filter.Available != nil && p.IsAvailable != *filter.Available:
			case filter.LandlordID != nil && p.LandlordID != *filter.LandlordID:
			case search != "" && !strings.Contains(strings.ToLower(p.Name), search):
			case filter.MinRent != nil && p.MonthlyRent.LessThan(*filter.MinRent):
			case filter.MaxRent != nil && p.MonthlyRent.GreaterThan(*filter.MaxRent):
			default:
				matched = append(matched, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(x, y domain.Property) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(x.ID, y.ID)
	})
	return paginate(matched, page), len(matched), nil
}

func (r *propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	return r.a.write(ctx, func(d *dataset) error {
		stored, ok := d.properties[p.ID]
		if !ok {
			return domain.NewNotFoundError("property not found")
		}
		stored.Name = p.Name
		stored.MonthlyRent = p.MonthlyRent
		stored.Deposit = p.Deposit
		stored.UpdatedAt = p.UpdatedAt
		d.properties[p.ID] = stored
		return nil
	})
}

func (r *propertyRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return r.a.write(ctx, func(d *dataset) error {
		p, ok := d.properties[id]
		if !ok {
			return domain.NewNotFoundError("property not found")
		}
		p.IsAvailable = available
		p.UpdatedAt = time.Now().UTC()
		d.properties[id] = p
		return nil
	})
}

type applicationRepository struct{ a access }

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	return r.a.write(ctx, func(d *dataset) error {
		for _, existing := range d.applications {
			if existing.PropertyID == app.PropertyID && existing.TenantID == app.TenantID {
				return domain.NewConflictError("tenant has already applied to this property")
			}
		}
		d.applications[app.ID] = *app
		return nil
	})
}

func (r *applicationRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Application, error) {
	var out *domain.Application
	err := r.a.read(func(d *dataset) error {
		a, ok := d.applications[id]
		if !ok {
			return domain.NewNotFoundError("application not found")
		}
		out = &a
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: transactions are serialized.
func (r *applicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *applicationRepository) GetByPropertyAndTenant(_ context.Context, propertyID, tenantID uuid.UUID) (*domain.Application, error) {
	var out *domain.Application
	err := r.a.read(func(d *dataset) error {
		for _, a := range d.applications {
			if a.PropertyID == propertyID && a.TenantID == tenantID {
				out = &a
				return nil
			}
		}
		return domain.NewNotFoundError("application not found")
	})
	return out, err
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	app.UpdatedAt = time.Now().UTC()
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.applications[app.ID]; !ok {
			return domain.NewNotFoundError("application not found")
		}
		d.applications[app.ID] = *app
		return nil
	})
}

func (r *applicationRepository) RejectSiblings(ctx context.Context, propertyID, keepID uuid.UUID) ([]domain.Application, error) {
	rejected := []domain.Application{}
	err := r.a.write(ctx, func(d *dataset) error {
		now := time.Now().UTC()
		for id, a := range d.applications {
			if a.PropertyID != propertyID || id == keepID || a.Status == domain.ApplicationStatusRejected {
				continue
			}
			a.Status = domain.ApplicationStatusRejected
			a.UpdatedAt = now
			d.applications[id] = a
			rejected = append(rejected, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (r *applicationRepository) ListByTenant(_ context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Application, int, error) {
	return r.filter(page, func(a domain.Application) bool { return a.TenantID == tenantID })
}

func (r *applicationRepository) ListByProperties(_ context.Context, propertyIDs []uuid.UUID, status domain.ApplicationStatus, page domain.Page) ([]domain.Application, int, error) {
	return r.filter(page, func(a domain.Application) bool {
		return slices.Contains(propertyIDs, a.PropertyID) && (status == "" || a.Status == status)
	})
}

func (r *applicationRepository) filter(page domain.Page, keep func(domain.Application) bool) ([]domain.Application, int, error) {
	var matched []domain.Application
	err := r.a.read(func(d *dataset) error {
		for _, a := range d.applications {
			if keep(a) {
				matched = append(matched, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(x, y domain.Application) int {
		if c := y.SubmittedAt.Compare(x.SubmittedAt); c != 0 {
			return c
		}
		return compareIDs(x.ID, y.ID)
	})
	return paginate(matched, page), len(matched), nil
}

type leaseRepository struct{ a access }

func (r *leaseRepository) Create(ctx context.Context, l *domain.Lease) error {
	return r.a.write(ctx, func(d *dataset) error {
		for _, existing := range d.leases {
			if existing.ApplicationID == l.ApplicationID {
				return domain.NewConflictError("application already has a lease")
			}
			if l.Status == domain.LeaseStatusActive && existing.PropertyID == l.PropertyID && existing.Status == domain.LeaseStatusActive {
				return domain.NewConflictError("property already has an active lease")
			}
		}
		d.leases[l.ID] = *l
		return nil
	})
}

func (r *leaseRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Lease, error) {
	var out *domain.Lease
	err := r.a.read(func(d *dataset) error {
		l, ok := d.leases[id]
		if !ok {
			return domain.NewNotFoundError("lease not found")
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *leaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	return r.GetByID(ctx, id)
}

func (r *leaseRepository) Update(ctx context.Context, l *domain.Lease) error {
	l.UpdatedAt = time.Now().UTC()
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.leases[l.ID]; !ok {
			return domain.NewNotFoundError("lease not found")
		}
		d.leases[l.ID] = *l
		return nil
	})
}

func (r *leaseRepository) ListByTenant(_ context.Context, tenantID uuid.UUID, page domain.Page) ([]domain.Lease, int, error) {
	return r.filter(page, func(l domain.Lease) bool { return l.TenantID == tenantID })
}

func (r *leaseRepository) ListByLandlord(_ context.Context, landlordID uuid.UUID, page domain.Page) ([]domain.Lease, int, error) {
	return r.filter(page, func(l domain.Lease) bool { return l.LandlordID == landlordID })
}

func (r *leaseRepository) ListIDsByParty(_ context.Context, userID uuid.UUID, role domain.Role) ([]uuid.UUID, error) {
	var keep func(domain.Lease) bool
	switch role {
	case domain.RoleTenant:
		keep = func(l domain.Lease) bool { return l.TenantID == userID }
	case domain.RoleLandlord:
		keep = func(l domain.Lease) bool { return l.LandlordID == userID }
	case domain.RoleAdmin:
		keep = func(domain.Lease) bool { return true }
	default:
		return nil, domain.NewForbiddenError("role %q cannot own leases", role)
	}
	ids := []uuid.UUID{}
	err := r.a.read(func(d *dataset) error {
		for id, l := range d.leases {
			if keep(l) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (r *leaseRepository) filter(page domain.Page, keep func(domain.Lease) bool) ([]domain.Lease, int, error) {
	var matched []domain.Lease
	err := r.a.read(func(d *dataset) error {
		for _, l := range d.leases {
			if keep(l) {
				matched = append(matched, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(x, y domain.Lease) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(x.ID, y.ID)
	})
	return paginate(matched, page), len(matched), nil
}

type paymentRepository struct{ a access }

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.a.write(ctx, func(d *dataset) error {
		for _, p := range payments {
			if _, ok := d.payments[p.ID]; ok {
				return domain.NewConflictError("payment %s already exists", p.ID)
			}
			d.payments[p.ID] = p
		}
		return nil
	})
}

func (r *paymentRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.a.read(func(d *dataset) error {
		p, ok := d.payments[id]
		if !ok {
			return domain.NewNotFoundError("payment not found")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.payments[p.ID]; !ok {
			return domain.NewNotFoundError("payment not found")
		}
		d.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepository) ListByLeases(_ context.Context, leaseIDs []uuid.UUID, status domain.PaymentStatus, page domain.Page) ([]domain.Payment, int, error) {
	var matched []domain.Payment
	err := r.a.read(func(d *dataset) error {
		for _, p := range d.payments {
			if slices.Contains(leaseIDs, p.LeaseID) && (status == "" || p.Status == status) {
				matched = append(matched, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(x, y domain.Payment) int {
		if c := x.DueDate.Compare(y.DueDate); c != 0 {
			return c
		}
		return compareIDs(x.ID, y.ID)
	})
	return paginate(matched, page), len(matched), nil
}

func (r *paymentRepository) MarkOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	changed := []domain.Payment{}
	err := r.a.write(ctx, func(d *dataset) error {
		for id, p := range d.payments {
			if p.Status != domain.PaymentStatusPending || !p.DueDate.Before(now) {
				continue
			}
			p.Status = domain.PaymentStatusOverdue
			p.UpdatedAt = now
			d.payments[id] = p
			changed = append(changed, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

type notificationRepository struct{ a access }

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.a.write(ctx, func(d *dataset) error {
		d.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepository) List(_ context.Context, userID uuid.UUID, page domain.Page) ([]domain.Notification, int, error) {
	var matched []domain.Notification
	err := r.a.read(func(d *dataset) error {
		for _, n := range d.notifications {
			if n.UserID == userID {
				matched = append(matched, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(x, y domain.Notification) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(x.ID, y.ID)
	})
	return paginate(matched, page), len(matched), nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return r.a.write(ctx, func(d *dataset) error {
		n, ok := d.notifications[id]
		if !ok || n.UserID != userID {
			return domain.NewNotFoundError("notification not found")
		}
		n.IsRead = true
		d.notifications[id] = n
		return nil
	})
}

func compareIDs(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
