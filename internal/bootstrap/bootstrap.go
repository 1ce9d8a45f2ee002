// Package bootstrap wires configuration, storage, gateways and services
// into a running application shared by the server and cronjob binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/events"
	"rental-marketplace-backend/internal/gateway"
	"rental-marketplace-backend/internal/jobs"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/repository/memory"
	"rental-marketplace-backend/internal/repository/postgres"
	"rental-marketplace-backend/internal/service"
)

type repositories struct {
	users         repository.UserRepository
	properties    repository.PropertyRepository
	applications  repository.ApplicationRepository
	leases        repository.LeaseRepository
	payments      repository.PaymentRepository
	notifications repository.NotificationRepository
	stats         repository.StatsRepository
	uow           repository.UnitOfWork
}

// Services bundles every service the binaries expose.
type Services struct {
	User         service.UserService
	Property     service.PropertyService
	Application  service.ApplicationService
	Lease        service.LeaseService
	Payment      service.PaymentService
	Notification service.NotificationService
	Stats        service.StatsService
}

type App struct {
	Config   *config.Config
	Services Services
	Bus      *events.Bus
	Hub      *events.Hub
	Jobs     *jobs.JobRunner

	db *sql.DB
}

// New builds the application. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	repos, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	// Initialize Email Service
	emailSvc := service.NewNoopEmailService()
	if cfg.SendGrid.APIKey != "" {
		emailSvc = service.NewSendGridEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
		logger.Info("Email delivery enabled", "provider", "sendgrid", "from", cfg.SendGrid.FromEmail)
	}

	// Initialize Push Service
	pushSvc := service.NewNoopPushService()
	if cfg.Firebase.CredentialsFile != "" {
		pushSvc, err = service.NewFirebasePushService(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize firebase: %w", err)
		}
		logger.Info("Push delivery enabled", "provider", "firebase")
	}

	// Initialize Event Bus
	app.Bus = events.NewBus(cfg.Events.BufferSize)
	app.Hub = events.NewHub()
	app.Bus.Subscribe("notifier", service.NewNotifier(repos.notifications, repos.users, emailSvc, pushSvc))
	app.Bus.Subscribe("websocket", app.Hub)

	// Initialize Payment Gateway
	paypal := gateway.NewPayPalClient(ctx, gateway.PayPalConfig{
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		BaseURL:      cfg.PayPal.BaseURL,
		Timeout:      cfg.PayPalTimeout(),
	})

	// Initialize Services
	ledger := service.NewPaymentService(repos.payments, repos.leases, repos.uow, paypal, app.Bus, service.LedgerOptions{
		DueDay:      cfg.Ledger.DueDay,
		Currency:    cfg.Ledger.Currency,
		FrontendURL: cfg.Ledger.FrontendURL,
	})
	leases := service.NewLeaseService(repos.leases, repos.uow, ledger, app.Bus)
	approvals := service.NewApprovalOrchestrator(repos.uow, leases)

	app.Services = Services{
		User:         service.NewUserService(repos.users),
		Property:     service.NewPropertyService(repos.properties),
		Application:  service.NewApplicationService(repos.applications, repos.properties, repos.uow, approvals, app.Bus),
		Lease:        leases,
		Payment:      ledger,
		Notification: service.NewNotificationService(repos.notifications),
		Stats:        service.NewStatsService(repos.stats),
	}
	app.Jobs = jobs.NewJobRunner(&jobs.Services{Payment: ledger}, cfg)

	return app, nil
}

func (a *App) openStore(ctx context.Context) (*repositories, error) {
	cfg := a.Config
	if cfg.Store.Type == config.StoreMemory {
		logger.Warn("Using in-memory store; data is lost on exit")
		s := memory.NewStore()
		return &repositories{
			users:         s.UserRepository,
			properties:    s.PropertyRepository,
			applications:  s.ApplicationRepository,
			leases:        s.LeaseRepository,
			payments:      s.PaymentRepository,
			notifications: s.NotificationRepository,
			stats:         s.StatsRepository,
			uow:           s,
		}, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	a.db = db
	logger.Info("Database connection established")

	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("Database schema ensured")
	}

	s := postgres.NewStore(db)
	return &repositories{
		users:         s.UserRepository,
		properties:    s.PropertyRepository,
		applications:  s.ApplicationRepository,
		leases:        s.LeaseRepository,
		payments:      s.PaymentRepository,
		notifications: s.NotificationRepository,
		stats:         s.StatsRepository,
		uow:           s,
	}, nil
}

// Start begins event delivery.
func (a *App) Start(ctx context.Context) {
	a.Bus.Start(ctx)
}

// Close drains pending events and releases the database.
func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}
