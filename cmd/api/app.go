package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/api/http/handlers"
	"github.com/campusdesk/complaint-service/internal/auth"
	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/events"
	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/persistence"
	"github.com/campusdesk/complaint-service/internal/repository"
	"github.com/campusdesk/complaint-service/internal/scheduler"
	"github.com/campusdesk/complaint-service/internal/service"
	"github.com/campusdesk/complaint-service/internal/worker"
)

// application holds the wired service graph shared by the commands.
type application struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	pg      *persistence.Postgres
	redis   *persistence.Redis
	memory  *repository.MemoryStore
	tokens  *auth.TokenManager
	users   repository.UserRepository

	complaints  *service.ComplaintService
	assignments *service.AssignmentService
	categories  *service.CategoryService
	reports     *service.ReportService
	scheduler   *scheduler.Scheduler
}

type repositories struct {
	complaints repository.ComplaintRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	reports    repository.ReportRepository
}

func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{
		logger:  logger,
		metrics: observability.NewMetrics(),
		tokens:  auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}

	var repos repositories
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		app.pg = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			complaints: repository.NewComplaintRepository(pool),
			categories: repository.NewCategoryRepository(pool),
			users:      repository.NewUserRepository(pool),
			reports:    repository.NewReportRepository(pool),
		}
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory store")
		app.memory = repository.NewMemoryStore()
		repos = repositories{
			complaints: app.memory.Complaints(),
			categories: app.memory.Categories(),
			users:      app.memory.Users(),
			reports:    app.memory.Reports(),
		}
	}
	app.users = repos.users

	var publisher events.Publisher
	if cfg.Redis.Addr != "" {
		app.redis = persistence.NewRedis(cfg.Redis, logger)
		publisher = app.redis
	}

	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification)
	worker.StartNotificationWorker(notifications, publisher)

	app.complaints = service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:     repos.complaints,
		CategoryRepo:      repos.categories,
		Notifier:          notifications,
		Policy:            service.NewDeadlinePolicy(cfg.Escalation),
		AtRiskBufferHours: cfg.Escalation.AtRiskBufferHours,
		Metrics:           app.metrics,
		Logger:            logger.Named("complaints"),
	})
	app.assignments = service.NewAssignmentService(service.AssignmentDependencies{
		ComplaintRepo: repos.complaints,
		CategoryRepo:  repos.categories,
		UserRepo:      repos.users,
		Policy:        service.NewWorkloadPolicy(cfg.Assignment),
		Notifier:      notifications,
		Metrics:       app.metrics,
		Logger:        logger.Named("assignments"),
	})
	app.categories = service.NewCategoryService(repos.categories)
	app.reports = service.NewReportService(repos.reports)

	sched, err := scheduler.New(app.complaints, cfg.Escalation.SweepIntervalMinutes,
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(app.metrics),
		scheduler.WithRestartDelay(cfg.Escalation.RestartDelay()),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.scheduler = sched
	app.assignments.SetWatcher(sched)
	return app, nil
}

// Close releases store and cache connections.
func (a *application) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
}

func (a *application) storeBackend() string {
	if a.pg != nil {
		return "postgres"
	}
	return "memory"
}

func (a *application) pingers() map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{}
	if a.pg != nil {
		deps["postgres"] = a.pg
	}
	if a.redis != nil {
		deps["redis"] = a.redis
	}
	return deps
}

// bootstrapAdmin seeds an administrator into the in-memory store so a fresh
// instance can be driven over HTTP.
func (a *application) bootstrapAdmin(ctx context.Context) error {
	if a.memory == nil {
		return fmt.Errorf("--bootstrap-admin requires the in-memory store")
	}
	admin := &domain.User{
		ID:         uuid.NewString(),
		Name:       "Administrator",
		Email:      "admin@localhost",
		Role:       domain.RoleAdmin,
		Department: "General",
		Active:     true,
	}
	if err := a.users.Create(ctx, admin); err != nil {
		return err
	}
	token, _, err := a.tokens.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		return err
	}
	a.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID), zap.String("token", token))
	return nil
}
