package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalstash/internal/config"
	"github.com/templui/goalstash/internal/db"
	"github.com/templui/goalstash/internal/events"
	"github.com/templui/goalstash/internal/repository"
	"github.com/templui/goalstash/internal/service"
	"github.com/templui/goalstash/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Publisher     events.Publisher
	Storage       storage.Storage
	EmailService  *service.EmailService
	AuthService   *service.AuthService
	GoalService   *service.GoalService
	LedgerService *service.LedgerService
	ReportService *service.ReportService
	ExportService *service.ExportService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Events: broker when configured, structured log otherwise
	var publisher events.Publisher = events.NewLogPublisher()
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		publisher = amqpPublisher
	}

	// Storage (optional, export archives only)
	archiveStorage, err := storage.New(cfg)
	if errors.Is(err, storage.ErrNotConfigured) {
		slog.Info("export archives disabled", "reason", "S3_BUCKET not set")
		archiveStorage = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Assemble(cfg, database, publisher, archiveStorage), nil
}

// Assemble wires repositories and services around an open database.
// archiveStorage may be nil.
func Assemble(cfg *config.Config, database *sqlx.DB, publisher events.Publisher, archiveStorage storage.Storage) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	goalStatRepository := repository.NewGoalStatRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		sessionRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.SessionExpiry,
	)
	goalService := service.NewGoalService(database, goalRepository, goalStatRepository, publisher)
	ledgerService := service.NewLedgerService(database, goalRepository, goalStatRepository, userRepository, emailService, publisher)
	reportService := service.NewReportService(goalRepository, goalStatRepository)
	exportService := service.NewExportService(goalRepository, goalStatRepository, archiveStorage)

	return &App{
		Cfg:           cfg,
		DB:            database,
		Publisher:     publisher,
		Storage:       archiveStorage,
		EmailService:  emailService,
		AuthService:   authService,
		GoalService:   goalService,
		LedgerService: ledgerService,
		ReportService: reportService,
		ExportService: exportService,
	}
}

func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
