package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pawloan/accounts/internal/config"
	"github.com/pawloan/accounts/internal/db"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	UserService     *service.UserService
	PasswordService *service.PasswordService
	PhotoService    *service.PhotoService
	EmailService    *service.EmailService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	fileRepository := repository.NewFileRepository(database)
	activityRepository := repository.NewActivityRepository(database)

	// Storage: nil keeps photo bytes inline in the database
	var photoStorage storage.Storage
	if cfg.StorageBackend == "s3" {
		s3Storage, err := storage.NewS3(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		photoStorage = s3Storage
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	activityLogger := service.NewActivityLogger(activityRepository)
	userService := service.NewUserService(userRepository, emailService, activityLogger)
	authService := service.NewAuthService(
		userRepository,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)
	passwordService := service.NewPasswordService(userRepository, emailService, activityLogger, cfg.ResetTokenExpiry)
	photoService := service.NewPhotoService(fileRepository, userService, photoStorage, cfg.UploadMaxBytes)

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		UserService:     userService,
		PasswordService: passwordService,
		PhotoService:    photoService,
		EmailService:    emailService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
