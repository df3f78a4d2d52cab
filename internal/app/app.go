package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/localbucket/bucketd/internal/config"
	"github.com/localbucket/bucketd/internal/db"
	"github.com/localbucket/bucketd/internal/repository"
	"github.com/localbucket/bucketd/internal/service"
	"github.com/localbucket/bucketd/internal/storage"
)

// App is the composition root: it owns the database handle and wires
// repositories, storage, and services with an explicit lifecycle.
type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	FileService *service.FileService
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
	fileRepository := repository.NewFileRepository(database)

	// Storage
	blobStorage, err := storage.NewLocal(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	fileService := service.NewFileService(fileRepository, blobStorage, cfg.MaxFileSize, cfg.MaxFilesPerUpload)

	return &App{
		Cfg:         cfg,
		DB:          database,
		FileService: fileService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
