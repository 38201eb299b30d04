package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	httpapi "equiprent-backend/internal/api/http"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/render"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/service"
	"equiprent-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Equiprent Contract Engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Storage
	var blobStore storage.Storage
	switch cfg.Storage.Type {
	case "", "local":
		logger.Info("Using local storage", "root_dir", cfg.Storage.RootDir)
		localStore, err := storage.NewLocalStorage(cfg.Storage.RootDir, cfg.Storage.BaseURL)
		if err != nil {
			logger.Error("Failed to initialize local storage", "error", err)
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		blobStore = localStore
	default:
		logger.Error("Unsupported storage type", "type", cfg.Storage.Type)
		log.Fatalf("Storage type '%s' not yet implemented", cfg.Storage.Type)
	}

	// Initialize Services
	templateSvc := service.NewTemplateService(store.TemplateRepository, cfg.Template.Locale)
	signatureSvc := service.NewSignatureService(cfg.Signing.Secret)
	archiveSvc := service.NewArchiveService(store.ArchiveRepository, blobStore, cfg.Storage.Bucket)
	contractSvc := service.NewContractService(
		store.ContractRepository,
		store.TemplateRepository,
		store.SequenceRepository,
		templateSvc,
		signatureSvc,
		archiveSvc,
		render.NewTextRenderer(),
		blobStore,
		cfg.Storage.Bucket,
	)
	multiSvc := service.NewMultiEquipmentService(store.MultiEquipmentContractRepository, store.SequenceRepository)

	// Set up HTTP server
	router := mux.NewRouter()
	httpapi.RegisterContractRoutes(router, contractSvc, templateSvc)
	httpapi.RegisterMultiEquipmentRoutes(router, multiSvc)
	httpapi.RegisterOpsRoutes(router, archiveSvc)
	httpapi.RegisterStorageRoutes(router, blobStore)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
