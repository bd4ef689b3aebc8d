package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"televault/internal/config"
	"televault/internal/domain/repositories"
	"televault/internal/handler"
	"televault/internal/middleware"
	"televault/internal/realtime"
	"televault/internal/repository/memory"
	"televault/internal/repository/postgres"
	"televault/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
	)

	// Wire the store backend
	var (
		fileRepo   repositories.FileRepository
		folderRepo repositories.FolderRepository
		txManager  repositories.TransactionManager
	)

	ctx := context.Background()
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected", "table_prefix", cfg.TablePrefix)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		fileRepo = postgres.NewFileRepository(repoConfig)
		folderRepo = postgres.NewFolderRepository(repoConfig)
		txManager = postgres.NewTransactionManager(pool)

	case "memory":
		store := memory.NewStore()
		fileRepo = store.Files()
		folderRepo = store.Folders()
		txManager = store.TxManager()
		logger.Warn("using in-memory store, data does not survive restarts")
	}

	// The hub receives every committed mutation and fans it out per account
	hub := realtime.NewHub(logger)

	fileService := service.NewFileService(fileRepo, folderRepo, txManager, hub, logger)
	folderService := service.NewFolderService(folderRepo, fileRepo, txManager, hub, logger)

	fileHandler := handler.NewFileHandler(fileService, logger)
	folderHandler := handler.NewFolderHandler(folderService, logger)
	wsHandler := handler.NewWSHandler(hub, logger, nil)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Create)
	mux.HandleFunc("GET /api/files", fileHandler.List)
	mux.HandleFunc("GET /api/files/bookmarked", fileHandler.ListBookmarked) // Must come before {id} route
	mux.HandleFunc("GET /api/files/trash", fileHandler.ListTrash)
	mux.HandleFunc("GET /api/files/stats", fileHandler.Stats)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.Get)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.Delete)
	mux.HandleFunc("DELETE /api/files/{id}/permanent", fileHandler.DeletePermanently)
	mux.HandleFunc("POST /api/files/{id}/restore", fileHandler.Restore)
	mux.HandleFunc("POST /api/files/{id}/rename", fileHandler.Rename)
	mux.HandleFunc("POST /api/files/{id}/move", fileHandler.Move)
	mux.HandleFunc("POST /api/files/{id}/copy", fileHandler.Copy)
	mux.HandleFunc("POST /api/files/{id}/bookmark", fileHandler.ToggleBookmark)

	// Batch routes
	mux.HandleFunc("POST /api/files/batch/delete", fileHandler.BatchDelete)
	mux.HandleFunc("POST /api/files/batch/move", fileHandler.BatchMove)
	mux.HandleFunc("POST /api/files/batch/bookmark", fileHandler.BatchBookmark)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.Create)
	mux.HandleFunc("GET /api/folders", folderHandler.List)
	mux.HandleFunc("DELETE /api/folders", folderHandler.Delete)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.Rename)

	// Real-time subscription
	mux.HandleFunc("GET /ws", wsHandler.Subscribe)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	root = middleware.Metrics()(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout disabled to allow long-lived WebSocket sessions
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Shut down cleanly on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("shutting down", "signal", sig.String())
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
