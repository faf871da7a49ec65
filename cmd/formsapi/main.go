package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/bibforms/forms-api/internal/config"
	"github.com/bibforms/forms-api/internal/handlers"
	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/middleware"
	"github.com/bibforms/forms-api/internal/notification"
	"github.com/bibforms/forms-api/internal/repository"
	"github.com/bibforms/forms-api/internal/server"
	"github.com/bibforms/forms-api/internal/service"
	"github.com/bibforms/forms-api/internal/storage"
	"github.com/bibforms/forms-api/internal/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "override listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("forms-api"))
	logging.SetDefault(logger)

	slog.Info("Starting forms API",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.Bool("webhook_enabled", cfg.Webhook.URL != ""),
	)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url is required (FORMS_DATABASE_URL)")
	}

	slog.Info("Running database migrations")
	m, err := migrate.New("file://migrations", cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to initialize migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	repo, err := repository.NewPostgresRepository(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer repo.Close()

	blobStore, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("init file storage: %v", err)
	}

	tokenGen := tokens.NewGenerator(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	authService := service.NewAuthService(repo, tokenGen, logger)
	formService := service.NewFormService(repo, logger)

	dispatcher := notification.NewDispatcher(notification.Settings{
		WebhookURL:      cfg.Webhook.URL,
		MaxAttempts:     cfg.Webhook.MaxAttempts,
		RetryBackoff:    cfg.Webhook.RetryBackoff,
		DeliveryTimeout: cfg.Webhook.DeliveryTimeout,
	}, repo, logger)

	responseService := service.NewResponseService(repo, dispatcher, logger)

	authMW := middleware.NewAuthMiddleware(authService)

	router := server.NewRouter(server.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Forms:     handlers.NewFormsHandler(formService),
		Responses: handlers.NewResponsesHandler(responseService),
		Notify:    handlers.NewNotifyHandler(dispatcher),
		Admin:     handlers.NewAdminHandler(responseService, formService),
		Files:     handlers.NewFilesHandler(blobStore),
		Health:    handlers.NewHealthHandler(repo),
	}, authMW, middleware.CORSConfig{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expired sessions are swept periodically.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-shutdownCtx.Done():
				return
			case <-ticker.C:
				if n, err := authService.CleanExpiredSessions(context.Background()); err != nil {
					slog.Warn("session cleanup failed", slog.String("error", err.Error()))
				} else if n > 0 {
					slog.Info("expired sessions removed", slog.Int64("count", n))
				}
			}
		}
	}()

	go func() {
		log.Printf("forms API listening on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	log.Println("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
