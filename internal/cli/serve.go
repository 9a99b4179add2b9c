package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/database"
	"github.com/kubotadaichi/HealthManagement/internal/repository"
	"github.com/kubotadaichi/HealthManagement/internal/router"
	"github.com/kubotadaichi/HealthManagement/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db, log); err != nil {
		log.Error("Failed to migrate database", zap.Error(err))
		return err
	}

	repo := repository.New(db)
	notion, err := services.NewNotionService(cfg.Notion, log.Named("notion"))
	if err != nil {
		return err
	}
	if !cfg.Notion.ExportConfigured() {
		log.Warn("Notion export is not configured, /api/tasks/notion/save will fail until NOTION_API_KEY and NOTION_DATABASE_ID are set")
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: router.Handler(router.Deps{
			Log:      log,
			Config:   cfg,
			Repo:     repo,
			Sessions: services.NewSessionService(log.Named("session"), repo),
			Pages:    notion,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	log.Info("Server stopped")
	return nil
}
