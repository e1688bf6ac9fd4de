package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rxtech-lab/swapit-router/internal/api"
	"github.com/rxtech-lab/swapit-router/internal/config"
	"github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

var (
	apiServer *api.APIServer
	initOnce  sync.Once
	initErr   error
)

// Handler is the main Vercel function handler
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		initErr = initializeAPIServer()
	})
	if initErr != nil {
		log.Printf("Failed to initialize API server: %v", initErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	adaptor.FiberApp(apiServer.GetFiberApp())(w, r)
}

// initializeAPIServer builds the HTTP API. Serverless instances do not run the market pollers.
func initializeAPIServer() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var dbService services.DBService
	if cfg.Server.PostgresURL != "" {
		dbService, err = services.NewPostgresDBService(cfg.Server.PostgresURL)
	} else {
		var dbPath string
		if dbPath, err = getDatabasePath(); err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
		dbService, err = services.NewSqliteDBService(dbPath)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx := context.Background()
	svc, err := server.InitializeServices(ctx, dbService.GetDB(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	eventStreamHook, pairTrackingHook := server.InitializeHooks(svc)
	server.RegisterHooks(svc.Hooks, eventStreamHook, pairTrackingHook)
	if err := server.SeedPools(ctx, svc); err != nil {
		return fmt.Errorf("failed to seed pools: %w", err)
	}

	apiServer = api.NewAPIServer(svc)
	if cfg.AuthEnabled() {
		if err := apiServer.EnableAuthentication(); err != nil {
			return err
		}
	}

	apiServer.GetFiberApp().Get("/", func(c *fiber.Ctx) error {
		return c.JSON(map[string]interface{}{
			"message": "SwapIt Router API",
			"status":  "running",
			"version": "1.0.0",
		})
	})

	return nil
}

// getDatabasePath returns the SQLite path, /tmp on Vercel
func getDatabasePath() (string, error) {
	if os.Getenv("VERCEL") == "1" {
		return "/tmp/swapit-router.db", nil
	}

	homePath, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homePath, "swapit-router.db"), nil
}
