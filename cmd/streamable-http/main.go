package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file if present
	"github.com/rxtech-lab/swapit-router/internal/api"
	"github.com/rxtech-lab/swapit-router/internal/config"
	"github.com/rxtech-lab/swapit-router/internal/mcp"
	"github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

// configureAndStartServer wires the services, protects admin routes and /mcp when a JWKS URI is configured
// and starts listening on port
func configureAndStartServer(ctx context.Context, dbService services.DBService, cfg *config.Config, port int) (*api.APIServer, int, error) {
	svc, err := server.InitializeServices(ctx, dbService.GetDB(), cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to initialize services: %w", err)
	}
	eventStreamHook, pairTrackingHook := server.InitializeHooks(svc)
	server.RegisterHooks(svc.Hooks, eventStreamHook, pairTrackingHook)

	if err := server.SeedPools(ctx, svc); err != nil {
		svc.Close()
		return nil, 0, fmt.Errorf("failed to seed pools: %w", err)
	}

	apiServer := api.NewAPIServer(svc)
	if cfg.AuthEnabled() {
		if err := apiServer.EnableAuthentication(); err != nil {
			svc.Close()
			return nil, 0, err
		}
	} else {
		log.Println("WARNING: JWKS_URI is not set, admin routes and /mcp are unauthenticated")
	}

	apiServer.SetMCPServer(mcp.NewMCPServer(svc))
	apiServer.EnableStreamableHttp()

	var portPtr *int
	if port != 0 {
		portPtr = &port
	}
	startedPort, err := apiServer.Start(portPtr)
	if err != nil {
		svc.Close()
		return nil, 0, err
	}
	return apiServer, startedPort, nil
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.Server.PostgresURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	dbService, err := services.NewPostgresDBService(cfg.Server.PostgresURL)
	if err != nil {
		log.Fatal("Failed to initialize database service:", err)
	}
	defer dbService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer, startedPort, err := configureAndStartServer(ctx, dbService, cfg, cfg.Server.Port)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	svc := apiServer.GetMCPServer().GetServices()
	svc.StartBackground(ctx)

	log.Printf("API server started on port %d\n", startedPort)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down server...")
	cancel()

	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	svc.Close()

	log.Println("Server shut down successfully")
}
