package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rxtech-lab/swapit-router/internal/api"
	"github.com/rxtech-lab/swapit-router/internal/config"
	"github.com/rxtech-lab/swapit-router/internal/mcp"
	"github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

// configureAndStartServer wires the services, starts the local HTTP API without authentication
// and attaches the MCP server. port 0 picks a random port.
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
	// NOTE: the local API is not authenticated and does not expose /mcp

	var portPtr *int
	if port != 0 {
		portPtr = &port
	}
	startedPort, err := apiServer.Start(portPtr)
	if err != nil {
		svc.Close()
		return nil, 0, err
	}

	apiServer.SetMCPServer(mcp.NewMCPServer(svc))
	return apiServer, startedPort, nil
}

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var enableLog = flag.Bool("log", false, "Enable logging output")
	flag.Parse()

	// Disable logging by default, stdout belongs to the MCP transport
	if !*enableLog {
		log.SetOutput(io.Discard)
	}

	if *showVersion {
		log.Printf("SwapIt Router MCP Server\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		log.Printf("SwapIt Router MCP Server\n\n")
		log.Printf("Usage: %s [options]\n\n", os.Args[0])
		log.Printf("Options:\n")
		log.Printf("  --version    Show version information\n")
		log.Printf("  --help       Show this help message\n")
		log.Printf("  --log        Enable logging output\n\n")
		log.Printf("Description:\n")
		log.Printf("  Fee-charging swap router over a Uniswap V2 style AMM.\n")
		log.Printf("  Provides MCP tools for quotes, swaps, fee configuration, preferences and price alerts.\n\n")
		log.Printf("Configuration: CONFIG_FILE (YAML) and environment variables, FEE_RECIPIENT is required\n")
		log.Printf("Database: ~/swapit-router.db (SQLite)\n")
		log.Printf("HTTP API: http://localhost:[random-port]/api\n")
		return
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("Failed to load configuration:", err)
	}

	homePath, err := os.UserHomeDir()
	if err != nil {
		log.Fatal("Failed to get home directory:", err)
	}

	dbService, err := services.NewSqliteDBService(filepath.Join(homePath, "swapit-router.db"))
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer dbService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer, port, err := configureAndStartServer(ctx, dbService, cfg, 0)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	log.Printf("API server started on port %d\n", port)

	mcpServer := apiServer.GetMCPServer()
	if mcpServer == nil {
		log.Fatal("MCP server not found")
	}
	mcpServer.GetServices().StartBackground(ctx)

	go func() {
		if err := mcpServer.StartStdioServer(); err != nil {
			log.SetOutput(os.Stderr)
			log.SetFlags(0)
			log.Fatal("Failed to start MCP server:", err)
		}
	}()

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down servers...")
	cancel()

	if err := apiServer.Shutdown(); err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Printf("Error shutting down API server: %v", err)
	}
	mcpServer.GetServices().Close()

	log.Println("Servers shut down successfully")
}
