package api

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rxtech-lab/swapit-router/internal/api/middleware"
	"github.com/rxtech-lab/swapit-router/internal/mcp"
	app "github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

type APIServer struct {
	app       *fiber.App
	svc       *app.Services
	mcpServer *mcp.MCPServer
	port      int

	// authMiddleware guards admin routes and /mcp once authentication is enabled
	authMiddleware fiber.Handler

	// done ends open event streams on shutdown
	done     chan struct{}
	stopOnce sync.Once
}

func NewAPIServer(svc *app.Services) *APIServer {
	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handleFiberError,
	})

	// Add middleware
	fiberApp.Use(cors.New())
	fiberApp.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:  fiberApp,
		svc:  svc,
		done: make(chan struct{}),
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	api := s.app.Group("/api")

	// Tokens, quotes and swaps
	api.Get("/tokens", s.handleListTokens)
	api.Post("/quote", s.handleQuote)
	api.Post("/swaps", s.handleSwap)
	api.Post("/swaps/native-for-token", s.handleSwapKind("native_for_token"))
	api.Post("/swaps/token-for-native", s.handleSwapKind("token_for_native"))
	api.Post("/swaps/token-for-token", s.handleSwapKind("token_for_token"))

	// Per-user reads and settings
	users := api.Group("/users/:address")
	users.Get("/transactions", s.handleUserTransactions)
	users.Get("/transactions/count", s.handleUserTransactionCount)
	users.Get("/transactions/export", s.handleExportTransactions)
	users.Get("/fees", s.handleUserFees)
	users.Get("/balances", s.handleUserBalances)
	users.Get("/preferences", s.handleGetPreferences)
	users.Put("/preferences", s.handleUpdatePreferences)
	users.Get("/alerts", s.handleListAlerts)
	users.Post("/alerts", s.handleCreateAlert)
	users.Delete("/alerts/:id", s.handleDeleteAlert)

	// Fee configuration; changes are checked against the owner by the router
	api.Get("/fee-config", s.handleGetFeeConfig)
	api.Put("/fee-config/recipient", s.requireAuth, s.handleSetFeeRecipient)
	api.Put("/fee-config/owner", s.requireAuth, s.handleTransferOwnership)

	// Market data
	api.Get("/market/eth-usd", s.handleEthUsd)
	api.Get("/market/gas", s.handleGas)
	api.Get("/market/rate", s.handleRate)

	// Operator endpoints for the custodial ledger and the AMM
	api.Post("/ledger/deposit", s.requireAuth, s.handleDeposit)
	api.Post("/ledger/approve", s.requireAuth, s.handleApprove)
	api.Get("/pools", s.handleListPools)
	api.Post("/pools", s.requireAuth, s.handleAddLiquidity)

	// Server-sent swap and alert events
	api.Get("/events", s.handleEvents)

	s.app.Get("/.well-known/oauth-protected-resource", s.handleOAuthProtectedResource)

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// EnableAuthentication protects admin routes and /mcp with JWT bearer tokens validated against the configured JWKS
func (s *APIServer) EnableAuthentication() error {
	auth := s.svc.Config.Auth
	if auth.JwksURI == "" {
		return errors.New("JWKS URI is not configured")
	}

	s.authMiddleware = middleware.AuthMiddleware(middleware.AuthConfig{
		ResourceID:          auth.ResourceID,
		ResourceMetadataURL: s.resourceMetadataURL(),
		JWTAuthenticator:    utils.NewJwtAuthenticator(auth.JwksURI),
		RequiredScope:       auth.AdminScope,
		SkipWellKnown:       true,
	})
	return nil
}

// requireAuth runs the auth middleware when authentication is enabled
func (s *APIServer) requireAuth(c *fiber.Ctx) error {
	if s.authMiddleware == nil {
		return c.Next()
	}
	return s.authMiddleware(c)
}

// EnableStreamableHttp serves the MCP streamable HTTP transport at /mcp
func (s *APIServer) EnableStreamableHttp() {
	if s.mcpServer == nil {
		log.Println("MCP server is not set, streamable HTTP is disabled")
		return
	}

	handler := adaptor.HTTPHandler(s.mcpServer.StreamableHTTPHandler())
	s.app.All("/mcp", s.requireAuth, handler)
	s.app.All("/mcp/*", s.requireAuth, handler)
}

// Start listens on port, or on a random available port when port is nil
func (s *APIServer) Start(port *int) (int, error) {
	address := ":0"
	if port != nil {
		address = fmt.Sprintf(":%d", *port)
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := s.app.Listener(listener); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	s.stopOnce.Do(func() { close(s.done) })
	if s.mcpServer != nil {
		s.mcpServer.Close()
	}
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// SetMCPServer sets the MCP server instance for accessing MCP methods
func (s *APIServer) SetMCPServer(mcpServer *mcp.MCPServer) {
	s.mcpServer = mcpServer
}

// GetMCPServer returns the MCP server instance
func (s *APIServer) GetMCPServer() *mcp.MCPServer {
	return s.mcpServer
}

func (s *APIServer) GetFiberApp() *fiber.App {
	return s.app
}
