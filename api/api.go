// Package api exposes the memory service over HTTP.
package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/packratco/packrat/api/mcp"
	"github.com/packratco/packrat/pkg/memory"
)

// Server is the HTTP server for saving and querying memories.
type Server struct {
	config Config
	svc    *memory.Service
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The memory service is injected to
// allow sharing with other transports (e.g. the MCP server).
func NewServer(config Config, svc *memory.Service, mcpServer *mcp.Server, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	s := &Server{
		config: config,
		svc:    svc,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/save", s.handleSave)
	app.Get("/retrieve", s.handleRetrieve)
	app.Put("/rename-location", s.handleRenameLocation)
	app.Delete("/delete", s.handleDelete)

	if mcpServer != nil {
		if h := mcpServer.Handler(); h != nil {
			app.All("/mcp", adaptor.HTTPHandler(h))
		}
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
