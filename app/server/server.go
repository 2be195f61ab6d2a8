package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"docqa/app/api"
	"docqa/app/middleware"
	"docqa/config"
)

// Uploads bigger than this are rejected by fiber before reaching the handler.
const maxUploadSize = 100 << 20

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
}

// NewServer registers all routes on a fresh fiber app backed by svc.
func NewServer(cfg config.ServerConfig, svc api.Pipeline, logger *slog.Logger) (*Server, error) {
	fileHandler, err := api.NewFileHandler(svc, cfg.UploadDir, logger)
	if err != nil {
		return nil, err
	}

	var (
		app = fiber.New(fiber.Config{
			ErrorHandler:          api.ErrorHandler,
			BodyLimit:             maxUploadSize,
			ReadTimeout:           5 * time.Minute,
			DisableStartupMessage: true,
		})
		checkHandler   = api.NewCheckHandler()
		requestHandler = api.NewRequestHandler(svc, cfg.TopK, logger)
		check          = app.Group("/check")
	)

	app.Use(middleware.RequestLogger(logger))

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Post("/upload_pdf", fileHandler.HandleUploadPDF)
	app.Post("/query", requestHandler.HandleQuery)
	app.Get("/stats", requestHandler.HandleStats)

	return &Server{
		listenAddr: cfg.Addr,
		logger:     logger,
		app:        app,
	}, nil
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("server started", "addr", s.listenAddr)
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Stop() error {
	err := s.app.ShutdownWithTimeout(10 * time.Second)
	s.logger.Info("server stopped")
	return err
}
