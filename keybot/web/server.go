package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource answers the health and stats endpoints.
type StatusSource interface {
	Ping(ctx context.Context) error
	Remaining(ctx context.Context) (int, error)
	Active(ctx context.Context) (int64, bool, error)
}

type Server struct {
	app     *fiber.App
	addr    string
	version string
}

// New builds the operator endpoints: /health, /stats and /metrics.
func New(addr, version string, status StatusSource, gatherer prometheus.Gatherer) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "KeyBot",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(loggingMiddleware())

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/health", healthHandler(status, version))
	app.Get("/stats", statsHandler(status))

	return &Server{app: app, addr: addr, version: version}
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("Server shutdown error",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}()

	slog.Info("Starting metrics server",
		slog.String("type", "sys"),
		slog.String("address", s.addr))
	if err := s.app.Listen(s.addr); err != nil {
		slog.Error("Metrics server stopped",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
}

func healthHandler(status StatusSource, version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := status.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "unavailable",
				"version": version,
				"error":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version,
		})
	}
}

func statsHandler(status StatusSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		remaining, err := status.Remaining(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		round, ok, err := status.Active(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}

		body := fiber.Map{"remaining": remaining, "round": nil}
		if ok {
			body["round"] = round
		}
		return c.JSON(body)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

func loggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			slog.String("type", "sys"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}
		slog.Log(c.UserContext(), level, "HTTP request processed", attrs...)
		return err
	}
}
