// FILE: internal/server/server.go
package server

import (
	"log"

	"ai-deskmate-be/internal/bootstrap"
	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB, routing payloads are small
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Operational endpoints live outside the /api group so load balancers
	// and scrapers can reach them without CORS or auth concerns.
	app.Get("/healthz", healthz(container))
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(ctx *fiber.Ctx) error {
		metricsHandler(ctx.Context())
		return nil
	})

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func healthz(c *bootstrap.Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		snapshot := c.Prototypes.Snapshot()
		return ctx.JSON(fiber.Map{
			"status":            "ok",
			"snapshot_version":  snapshot.Version(),
			"examples":          snapshot.Count(),
			"policy_generation": c.Policies.Generation(),
		})
	}
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.RouteController.RegisterRoutes(api)
	c.AdminController.RegisterRoutes(api)

	c.DecisionStreamHandler.RegisterRoutes(api)
}
