package app

import (
	"errors"
	"io"
	"time"

	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/logger"
	"catalog/internal/response"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Version is reported by GET /api.
const Version = "1.0.0"

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config  *config.Config
	Service *services.ProductService
	Logger  *logger.Logger
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

// New builds the fiber application with middleware and routes.
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "catalog",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log, cfg.IsDevelopment()),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if deps.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Output: deps.AccessLog,
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// --- API Routes ---
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return response.Fail(c, fiber.StatusTooManyRequests, "too many requests, please try again later")
		},
	}))
	api.Get("/", handleInfo)

	productHandler := handlers.NewProductHandler(deps.Service, log, cfg.IsDevelopment())
	productHandler.RegisterRoutes(api)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		if err := deps.Service.Ping(c.UserContext()); err != nil {
			log.Warn("health check failed", logger.Fields{"error": err.Error()})
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unavailable",
				"time":     now,
				"database": "disconnected",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"time":     now,
			"database": "connected",
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return response.Fail(c, fiber.StatusNotFound, "route not found")
	})

	return app
}

func handleInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "product catalog API",
		"version": Version,
		"endpoints": fiber.Map{
			"list":   "GET /api/products",
			"search": "GET /api/products/search?q=term",
			"get":    "GET /api/products/:id",
			"create": "POST /api/products",
			"update": "PUT /api/products/:id",
			"delete": "DELETE /api/products/:id",
			"health": "GET /health",
		},
	})
}

// errorHandler turns errors that escaped a handler into the response envelope.
func errorHandler(log *logger.Logger, showErrors bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			if fe.Code == fiber.StatusNotFound {
				return response.Fail(c, fe.Code, "route not found")
			}
			return response.Fail(c, fe.Code, fe.Message)
		}
		log.Error("unhandled error", logger.Fields{
			"error":  err.Error(),
			"method": c.Method(),
			"path":   c.Path(),
		})
		return response.Internal(c, "internal server error", err, showErrors)
	}
}
