package server

import (
	"time"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP server is built from.
type Deps struct {
	Store     repositories.Store
	Publisher services.EventPublisher // optional
	Registry  *prometheus.Registry    // optional; a private registry is created when nil
	Logger    *zap.Logger             // optional
	JWTSecret string
	JWTTTL    time.Duration
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// New wires services and handlers over deps.Store and returns the Fiber app.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(deps.Registry)

	store := deps.Store
	locker := services.NewSessionLocker()
	ledger := services.NewStockLedger(store.Products(), m)
	productService := services.NewProductService(store.Products())
	cartService := services.NewCartService(store.Carts(), ledger, locker)
	orderService := services.NewOrderService(store, store.Orders(), cartService, ledger, locker, deps.Publisher, m)
	authService := services.NewAuthService(store.Users(), deps.JWTSecret, deps.JWTTTL)

	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	app := fiber.New(fiber.Config{
		AppName: "storefront",
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID, Session-ID",
	}))
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(middleware.RequestLogger(deps.Logger))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, authRequired)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1, authRequired)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, optionalAuth, authRequired)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":         "healthy",
			"time":           time.Now().Format(time.RFC3339),
			"events_enabled": deps.Publisher != nil,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	return app
}
