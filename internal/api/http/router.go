package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/http/handlers"
	"github.com/spec-kit/grocery-storefront/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Catalog  *handlers.CatalogHandler
	Payments *handlers.PaymentHandler
	// Authenticate resolves the bearer token; usually AuthMiddleware.Handle.
	Authenticate fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	signedIn := cfg.Authenticate
	admin := auth.RequireAdmin()

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Get("/user", signedIn, cfg.Auth.Profile)
	authGroup.Get("/profile", signedIn, cfg.Auth.Profile)
	authGroup.Put("/update-address", signedIn, cfg.Auth.UpdateAddress)

	cart := api.Group("/cart", signedIn)
	cart.Get("/get", cfg.Cart.Get)
	cart.Post("/update", cfg.Cart.Update)

	orders := api.Group("/order", signedIn)
	orders.Post("/place", cfg.Orders.Place)
	orders.Get("/user-orders", cfg.Orders.UserOrders)
	orders.Get("/list", admin, cfg.Orders.List)
	orders.Post("/status", admin, cfg.Orders.UpdateStatus)

	products := api.Group("/product")
	products.Get("/list", cfg.Catalog.Products)
	products.Get("/active", cfg.Catalog.ActiveProducts)
	products.Post("/add", signedIn, admin, cfg.Catalog.AddProduct)
	products.Post("/toggle", signedIn, admin, cfg.Catalog.ToggleProduct)

	categories := api.Group("/category")
	categories.Get("/list", cfg.Catalog.Categories)
	categories.Post("/add", signedIn, admin, cfg.Catalog.AddCategory)
	categories.Delete("/delete/:id", signedIn, admin, cfg.Catalog.DeleteCategory)
	categories.Post("/seed", signedIn, admin, cfg.Catalog.SeedCategories)

	payments := api.Group("/payment", signedIn)
	payments.Post("/create-checkout-session", cfg.Payments.CreateCheckoutSession)
	payments.Post("/verify-session", cfg.Payments.VerifySession)
}
