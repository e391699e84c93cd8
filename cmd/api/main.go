package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grocery-storefront/internal/api/http"
	"github.com/spec-kit/grocery-storefront/internal/api/http/handlers"
	"github.com/spec-kit/grocery-storefront/internal/auth"
	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/observability"
	"github.com/spec-kit/grocery-storefront/internal/payment"
	"github.com/spec-kit/grocery-storefront/internal/persistence"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	"github.com/spec-kit/grocery-storefront/internal/service"
	"github.com/spec-kit/grocery-storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cartRepo := repository.NewCartRepository(redis.Client)
	pendingRepo := repository.NewPendingCheckoutRepository(redis.Client, cfg.Stripe.PendingTTL())

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := worker.StartNotificationWorker(cfg.Kafka, dispatcher, logger)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	cartService := service.NewCartService(cartRepo)
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:   orderRepo,
		ProductRepo: productRepo,
		CartRepo:    cartRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	paymentService := service.NewPaymentService(orderService, pendingRepo, payment.NewStripe(cfg.Stripe), logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:         handlers.NewAuthHandler(authService),
		Cart:         handlers.NewCartHandler(cartService),
		Orders:       handlers.NewOrderHandler(orderService),
		Catalog:      handlers.NewCatalogHandler(catalogService),
		Payments:     handlers.NewPaymentHandler(paymentService),
		Authenticate: authMiddleware.Handle,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	notifications.Stop(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
