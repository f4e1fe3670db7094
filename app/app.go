package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxeshopapp/luxeshop/internal/auth"
	"github.com/luxeshopapp/luxeshop/internal/cache"
	"github.com/luxeshopapp/luxeshop/internal/catalog"
	"github.com/luxeshopapp/luxeshop/internal/config"
	"github.com/luxeshopapp/luxeshop/internal/crypto"
	"github.com/luxeshopapp/luxeshop/internal/db"
	"github.com/luxeshopapp/luxeshop/internal/email"
	"github.com/luxeshopapp/luxeshop/internal/handlers"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/payments"
	"github.com/luxeshopapp/luxeshop/internal/services"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Notifier      notify.Notifier
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(startupCtx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	notifier, err := notify.NewNotifier(notify.Config{
		Provider:              cfg.NotifyProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.AuthSecret)
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	orderStore, err := db.NewOrderStore(database, encryptor)
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize order store: %w", err)
	}
	productStore := db.NewProductStore(database)

	storeName, err := seedCatalog(startupCtx, cfg, productStore, logger)
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, err
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.ResendAPIKey,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	orderEmailer := services.NewProviderOrderEmailSender(emailProvider, storeName)

	refunds := payments.NewRefundClient(cfg.StripeSecretKey)

	orderService := services.NewOrderService(
		orderStore,
		productStore,
		orderEmailer,
		notifier,
		logger.With("component", "order_service"),
	)
	shippingService := services.NewShippingService(
		orderStore,
		orderEmailer,
		notifier,
		logger.With("component", "shipping_service"),
	)
	returnService := services.NewReturnService(
		orderStore,
		refunds,
		orderEmailer,
		notifier,
		logger.With("component", "return_service"),
	)
	productService := services.NewProductService(
		productStore,
		cacheProvider,
		notifier,
		logger.With("component", "product_service"),
	)
	adminService := services.NewAdminService(orderStore, logger.With("component", "admin_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		Tokens:          tokens,
		Notifier:        notifier,
		OrderService:    orderService,
		ShippingService: shippingService,
		ReturnService:   returnService,
		ProductService:  productService,
		AdminService:    adminService,
		Logger:          logger,
	})
	if err != nil {
		closeNotifier(logger, notifier)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Notifier:      notifier,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Notifier != nil {
		closeNotifier(a.Logger, a.Notifier)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// seedCatalog parses and validates the seed file and loads it into an empty
// products table. Returns the store name for email rendering.
func seedCatalog(ctx context.Context, cfg *config.Config, products *db.ProductStore, logger *slog.Logger) (string, error) {
	parsed, err := catalog.NewParser().ParseFile(cfg.CatalogPath)
	if err != nil {
		return "", fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := catalog.NewValidator().Validate(parsed); err != nil {
		return "", fmt.Errorf("invalid catalog: %w", err)
	}

	seed := make([]*models.Product, 0, len(parsed.Products))
	for _, product := range parsed.Products {
		seed = append(seed, &models.Product{
			Name:          product.Name,
			Description:   product.Description,
			PriceCents:    product.PriceCents,
			OriginalCents: product.OriginalCents,
			Image:         product.Image,
			Category:      product.Category,
			Stock:         product.Stock,
			IsActive:      product.Active,
		})
	}

	seeded, err := products.SeedIfEmpty(ctx, seed)
	if err != nil {
		return "", fmt.Errorf("failed to seed catalog: %w", err)
	}
	if seeded {
		logger.Info("seeded product catalog", "store", parsed.Store.Name, "products", len(seed))
	}

	return parsed.Store.Name, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeNotifier(logger *slog.Logger, notifier notify.Notifier) {
	if notifier == nil {
		return
	}
	if err := notifier.Close(); err != nil && logger != nil {
		logger.Warn("failed to close notifier", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
