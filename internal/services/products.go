package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/cache"
	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/observability"
)

const productListCacheTTL = 5 * time.Minute

// ProductService serves the storefront listing through the cache and owns
// the admin catalog mutations. Catalog edits never touch existing orders;
// those carry their own snapshots.
type ProductService struct {
	products productRepository
	cache    cache.Provider
	events   eventPublisher
	logger   *slog.Logger
}

func NewProductService(products productRepository, cacheProvider cache.Provider, events eventPublisher, logger *slog.Logger) *ProductService {
	if events == nil {
		events = noopEventPublisher{}
	}

	return &ProductService{
		products: products,
		cache:    cacheProvider,
		events:   events,
		logger:   logger,
	}
}

func (s *ProductService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// ListActive returns the storefront listing, from cache when possible.
func (s *ProductService) ListActive(ctx context.Context) ([]*models.Product, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cache.ProductListKey); err == nil {
			var products []*models.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				meter.Count("products.list.cache_hit", 1)
				return products, nil
			}
			logger.Warn("failed to decode cached product listing", "error", err)
		}
	}
	meter.Count("products.list.cache_miss", 1)

	products, err := s.products.List(ctx, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, cache.ProductListKey, string(encoded), productListCacheTTL); err != nil {
				logger.Warn("failed to cache product listing", "error", err)
			}
		}
	}

	return products, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]*models.Product, error) {
	return s.products.List(ctx, false)
}

func (s *ProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, productID)
}

type CreateProductInput struct {
	Name          string
	Description   string
	PriceCents    int
	OriginalCents int
	Image         string
	Category      string
	Stock         int
	IsActive      bool
}

func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	span := sentry.StartSpan(
		ctx,
		"service.product.create",
		sentry.WithOpName("service.product"),
		sentry.WithDescription("CreateProduct"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	if strings.TrimSpace(input.Name) == "" {
		return nil, UserError{Message: "product name is required"}
	}
	if input.PriceCents <= 0 {
		return nil, UserError{Message: "product price must be positive"}
	}
	if input.Stock < 0 {
		return nil, UserError{Message: "product stock must not be negative"}
	}

	product := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		PriceCents:    input.PriceCents,
		OriginalCents: input.OriginalCents,
		Image:         input.Image,
		Category:      input.Category,
		Stock:         input.Stock,
		IsActive:      input.IsActive,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.loggerFromContext(ctx).Info("product created", "product_id", product.ID, "name", product.Name)
	s.afterMutation(ctx, product.ID, notify.OpInsert)

	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.loggerFromContext(ctx).Info("product deleted", "product_id", productID)
	s.afterMutation(ctx, productID, notify.OpDelete)
	return nil
}

func (s *ProductService) SetProductActive(ctx context.Context, productID uuid.UUID, active bool) error {
	if err := s.products.SetActive(ctx, productID, active); err != nil {
		return err
	}
	s.afterMutation(ctx, productID, notify.OpUpdate)
	return nil
}

func (s *ProductService) UpdateProductStock(ctx context.Context, productID uuid.UUID, stock int) error {
	if stock < 0 {
		return UserError{Message: "product stock must not be negative"}
	}
	if err := s.products.UpdateStock(ctx, productID, stock); err != nil {
		return err
	}
	s.afterMutation(ctx, productID, notify.OpUpdate)
	return nil
}

// afterMutation invalidates the listing cache and publishes the change event.
func (s *ProductService) afterMutation(ctx context.Context, productID uuid.UUID, op string) {
	logger := s.loggerFromContext(ctx)

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.ProductListKey); err != nil {
			logger.Warn("failed to invalidate product listing cache", "error", err)
		}
	}

	event := notify.Event{
		Table:    notify.TableProducts,
		EntityID: productID.String(),
		Op:       op,
		At:       time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish change event", "error", err, "product_id", productID)
	}
}
