package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/db"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
)

// orderRepository is the slice of db.OrderStore the services depend on.
// Tests substitute an in-memory fake.
type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error)
	ListAll(ctx context.Context, limit int) ([]*models.Order, error)
	ListByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]*models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, expected, target models.OrderStatus) error
	AssignShipping(ctx context.Context, params db.AssignShippingParams) (*models.Shipping, error)
	AdvanceShippingStage(ctx context.Context, shippingID uuid.UUID, expected, target models.ShippingStage, location string) error
	GetShipping(ctx context.Context, shippingID uuid.UUID) (*models.Shipping, error)
	CreateReturn(ctx context.Context, orderID uuid.UUID, reason string) (*models.Return, error)
	AdvanceReturn(ctx context.Context, returnID uuid.UUID, expected, target models.ReturnStatus) error
	GetReturn(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	Stats(ctx context.Context) (*models.AdminStats, error)
}

type productRepository interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, productID uuid.UUID) error
	SetActive(ctx context.Context, productID uuid.UUID, active bool) error
	UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error
}

// eventPublisher pushes committed-change events to live subscribers.
type eventPublisher interface {
	Publish(ctx context.Context, event notify.Event) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, notify.Event) error {
	return nil
}
