package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/observability"
)

// UserError carries a message safe to show to the requester.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

const adminOrderListLimit = 200

// OrderService owns checkout, cancellation, and order status transitions.
type OrderService struct {
	orders   orderRepository
	products productRepository
	emails   OrderEmailSender
	events   eventPublisher
	logger   *slog.Logger
}

func NewOrderService(orders orderRepository, products productRepository, emails OrderEmailSender, events eventPublisher, logger *slog.Logger) *OrderService {
	if emails == nil {
		emails = noopOrderEmailSender{}
	}
	if events == nil {
		events = noopEventPublisher{}
	}

	return &OrderService{
		orders:   orders,
		products: products,
		emails:   emails,
		events:   events,
		logger:   logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	CustomerEmail   string
	ShippingAddress string
	PaymentMethod   string
	PaymentRef      string
	Items           []PlaceOrderItemInput
}

type PlaceOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrder snapshots the requested products, computes the total, and
// creates the order at placed with its first timeline entry.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.place",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("PlaceOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("order.checkout.received", 1)

	if len(input.Items) == 0 {
		return nil, UserError{Message: "order must contain at least one item"}
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, UserError{Message: "shipping address is required"}
	}

	order := &models.Order{
		CustomerID:      input.CustomerID,
		CustomerEmail:   input.CustomerEmail,
		Status:          models.StatusPlaced,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		PaymentRef:      input.PaymentRef,
	}

	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, UserError{Message: "item quantity must be positive"}
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if isNotFound(err) {
				return nil, UserError{Message: fmt.Sprintf("product %s does not exist", line.ProductID)}
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.IsActive || product.Stock < line.Quantity {
			meter.Count("order.checkout.failed", 1, sentry.WithAttributes(
				attribute.String("reason", "out_of_stock"),
			))
			return nil, UserError{Message: fmt.Sprintf("%s is not available in the requested quantity", product.Name)}
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductImage:   product.Image,
			UnitPriceCents: product.PriceCents,
			Quantity:       line.Quantity,
		})
		order.TotalCents += product.PriceCents * line.Quantity
	}

	if err := s.orders.Create(ctx, order); err != nil {
		meter.Count("order.checkout.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "create_failed"),
		))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	meter.Count("order.created", 1)
	logger.Info("order placed", "order_id", order.ID, "order_number", order.OrderNumber, "total_cents", order.TotalCents)

	if err := s.emails.SendOrderConfirmation(ctx, order); err != nil {
		logger.Warn("failed to send order confirmation email", "error", err, "order_id", order.ID)
	}
	s.publish(ctx, notify.TableOrders, order.ID, notify.OpInsert)

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// GetCustomerOrder hides orders that belong to someone else behind not-found,
// so the endpoint does not leak which IDs exist.
func (s *OrderService) GetCustomerOrder(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, lifecycle.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListOrders returns the admin order list, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	if status == "" {
		return s.orders.ListAll(ctx, adminOrderListLimit)
	}
	return s.orders.ListByStatus(ctx, status, adminOrderListLimit)
}

// TransitionOrder applies a single-step status change. The transition is
// validated against the state read here; the store re-checks that state when
// it writes, so a concurrent change surfaces as ErrConcurrentModification.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID uuid.UUID, target models.OrderStatus) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.transition",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("TransitionOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidateOrderTransition(order.Status, target); err != nil {
		meter.Count("order.transition.rejected", 1, sentry.WithAttributes(
			attribute.String("from", string(order.Status)),
			attribute.String("to", string(target)),
		))
		return nil, err
	}

	if err := s.orders.TransitionStatus(ctx, orderID, order.Status, target); err != nil {
		return nil, err
	}
	meter.Count("order.transition.applied", 1, sentry.WithAttributes(
		attribute.String("from", string(order.Status)),
		attribute.String("to", string(target)),
	))
	logger.Info("order status changed", "order_id", orderID, "from", order.Status, "to", target)

	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if target == models.StatusDelivered {
		if err := s.emails.SendOrderDelivered(ctx, updated); err != nil {
			logger.Warn("failed to send delivered email", "error", err, "order_id", orderID)
		}
	}
	s.publish(ctx, notify.TableOrders, orderID, notify.OpUpdate)

	return updated, nil
}

// CancelOrder is the customer-facing cancellation: owner only, and only
// while the order has not been packed.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.cancel",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("CancelOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)

	order, err := s.GetCustomerOrder(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	if !lifecycle.IsCancellable(order) {
		meter.Count("order.cancel.rejected", 1, sentry.WithAttributes(
			attribute.String("status", string(order.Status)),
		))
		return nil, fmt.Errorf("%w: %s -> %s", lifecycle.ErrInvalidTransition, order.Status, models.StatusCancelled)
	}

	if err := s.orders.TransitionStatus(ctx, orderID, order.Status, models.StatusCancelled); err != nil {
		return nil, err
	}
	meter.Count("order.cancelled", 1)
	s.loggerFromContext(ctx).Info("order cancelled", "order_id", orderID, "from", order.Status)
	s.publish(ctx, notify.TableOrders, orderID, notify.OpUpdate)

	return s.orders.GetByID(ctx, orderID)
}

func (s *OrderService) publish(ctx context.Context, table string, entityID uuid.UUID, op string) {
	event := notify.Event{
		Table:    table,
		EntityID: entityID.String(),
		Op:       op,
		At:       time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.loggerFromContext(ctx).Warn("failed to publish change event", "error", err, "table", table, "entity_id", entityID)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, lifecycle.ErrNotFound)
}
