package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/db"
	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/observability"
)

// estimatedDeliveryDays is the courier promise used for the initial ETA.
const estimatedDeliveryDays = 5

// ShippingService owns shipping assignment and stage progression, including
// the mirror into order status for the final two stages.
type ShippingService struct {
	orders orderRepository
	emails OrderEmailSender
	events eventPublisher
	now    func() time.Time
	logger *slog.Logger
}

func NewShippingService(orders orderRepository, emails OrderEmailSender, events eventPublisher, logger *slog.Logger) *ShippingService {
	if emails == nil {
		emails = noopOrderEmailSender{}
	}
	if events == nil {
		events = noopEventPublisher{}
	}

	return &ShippingService{
		orders: orders,
		emails: emails,
		events: events,
		now:    time.Now,
		logger: logger,
	}
}

func (s *ShippingService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type AssignShippingInput struct {
	OrderID    uuid.UUID
	Courier    string
	TrackingID string
}

// AssignShipping creates the shipping record at picked_up and forces the
// order to shipped. The order must still be in fulfilment (processing or
// packed) and must not carry a shipping record yet.
func (s *ShippingService) AssignShipping(ctx context.Context, input AssignShippingInput) (*models.Shipping, error) {
	span := sentry.StartSpan(
		ctx,
		"service.shipping.assign",
		sentry.WithOpName("service.shipping"),
		sentry.WithDescription("AssignShipping"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	courier := strings.TrimSpace(input.Courier)
	trackingID := strings.TrimSpace(input.TrackingID)
	if courier == "" || trackingID == "" {
		return nil, UserError{Message: "courier and tracking id are required"}
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.HasShipping() {
		return nil, lifecycle.ErrAlreadyAssigned
	}
	if !lifecycle.CanAssignShipping(order.Status) {
		meter.Count("shipping.assign.rejected", 1, sentry.WithAttributes(
			attribute.String("status", string(order.Status)),
		))
		return nil, fmt.Errorf("%w: %s -> %s", lifecycle.ErrInvalidTransition, order.Status, models.StatusShipped)
	}

	shipping, err := s.orders.AssignShipping(ctx, db.AssignShippingParams{
		OrderID:           input.OrderID,
		Courier:           courier,
		TrackingID:        trackingID,
		EstimatedDelivery: s.now().AddDate(0, 0, estimatedDeliveryDays),
		InitialLocation:   courier + " Warehouse",
	})
	if err != nil {
		return nil, err
	}
	meter.Count("shipping.assigned", 1)
	logger.Info("shipping assigned", "order_id", input.OrderID, "shipping_id", shipping.ID, "courier", courier)

	shipped, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		logger.Warn("failed to reload order after shipping assignment", "error", err, "order_id", input.OrderID)
	} else if err := s.emails.SendOrderShipped(ctx, shipped, shipping); err != nil {
		logger.Warn("failed to send shipped email", "error", err, "order_id", input.OrderID)
	}

	s.publish(ctx, notify.TableShipping, shipping.ID, notify.OpInsert)
	s.publish(ctx, notify.TableOrders, input.OrderID, notify.OpUpdate)

	return shipping, nil
}

// AdvanceStage moves the shipping record one stage forward. Stages only move
// toward delivered; out_for_delivery and delivered propagate to the order.
func (s *ShippingService) AdvanceStage(ctx context.Context, shippingID uuid.UUID, target models.ShippingStage, location string) (*models.Shipping, error) {
	span := sentry.StartSpan(
		ctx,
		"service.shipping.advance_stage",
		sentry.WithOpName("service.shipping"),
		sentry.WithDescription("AdvanceStage"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	shipping, err := s.orders.GetShipping(ctx, shippingID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidateShippingTransition(shipping.Stage, target); err != nil {
		meter.Count("shipping.stage.rejected", 1, sentry.WithAttributes(
			attribute.String("from", string(shipping.Stage)),
			attribute.String("to", string(target)),
		))
		return nil, err
	}

	if err := s.orders.AdvanceShippingStage(ctx, shippingID, shipping.Stage, target, strings.TrimSpace(location)); err != nil {
		return nil, err
	}
	meter.Count("shipping.stage.advanced", 1, sentry.WithAttributes(
		attribute.String("to", string(target)),
	))
	logger.Info("shipping stage advanced", "shipping_id", shippingID, "from", shipping.Stage, "to", target)

	s.publish(ctx, notify.TableShipping, shippingID, notify.OpUpdate)
	if _, propagated := lifecycle.PropagatedOrderStatus(target); propagated {
		s.publish(ctx, notify.TableOrders, shipping.OrderID, notify.OpUpdate)
	}

	if target == models.StageDelivered {
		order, err := s.orders.GetByID(ctx, shipping.OrderID)
		if err != nil {
			logger.Warn("failed to reload order after delivery", "error", err, "order_id", shipping.OrderID)
		} else if err := s.emails.SendOrderDelivered(ctx, order); err != nil {
			logger.Warn("failed to send delivered email", "error", err, "order_id", shipping.OrderID)
		}
	}

	return s.orders.GetShipping(ctx, shippingID)
}

func (s *ShippingService) publish(ctx context.Context, table string, entityID uuid.UUID, op string) {
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
