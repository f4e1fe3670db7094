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
	"github.com/stripe/stripe-go/v84"

	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/logging"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
	"github.com/luxeshopapp/luxeshop/internal/observability"
)

// RefundIssuer issues the payment-provider refund for a processed return.
type RefundIssuer interface {
	Enabled() bool
	Refund(ctx context.Context, paymentRef string, amountCents int) (*stripe.Refund, error)
}

// ReturnService owns return requests and their resolution flow through to
// the refund.
type ReturnService struct {
	orders  orderRepository
	refunds RefundIssuer
	emails  OrderEmailSender
	events  eventPublisher
	logger  *slog.Logger
}

func NewReturnService(orders orderRepository, refunds RefundIssuer, emails OrderEmailSender, events eventPublisher, logger *slog.Logger) *ReturnService {
	if emails == nil {
		emails = noopOrderEmailSender{}
	}
	if events == nil {
		events = noopEventPublisher{}
	}

	return &ReturnService{
		orders:  orders,
		refunds: refunds,
		emails:  emails,
		events:  events,
		logger:  logger,
	}
}

func (s *ReturnService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// RequestReturn opens a return for a delivered order owned by the customer.
// The refund amount snapshots the order total; later catalog or price changes
// never move it.
func (s *ReturnService) RequestReturn(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*models.Return, error) {
	span := sentry.StartSpan(
		ctx,
		"service.return.request",
		sentry.WithOpName("service.return"),
		sentry.WithDescription("RequestReturn"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, lifecycle.ErrNotFound
	}
	if !lifecycle.IsReturnEligible(order) {
		meter.Count("return.request.rejected", 1, sentry.WithAttributes(
			attribute.String("status", string(order.Status)),
		))
		return nil, lifecycle.ErrReturnNotEligible
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, UserError{Message: "return reason is required"}
	}

	ret, err := s.orders.CreateReturn(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}
	meter.Count("return.requested", 1)
	s.loggerFromContext(ctx).Info("return requested", "order_id", orderID, "return_id", ret.ID, "refund_cents", ret.RefundCents)
	s.publish(ctx, notify.TableReturns, ret.ID, notify.OpInsert)

	return ret, nil
}

// AdvanceReturn applies a single-step return status change. Reaching
// refund_processed issues the refund first; a refund failure aborts the
// transition so the return can be retried.
func (s *ReturnService) AdvanceReturn(ctx context.Context, returnID uuid.UUID, target models.ReturnStatus) (*models.Return, error) {
	span := sentry.StartSpan(
		ctx,
		"service.return.advance",
		sentry.WithOpName("service.return"),
		sentry.WithDescription("AdvanceReturn"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	ret, err := s.orders.GetReturn(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidateReturnTransition(ret.Status, target); err != nil {
		meter.Count("return.transition.rejected", 1, sentry.WithAttributes(
			attribute.String("from", string(ret.Status)),
			attribute.String("to", string(target)),
		))
		return nil, err
	}

	var order *models.Order
	if target == models.ReturnRefundProcessed {
		order, err = s.orders.GetByID(ctx, ret.OrderID)
		if err != nil {
			return nil, err
		}

		if s.refunds != nil && s.refunds.Enabled() && order.PaymentRef != "" {
			if _, err := s.refunds.Refund(ctx, order.PaymentRef, ret.RefundCents); err != nil {
				meter.Count("return.refund.failed", 1)
				return nil, fmt.Errorf("failed to issue refund: %w", err)
			}
			meter.Count("return.refund.issued", 1)
			logger.Info("refund issued", "return_id", returnID, "order_id", ret.OrderID, "amount_cents", ret.RefundCents)
		}
	}

	if err := s.orders.AdvanceReturn(ctx, returnID, ret.Status, target); err != nil {
		return nil, err
	}
	meter.Count("return.transition.applied", 1, sentry.WithAttributes(
		attribute.String("from", string(ret.Status)),
		attribute.String("to", string(target)),
	))
	logger.Info("return status changed", "return_id", returnID, "from", ret.Status, "to", target)
	s.publish(ctx, notify.TableReturns, returnID, notify.OpUpdate)

	updated, err := s.orders.GetReturn(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if target == models.ReturnRefundProcessed && order != nil {
		if err := s.emails.SendRefundProcessed(ctx, order, updated); err != nil {
			logger.Warn("failed to send refund processed email", "error", err, "return_id", returnID)
		}
	}

	return updated, nil
}

func (s *ReturnService) publish(ctx context.Context, table string, entityID uuid.UUID, op string) {
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
