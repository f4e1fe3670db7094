package services

import (
	"context"
	"fmt"

	"github.com/luxeshopapp/luxeshop/internal/email"
	"github.com/luxeshopapp/luxeshop/internal/models"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderShipped(ctx context.Context, order *models.Order, shipping *models.Shipping) error
	SendOrderDelivered(ctx context.Context, order *models.Order) error
	SendRefundProcessed(ctx context.Context, order *models.Order, ret *models.Return) error
}

// ProviderOrderEmailSender renders lifecycle emails and delivers them through
// the configured provider.
type ProviderOrderEmailSender struct {
	provider  email.Provider
	storeName string
}

func NewProviderOrderEmailSender(provider email.Provider, storeName string) *ProviderOrderEmailSender {
	return &ProviderOrderEmailSender{
		provider:  provider,
		storeName: storeName,
	}
}

func (s *ProviderOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	info, err := s.orderInfo(order)
	if err != nil {
		return err
	}
	return email.SendOrderConfirmation(ctx, s.provider, info)
}

func (s *ProviderOrderEmailSender) SendOrderShipped(ctx context.Context, order *models.Order, shipping *models.Shipping) error {
	info, err := s.orderInfo(order)
	if err != nil {
		return err
	}
	if shipping != nil {
		info.Courier = shipping.Courier
		info.TrackingID = shipping.TrackingID
		info.EstimatedDelivery = shipping.EstimatedDelivery.Format("January 2, 2006")
	}
	return email.SendOrderShipped(ctx, s.provider, info)
}

func (s *ProviderOrderEmailSender) SendOrderDelivered(ctx context.Context, order *models.Order) error {
	info, err := s.orderInfo(order)
	if err != nil {
		return err
	}
	return email.SendOrderDelivered(ctx, s.provider, info)
}

func (s *ProviderOrderEmailSender) SendRefundProcessed(ctx context.Context, order *models.Order, ret *models.Return) error {
	info, err := s.orderInfo(order)
	if err != nil {
		return err
	}
	if ret != nil {
		info.RefundAmount = email.FormatCents(ret.RefundCents)
	}
	return email.SendRefundProcessed(ctx, s.provider, info)
}

func (s *ProviderOrderEmailSender) orderInfo(order *models.Order) (*email.OrderInfo, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}

	items := make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, email.OrderItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  email.FormatCents(item.UnitPriceCents),
			TotalPrice: email.FormatCents(item.UnitPriceCents * item.Quantity),
		})
	}

	return &email.OrderInfo{
		OrderNumber:     order.OrderNumber,
		CustomerEmail:   order.CustomerEmail,
		StoreName:       s.storeName,
		OrderDate:       order.PlacedAt.Format("January 2, 2006"),
		Items:           items,
		Total:           email.FormatCents(order.TotalCents),
		ShippingAddress: order.ShippingAddress,
	}, nil
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderShipped(context.Context, *models.Order, *models.Shipping) error {
	return nil
}

func (noopOrderEmailSender) SendOrderDelivered(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendRefundProcessed(context.Context, *models.Order, *models.Return) error {
	return nil
}
