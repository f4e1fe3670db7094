package db

import "github.com/luxeshopapp/luxeshop/internal/models"

type (
	Order               = models.Order
	OrderItem           = models.OrderItem
	OrderStatus         = models.OrderStatus
	TimelineEntry       = models.TimelineEntry
	Shipping            = models.Shipping
	ShippingStage       = models.ShippingStage
	ShippingUpdate      = models.ShippingUpdate
	Return              = models.Return
	ReturnStatus        = models.ReturnStatus
	ReturnTimelineEntry = models.ReturnTimelineEntry
	Product             = models.Product
	AdminStats          = models.AdminStats
)

const (
	StatusPlaced         = models.StatusPlaced
	StatusProcessing     = models.StatusProcessing
	StatusPacked         = models.StatusPacked
	StatusShipped        = models.StatusShipped
	StatusOutForDelivery = models.StatusOutForDelivery
	StatusDelivered      = models.StatusDelivered
	StatusCancelled      = models.StatusCancelled
)
