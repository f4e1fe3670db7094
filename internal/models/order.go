package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusProcessing     OrderStatus = "processing"
	StatusPacked         OrderStatus = "packed"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

type ShippingStage string

const (
	StagePickedUp       ShippingStage = "picked_up"
	StageInTransit      ShippingStage = "in_transit"
	StageOutForDelivery ShippingStage = "out_for_delivery"
	StageDelivered      ShippingStage = "delivered"
)

type ReturnStatus string

const (
	ReturnRequested       ReturnStatus = "requested"
	ReturnApproved        ReturnStatus = "approved"
	ReturnRejected        ReturnStatus = "rejected"
	ReturnPickupScheduled ReturnStatus = "pickup_scheduled"
	ReturnReturned        ReturnStatus = "returned"
	ReturnRefundProcessed ReturnStatus = "refund_processed"
)

type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	Status          OrderStatus     `json:"status"`
	TotalCents      int             `json:"total_cents"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	Items           []OrderItem     `json:"items"`
	Timeline        []TimelineEntry `json:"timeline"`
	Shipping        *Shipping       `json:"shipping,omitempty"`
	Return          *Return         `json:"return,omitempty"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// OrderItem snapshots product data at order time. Catalog edits after
// checkout never alter historical orders.
type OrderItem struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	ProductImage   string    `json:"product_image"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

type TimelineEntry struct {
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type Shipping struct {
	ID                uuid.UUID        `json:"id"`
	OrderID           uuid.UUID        `json:"order_id"`
	Courier           string           `json:"courier"`
	TrackingID        string           `json:"tracking_id"`
	Stage             ShippingStage    `json:"stage"`
	EstimatedDelivery time.Time        `json:"estimated_delivery"`
	Updates           []ShippingUpdate `json:"updates"`
	CreatedAt         time.Time        `json:"created_at"`
}

type ShippingUpdate struct {
	Stage     ShippingStage `json:"stage"`
	Location  string        `json:"location"`
	CreatedAt time.Time     `json:"created_at"`
}

type Return struct {
	ID          uuid.UUID             `json:"id"`
	OrderID     uuid.UUID             `json:"order_id"`
	CustomerID  uuid.UUID             `json:"customer_id"`
	Reason      string                `json:"reason"`
	Status      ReturnStatus          `json:"status"`
	RefundCents int                   `json:"refund_cents"`
	Timeline    []ReturnTimelineEntry `json:"timeline"`
	RequestedAt time.Time             `json:"requested_at"`
}

type ReturnTimelineEntry struct {
	Status    ReturnStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// LastTimelineStatus returns the status of the most recent timeline entry.
// It always agrees with Status for a consistent order.
func (o *Order) LastTimelineStatus() (OrderStatus, bool) {
	if o == nil || len(o.Timeline) == 0 {
		return "", false
	}
	return o.Timeline[len(o.Timeline)-1].Status, true
}

func (o *Order) HasShipping() bool {
	return o != nil && o.Shipping != nil
}

func (o *Order) HasReturn() bool {
	return o != nil && o.Return != nil
}
