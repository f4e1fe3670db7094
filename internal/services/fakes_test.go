package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/luxeshopapp/luxeshop/internal/db"
	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/notify"
)

// fakeOrderRepository mirrors the store's guarded-write semantics in memory:
// a write only lands when the entity is still in the state the caller read.
type fakeOrderRepository struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*models.Order
	nextSeq int
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepository) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextSeq++
	order.ID = uuid.New()
	order.OrderNumber = fmt.Sprintf("ORD-%06d", f.nextSeq)
	order.PlacedAt = time.Now().UTC()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
	}
	order.Timeline = []models.TimelineEntry{{Status: order.Status, CreatedAt: order.PlacedAt}}

	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []*models.Order
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			clone := *order
			orders = append(orders, &clone)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepository) ListAll(ctx context.Context, limit int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []*models.Order
	for _, order := range f.orders {
		clone := *order
		orders = append(orders, &clone)
	}
	return orders, nil
}

func (f *fakeOrderRepository) ListByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []*models.Order
	for _, order := range f.orders {
		if order.Status == status {
			clone := *order
			orders = append(orders, &clone)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, expected, target models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if order.Status != expected {
		return lifecycle.ErrConcurrentModification
	}
	order.Status = target
	order.Timeline = append(order.Timeline, models.TimelineEntry{Status: target, CreatedAt: time.Now().UTC()})
	return nil
}

func (f *fakeOrderRepository) AssignShipping(ctx context.Context, params db.AssignShippingParams) (*models.Shipping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[params.OrderID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	if order.Shipping != nil {
		return nil, lifecycle.ErrAlreadyAssigned
	}
	if order.Status != models.StatusProcessing && order.Status != models.StatusPacked {
		return nil, lifecycle.ErrConcurrentModification
	}

	now := time.Now().UTC()
	shipping := &models.Shipping{
		ID:                uuid.New(),
		OrderID:           params.OrderID,
		Courier:           params.Courier,
		TrackingID:        params.TrackingID,
		Stage:             models.StagePickedUp,
		EstimatedDelivery: params.EstimatedDelivery,
		Updates: []models.ShippingUpdate{{
			Stage:     models.StagePickedUp,
			Location:  params.InitialLocation,
			CreatedAt: now,
		}},
		CreatedAt: now,
	}

	order.Shipping = shipping
	order.Status = models.StatusShipped
	order.Timeline = append(order.Timeline, models.TimelineEntry{Status: models.StatusShipped, CreatedAt: now})

	clone := *shipping
	return &clone, nil
}

func (f *fakeOrderRepository) AdvanceShippingStage(ctx context.Context, shippingID uuid.UUID, expected, target models.ShippingStage, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order := f.orderForShipping(shippingID)
	if order == nil {
		return lifecycle.ErrNotFound
	}
	if order.Shipping.Stage != expected {
		return lifecycle.ErrConcurrentModification
	}

	now := time.Now().UTC()
	if status, ok := lifecycle.PropagatedOrderStatus(target); ok {
		switch order.Status {
		case status:
			// already mirrored by a manual status change
		case mirrorPrior(status):
			order.Status = status
			order.Timeline = append(order.Timeline, models.TimelineEntry{Status: status, CreatedAt: now})
		default:
			return lifecycle.ErrConcurrentModification
		}
	}

	order.Shipping.Stage = target
	order.Shipping.Updates = append(order.Shipping.Updates, models.ShippingUpdate{
		Stage:     target,
		Location:  location,
		CreatedAt: now,
	})
	return nil
}

// mirrorPrior is the order status a propagated shipping stage advances from.
func mirrorPrior(status models.OrderStatus) models.OrderStatus {
	if status == models.StatusDelivered {
		return models.StatusOutForDelivery
	}
	return models.StatusShipped
}

func (f *fakeOrderRepository) GetShipping(ctx context.Context, shippingID uuid.UUID) (*models.Shipping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order := f.orderForShipping(shippingID)
	if order == nil {
		return nil, lifecycle.ErrNotFound
	}
	clone := *order.Shipping
	return &clone, nil
}

func (f *fakeOrderRepository) CreateReturn(ctx context.Context, orderID uuid.UUID, reason string) (*models.Return, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	if order.Status != models.StatusDelivered || order.Return != nil {
		return nil, lifecycle.ErrReturnNotEligible
	}

	now := time.Now().UTC()
	ret := &models.Return{
		ID:          uuid.New(),
		OrderID:     orderID,
		CustomerID:  order.CustomerID,
		Reason:      reason,
		Status:      models.ReturnRequested,
		RefundCents: order.TotalCents,
		Timeline:    []models.ReturnTimelineEntry{{Status: models.ReturnRequested, CreatedAt: now}},
		RequestedAt: now,
	}
	order.Return = ret

	clone := *ret
	return &clone, nil
}

func (f *fakeOrderRepository) AdvanceReturn(ctx context.Context, returnID uuid.UUID, expected, target models.ReturnStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order := f.orderForReturn(returnID)
	if order == nil {
		return lifecycle.ErrNotFound
	}
	if order.Return.Status != expected {
		return lifecycle.ErrConcurrentModification
	}

	order.Return.Status = target
	order.Return.Timeline = append(order.Return.Timeline, models.ReturnTimelineEntry{Status: target, CreatedAt: time.Now().UTC()})
	return nil
}

func (f *fakeOrderRepository) GetReturn(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order := f.orderForReturn(returnID)
	if order == nil {
		return nil, lifecycle.ErrNotFound
	}
	clone := *order.Return
	return &clone, nil
}

func (f *fakeOrderRepository) Stats(ctx context.Context) (*models.AdminStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &models.AdminStats{}
	for _, order := range f.orders {
		stats.TotalOrders++
		if order.Status != models.StatusCancelled {
			stats.TotalSalesCents += order.TotalCents
		}
		switch order.Status {
		case models.StatusPlaced, models.StatusProcessing, models.StatusPacked:
			stats.PendingShipments++
		case models.StatusDelivered:
			stats.DeliveredCount++
		}
		if order.Return != nil && order.Return.Status == models.ReturnRequested {
			stats.ReturnsRequested++
		}
	}
	return stats, nil
}

func (f *fakeOrderRepository) orderForShipping(shippingID uuid.UUID) *models.Order {
	for _, order := range f.orders {
		if order.Shipping != nil && order.Shipping.ID == shippingID {
			return order
		}
	}
	return nil
}

func (f *fakeOrderRepository) orderForReturn(returnID uuid.UUID) *models.Order {
	for _, order := range f.orders {
		if order.Return != nil && order.Return.ID == returnID {
			return order
		}
	}
	return nil
}

// setStatus rewrites an order's status directly, bypassing the guards. Used
// to simulate a concurrent writer.
func (f *fakeOrderRepository) setStatus(orderID uuid.UUID, status models.OrderStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok {
		order.Status = status
	}
}

type fakeProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newFakeProductRepository(products ...*models.Product) *fakeProductRepository {
	repo := &fakeProductRepository{products: map[uuid.UUID]*models.Product{}}
	for _, product := range products {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		repo.products[product.ID] = product
	}
	return repo
}

func (f *fakeProductRepository) List(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var products []*models.Product
	for _, product := range f.products {
		if activeOnly && !product.IsActive {
			continue
		}
		clone := *product
		products = append(products, &clone)
	}
	return products, nil
}

func (f *fakeProductRepository) GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[productID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (f *fakeProductRepository) Create(ctx context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product.ID = uuid.New()
	product.CreatedAt = time.Now().UTC()
	product.UpdatedAt = product.CreatedAt
	clone := *product
	f.products[product.ID] = &clone
	return nil
}

func (f *fakeProductRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[productID]; !ok {
		return lifecycle.ErrNotFound
	}
	delete(f.products, productID)
	return nil
}

func (f *fakeProductRepository) SetActive(ctx context.Context, productID uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[productID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	product.IsActive = active
	return nil
}

func (f *fakeProductRepository) UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[productID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	product.Stock = stock
	return nil
}

type sentEmail struct {
	kind    string
	orderID uuid.UUID
}

type captureEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (c *captureEmailSender) record(kind string, order *models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.Nil
	if order != nil {
		id = order.ID
	}
	c.sent = append(c.sent, sentEmail{kind: kind, orderID: id})
}

func (c *captureEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	c.record("confirmation", order)
	return nil
}

func (c *captureEmailSender) SendOrderShipped(ctx context.Context, order *models.Order, shipping *models.Shipping) error {
	c.record("shipped", order)
	return nil
}

func (c *captureEmailSender) SendOrderDelivered(ctx context.Context, order *models.Order) error {
	c.record("delivered", order)
	return nil
}

func (c *captureEmailSender) SendRefundProcessed(ctx context.Context, order *models.Order, ret *models.Return) error {
	c.record("refund", order)
	return nil
}

func (c *captureEmailSender) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, len(c.sent))
	for i, email := range c.sent {
		kinds[i] = email.kind
	}
	return kinds
}

type captureEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureEvents) Publish(ctx context.Context, event notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) byTable(table string) []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var filtered []notify.Event
	for _, event := range c.events {
		if event.Table == table {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

type fakeRefundIssuer struct {
	mu      sync.Mutex
	enabled bool
	err     error
	calls   []fakeRefundCall
}

type fakeRefundCall struct {
	paymentRef  string
	amountCents int
}

func (f *fakeRefundIssuer) Enabled() bool {
	return f.enabled
}

func (f *fakeRefundIssuer) Refund(ctx context.Context, paymentRef string, amountCents int) (*stripe.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, fakeRefundCall{paymentRef: paymentRef, amountCents: amountCents})
	return &stripe.Refund{ID: "re_test"}, nil
}

type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("cache miss: %s", key)
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	f.deletes++
	return nil
}

func (f *fakeCache) Close() error {
	return nil
}
