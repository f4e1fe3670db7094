package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/cache"
	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/models"
)

func TestListActiveUsesCache(t *testing.T) {
	t.Parallel()

	active := blouseProduct()
	inactive := blouseProduct()
	inactive.Name = "Archived Coat"
	inactive.IsActive = false

	listingCache := newFakeCache()
	svc := NewProductService(newFakeProductRepository(active, inactive), listingCache, nil, testLogger())

	first, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(first) != 1 || first[0].Name != active.Name {
		t.Fatalf("unexpected listing: %+v", first)
	}
	if _, ok := listingCache.values[cache.ProductListKey]; !ok {
		t.Fatal("listing was not cached")
	}

	// Second read must come from the cache.
	second, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("cached list failed: %v", err)
	}
	if len(second) != 1 || second[0].Name != active.Name {
		t.Fatalf("unexpected cached listing: %+v", second)
	}
}

func TestProductMutationsInvalidateCache(t *testing.T) {
	t.Parallel()

	product := blouseProduct()
	listingCache := newFakeCache()
	svc := NewProductService(newFakeProductRepository(product), listingCache, nil, testLogger())

	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if err := svc.SetProductActive(context.Background(), product.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, ok := listingCache.values[cache.ProductListKey]; ok {
		t.Fatal("cache not invalidated after mutation")
	}

	listing, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list after deactivate failed: %v", err)
	}
	if len(listing) != 0 {
		t.Fatalf("expected empty listing, got %+v", listing)
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc := NewProductService(newFakeProductRepository(), newFakeCache(), nil, testLogger())

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{name: "missing name", input: CreateProductInput{PriceCents: 100}},
		{name: "zero price", input: CreateProductInput{Name: "Scarf"}},
		{name: "negative stock", input: CreateProductInput{Name: "Scarf", PriceCents: 100, Stock: -1}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var userErr UserError
			if _, err := svc.CreateProduct(context.Background(), tc.input); !errors.As(err, &userErr) {
				t.Fatalf("expected UserError, got %v", err)
			}
		})
	}
}

func TestDeleteProductLeavesOrderSnapshotsAlone(t *testing.T) {
	t.Parallel()

	product := blouseProduct()
	orders := newFakeOrderRepository()
	products := newFakeProductRepository(product)
	orderSvc := NewOrderService(orders, products, nil, nil, testLogger())
	productSvc := NewProductService(products, newFakeCache(), nil, testLogger())

	order := placeTestOrder(t, orderSvc, product, uuid.New())

	if err := productSvc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := productSvc.GetProduct(context.Background(), product.ID); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	reloaded, err := orderSvc.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].ProductName != product.Name || reloaded.Items[0].UnitPriceCents != product.PriceCents {
		t.Fatalf("order snapshot changed after product delete: %+v", reloaded.Items)
	}
}

func TestAdminStats(t *testing.T) {
	t.Parallel()

	product := blouseProduct()
	orders := newFakeOrderRepository()
	products := newFakeProductRepository(product)
	orderSvc := NewOrderService(orders, products, nil, nil, testLogger())
	adminSvc := NewAdminService(orders, testLogger())

	customerID := uuid.New()
	placed := placeTestOrder(t, orderSvc, product, customerID)
	delivered := placeTestOrder(t, orderSvc, product, customerID)
	cancelled := placeTestOrder(t, orderSvc, product, customerID)
	orders.setStatus(delivered.ID, models.StatusDelivered)
	orders.setStatus(cancelled.ID, models.StatusCancelled)

	stats, err := adminSvc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.TotalOrders != 3 {
		t.Fatalf("total orders = %d, want 3", stats.TotalOrders)
	}
	// Cancelled orders do not count toward sales.
	if want := placed.TotalCents + delivered.TotalCents; stats.TotalSalesCents != want {
		t.Fatalf("total sales = %d, want %d", stats.TotalSalesCents, want)
	}
	if stats.PendingShipments != 1 {
		t.Fatalf("pending shipments = %d, want 1", stats.PendingShipments)
	}
	if stats.DeliveredCount != 1 {
		t.Fatalf("delivered count = %d, want 1", stats.DeliveredCount)
	}
}
