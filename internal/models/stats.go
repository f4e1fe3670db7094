package models

// AdminStats are the dashboard aggregates, computed by SQL folds over
// orders, returns, and products.
type AdminStats struct {
	TotalSalesCents  int `json:"total_sales_cents"`
	TotalOrders      int `json:"total_orders"`
	PendingShipments int `json:"pending_shipments"`
	DeliveredCount   int `json:"delivered_count"`
	ReturnsRequested int `json:"returns_requested"`
	TotalProducts    int `json:"total_products"`
}
