package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxeshopapp/luxeshop/internal/crypto"
	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// OrderStore persists orders and applies status transitions with a guarded
// UPDATE: the statement carries the status the caller read, so a concurrent
// writer makes the guard miss instead of silently overwriting.
type OrderStore struct {
	pool   *pgxpool.Pool
	crypto crypto.Encryptor
}

func NewOrderStore(pool *pgxpool.Pool, encryptor crypto.Encryptor) (*OrderStore, error) {
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	return &OrderStore{
		pool:   pool,
		crypto: encryptor,
	}, nil
}

// Create inserts the order, its item snapshots, and the initial timeline
// entry in one transaction, decrementing product stock along the way. The
// order comes back with its generated ID, order number, and timestamps.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	encryptedAddress, err := s.crypto.Encrypt(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encrypt shipping address: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return err
	}
	order.OrderNumber = fmt.Sprintf("ORD-%06d", seq)

	var placedAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, customer_email, status, total_cents, shipping_address, payment_method, payment_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, placed_at
	`, order.OrderNumber, order.CustomerID, order.CustomerEmail, string(order.Status), order.TotalCents,
		encryptedAddress, order.PaymentMethod,
		pgtype.Text{String: order.PaymentRef, Valid: order.PaymentRef != ""},
	).Scan(&order.ID, &placedAt)
	if err != nil {
		return err
	}
	order.PlacedAt = placedAt.Time

	for i := range order.Items {
		item := &order.Items[i]

		tag, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND is_active AND stock >= $1
		`, item.Quantity, item.ProductID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, product_image, unit_price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, order.ID, item.ProductID, item.ProductName, item.ProductImage, item.UnitPriceCents, item.Quantity).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline (order_id, status) VALUES ($1, $2)
	`, order.ID, string(order.Status)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	order.Timeline = []TimelineEntry{{Status: order.Status, CreatedAt: order.PlacedAt}}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := s.scanOrder(s.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}

	if err := s.hydrate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, selectOrder+` WHERE customer_id = $1 ORDER BY placed_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

func (s *OrderStore) ListAll(ctx context.Context, limit int) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, selectOrder+` ORDER BY placed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

func (s *OrderStore) ListByStatus(ctx context.Context, status OrderStatus, limit int) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, selectOrder+` WHERE status = $1 ORDER BY placed_at DESC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

// TransitionStatus moves the order from expected to target and appends the
// timeline entry atomically. A missed guard on an existing row means another
// writer got there first.
func (s *OrderStore) TransitionStatus(ctx context.Context, orderID uuid.UUID, expected, target OrderStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2 AND status = $3
	`, string(target), orderID, string(expected))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.orderGuardMiss(ctx, tx, orderID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline (order_id, status) VALUES ($1, $2)
	`, orderID, string(target)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_cents) FILTER (WHERE status <> 'cancelled'), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('placed', 'processing', 'packed')),
			COUNT(*) FILTER (WHERE status = 'delivered')
		FROM orders
	`).Scan(&stats.TotalSalesCents, &stats.TotalOrders, &stats.PendingShipments, &stats.DeliveredCount)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM returns WHERE status = 'requested'`).Scan(&stats.ReturnsRequested)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&stats.TotalProducts)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

const selectOrder = `
	SELECT id, order_number, customer_id, customer_email, status, total_cents, shipping_address, payment_method, payment_ref, placed_at
	FROM orders
`

func (s *OrderStore) scanOrder(row pgx.Row) (*Order, error) {
	var (
		order      Order
		status     string
		address    string
		paymentRef pgtype.Text
		placedAt   pgtype.Timestamptz
	)
	err := row.Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.CustomerEmail, &status,
		&order.TotalCents, &address, &order.PaymentMethod, &paymentRef, &placedAt)
	if err != nil {
		return nil, err
	}

	order.Status = OrderStatus(status)
	order.PlacedAt = placedAt.Time
	if paymentRef.Valid {
		order.PaymentRef = paymentRef.String
	}

	decrypted, err := s.crypto.Decrypt(address)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt shipping address for order %s: %w", order.ID, err)
	}
	order.ShippingAddress = decrypted

	return &order, nil
}

func (s *OrderStore) collectOrders(ctx context.Context, rows pgx.Rows) ([]*Order, error) {
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := s.hydrate(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// hydrate attaches items, timeline, shipping, and return data to a scanned
// order row.
func (s *OrderStore) hydrate(ctx context.Context, order *Order) error {
	itemRows, err := s.pool.Query(ctx, `
		SELECT id, product_id, product_name, product_image, unit_price_cents, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return err
	}
	order.Items, err = pgx.CollectRows(itemRows, func(row pgx.CollectableRow) (OrderItem, error) {
		var item OrderItem
		err := row.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.ProductImage, &item.UnitPriceCents, &item.Quantity)
		return item, err
	})
	if err != nil {
		return err
	}

	timelineRows, err := s.pool.Query(ctx, `
		SELECT status, created_at FROM order_timeline WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return err
	}
	order.Timeline, err = pgx.CollectRows(timelineRows, func(row pgx.CollectableRow) (TimelineEntry, error) {
		var (
			entry     TimelineEntry
			status    string
			createdAt pgtype.Timestamptz
		)
		if err := row.Scan(&status, &createdAt); err != nil {
			return entry, err
		}
		entry.Status = OrderStatus(status)
		entry.CreatedAt = createdAt.Time
		return entry, nil
	})
	if err != nil {
		return err
	}

	order.Shipping, err = s.shippingForOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	order.Return, err = s.returnForOrder(ctx, order.ID)
	return err
}

// orderGuardMiss distinguishes a vanished row from a row whose status moved
// underneath the caller.
func (s *OrderStore) orderGuardMiss(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return lifecycle.ErrNotFound
	}
	return lifecycle.ErrConcurrentModification
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
