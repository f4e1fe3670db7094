package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/models"
)

type AssignShippingParams struct {
	OrderID           uuid.UUID
	Courier           string
	TrackingID        string
	EstimatedDelivery time.Time
	InitialLocation   string
}

// AssignShipping creates the shipping record at picked_up, records the first
// tracking update, and forces the order to shipped, all in one transaction.
// One shipping record per order; a second assignment hits the unique
// constraint.
func (s *OrderStore) AssignShipping(ctx context.Context, params AssignShippingParams) (*Shipping, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	shipping := &Shipping{
		OrderID:           params.OrderID,
		Courier:           params.Courier,
		TrackingID:        params.TrackingID,
		Stage:             models.StagePickedUp,
		EstimatedDelivery: params.EstimatedDelivery,
	}

	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO shipping (order_id, courier, tracking_id, stage, estimated_delivery)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, params.OrderID, params.Courier, params.TrackingID, string(models.StagePickedUp), params.EstimatedDelivery,
	).Scan(&shipping.ID, &createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, lifecycle.ErrAlreadyAssigned
		}
		if isForeignKeyViolation(err) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	shipping.CreatedAt = createdAt.Time

	var updateAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO shipping_updates (shipping_id, stage, location)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, shipping.ID, string(models.StagePickedUp), params.InitialLocation).Scan(&updateAt)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2 AND status IN ($3, $4)
	`, string(StatusShipped), params.OrderID, string(StatusProcessing), string(StatusPacked))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, s.orderGuardMiss(ctx, tx, params.OrderID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline (order_id, status) VALUES ($1, $2)
	`, params.OrderID, string(StatusShipped)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	shipping.Updates = []ShippingUpdate{{
		Stage:     models.StagePickedUp,
		Location:  params.InitialLocation,
		CreatedAt: updateAt.Time,
	}}
	return shipping, nil
}

// AdvanceShippingStage moves the shipping record from expected to target,
// appends the tracking update, and mirrors out_for_delivery and delivered
// into the order status.
func (s *OrderStore) AdvanceShippingStage(ctx context.Context, shippingID uuid.UUID, expected, target ShippingStage, location string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var orderID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE shipping SET stage = $1 WHERE id = $2 AND stage = $3
		RETURNING order_id
	`, string(target), shippingID, string(expected)).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.shippingGuardMiss(ctx, tx, shippingID)
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO shipping_updates (shipping_id, stage, location) VALUES ($1, $2, $3)
	`, shippingID, string(target), location); err != nil {
		return err
	}

	if orderStatus, ok := lifecycle.PropagatedOrderStatus(target); ok {
		if err := s.mirrorOrderStatus(ctx, tx, orderID, orderStatus); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetShipping(ctx context.Context, shippingID uuid.UUID) (*Shipping, error) {
	shipping, err := s.scanShipping(s.pool.QueryRow(ctx, selectShipping+` WHERE id = $1`, shippingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}

	shipping.Updates, err = s.shippingUpdates(ctx, shipping.ID)
	if err != nil {
		return nil, err
	}
	return shipping, nil
}

func (s *OrderStore) shippingForOrder(ctx context.Context, orderID uuid.UUID) (*Shipping, error) {
	shipping, err := s.scanShipping(s.pool.QueryRow(ctx, selectShipping+` WHERE order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	shipping.Updates, err = s.shippingUpdates(ctx, shipping.ID)
	if err != nil {
		return nil, err
	}
	return shipping, nil
}

const selectShipping = `
	SELECT id, order_id, courier, tracking_id, stage, estimated_delivery, created_at
	FROM shipping
`

func (s *OrderStore) scanShipping(row pgx.Row) (*Shipping, error) {
	var (
		shipping  Shipping
		stage     string
		eta       pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(&shipping.ID, &shipping.OrderID, &shipping.Courier, &shipping.TrackingID, &stage, &eta, &createdAt)
	if err != nil {
		return nil, err
	}

	shipping.Stage = ShippingStage(stage)
	shipping.EstimatedDelivery = eta.Time
	shipping.CreatedAt = createdAt.Time
	return &shipping, nil
}

func (s *OrderStore) shippingUpdates(ctx context.Context, shippingID uuid.UUID) ([]ShippingUpdate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT stage, location, created_at FROM shipping_updates WHERE shipping_id = $1 ORDER BY id
	`, shippingID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ShippingUpdate, error) {
		var (
			update    ShippingUpdate
			stage     string
			createdAt pgtype.Timestamptz
		)
		if err := row.Scan(&stage, &update.Location, &createdAt); err != nil {
			return update, err
		}
		update.Stage = ShippingStage(stage)
		update.CreatedAt = createdAt.Time
		return update, nil
	})
}

func (s *OrderStore) shippingGuardMiss(ctx context.Context, tx pgx.Tx, shippingID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shipping WHERE id = $1)`, shippingID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return lifecycle.ErrNotFound
	}
	return lifecycle.ErrConcurrentModification
}

// mirrorOrderStatus copies a propagated shipping stage into the order status.
// An order already at the target status is left alone, so a manual status
// change that ran ahead of the courier feed does not wedge the stage advance.
// The timeline entry is appended only when the status actually moved.
func (s *OrderStore) mirrorOrderStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, target OrderStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2 AND status = $3
	`, string(target), orderID, string(priorOrderStatus(target)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_timeline (order_id, status) VALUES ($1, $2)
		`, orderID, string(target))
		return err
	}

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lifecycle.ErrNotFound
		}
		return err
	}
	if OrderStatus(status) != target {
		return lifecycle.ErrConcurrentModification
	}
	return nil
}

// priorOrderStatus is the order status a propagated stage advances from.
func priorOrderStatus(target OrderStatus) OrderStatus {
	if target == StatusDelivered {
		return StatusOutForDelivery
	}
	return StatusShipped
}
