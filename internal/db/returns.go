package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
	"github.com/luxeshopapp/luxeshop/internal/models"
)

// CreateReturn opens a return request for a delivered order. The refund
// amount snapshots the order total as it stands inside the transaction, and
// the unique constraint on order_id rejects a second request.
func (s *OrderStore) CreateReturn(ctx context.Context, orderID uuid.UUID, reason string) (*Return, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		status     string
		totalCents int
		customerID uuid.UUID
	)
	err = tx.QueryRow(ctx, `
		SELECT status, total_cents, customer_id FROM orders WHERE id = $1
	`, orderID).Scan(&status, &totalCents, &customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	if OrderStatus(status) != StatusDelivered {
		return nil, lifecycle.ErrReturnNotEligible
	}

	ret := &Return{
		OrderID:     orderID,
		CustomerID:  customerID,
		Reason:      reason,
		Status:      models.ReturnRequested,
		RefundCents: totalCents,
	}

	var requestedAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO returns (order_id, customer_id, reason, status, refund_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, requested_at
	`, orderID, customerID, reason, string(models.ReturnRequested), totalCents).Scan(&ret.ID, &requestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, lifecycle.ErrReturnNotEligible
		}
		return nil, err
	}
	ret.RequestedAt = requestedAt.Time

	if _, err := tx.Exec(ctx, `
		INSERT INTO return_timeline (return_id, status) VALUES ($1, $2)
	`, ret.ID, string(models.ReturnRequested)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	ret.Timeline = []ReturnTimelineEntry{{Status: models.ReturnRequested, CreatedAt: ret.RequestedAt}}
	return ret, nil
}

// AdvanceReturn moves the return from expected to target and appends the
// timeline entry. The return's own status history is the only thing that
// moves; the order status stays where delivery left it.
func (s *OrderStore) AdvanceReturn(ctx context.Context, returnID uuid.UUID, expected, target ReturnStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE returns SET status = $1 WHERE id = $2 AND status = $3
	`, string(target), returnID, string(expected))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.returnGuardMiss(ctx, tx, returnID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO return_timeline (return_id, status) VALUES ($1, $2)
	`, returnID, string(target)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetReturn(ctx context.Context, returnID uuid.UUID) (*Return, error) {
	ret, err := s.scanReturn(s.pool.QueryRow(ctx, selectReturn+` WHERE id = $1`, returnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}

	ret.Timeline, err = s.returnTimeline(ctx, ret.ID)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *OrderStore) returnForOrder(ctx context.Context, orderID uuid.UUID) (*Return, error) {
	ret, err := s.scanReturn(s.pool.QueryRow(ctx, selectReturn+` WHERE order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	ret.Timeline, err = s.returnTimeline(ctx, ret.ID)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

const selectReturn = `
	SELECT id, order_id, customer_id, reason, status, refund_cents, requested_at
	FROM returns
`

func (s *OrderStore) scanReturn(row pgx.Row) (*Return, error) {
	var (
		ret         Return
		status      string
		requestedAt pgtype.Timestamptz
	)
	err := row.Scan(&ret.ID, &ret.OrderID, &ret.CustomerID, &ret.Reason, &status, &ret.RefundCents, &requestedAt)
	if err != nil {
		return nil, err
	}

	ret.Status = ReturnStatus(status)
	ret.RequestedAt = requestedAt.Time
	return &ret, nil
}

func (s *OrderStore) returnTimeline(ctx context.Context, returnID uuid.UUID) ([]ReturnTimelineEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, created_at FROM return_timeline WHERE return_id = $1 ORDER BY id
	`, returnID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReturnTimelineEntry, error) {
		var (
			entry     ReturnTimelineEntry
			status    string
			createdAt pgtype.Timestamptz
		)
		if err := row.Scan(&status, &createdAt); err != nil {
			return entry, err
		}
		entry.Status = ReturnStatus(status)
		entry.CreatedAt = createdAt.Time
		return entry, nil
	})
}

func (s *OrderStore) returnGuardMiss(ctx context.Context, tx pgx.Tx, returnID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM returns WHERE id = $1)`, returnID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return lifecycle.ErrNotFound
	}
	return lifecycle.ErrConcurrentModification
}
