// Package notify emits entity-change events so subscribed viewers (customer
// order lists, admin dashboards) can refresh without polling.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Event describes a committed change to a single row, scoped by table.
type Event struct {
	Table    string    `json:"table"`
	EntityID string    `json:"entity_id"`
	Op       string    `json:"op"`
	At       time.Time `json:"at"`
}

// Table names used in change events.
const (
	TableOrders   = "orders"
	TableShipping = "shipping"
	TableReturns  = "returns"
	TableProducts = "products"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Notifier publishes change events and hands out subscriptions.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a channel of events and a cancel function that
	// releases the subscription. Slow consumers may miss events; the
	// channel closes when the notifier shuts down.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewNotifier(cfg Config) (Notifier, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryNotifier(), nil
	case "redis":
		return NewRedisNotifier(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported notify provider: %s", cfg.Provider)
	}
}
