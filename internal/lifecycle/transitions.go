// Package lifecycle defines the order, shipping, and return state machines.
//
// Each status family has a static legal-successor table. Callers validate a
// requested transition against the state they read, then apply it through a
// store that re-checks the expected state (see internal/db). The engine holds
// no state of its own.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/luxeshopapp/luxeshop/internal/models"
)

var (
	ErrInvalidTransition       = errors.New("invalid order status transition")
	ErrInvalidStageTransition  = errors.New("invalid shipping stage transition")
	ErrInvalidReturnTransition = errors.New("invalid return status transition")
	ErrAlreadyAssigned         = errors.New("shipping already assigned")
	ErrReturnNotEligible       = errors.New("order not eligible for return")
	ErrNotFound                = errors.New("not found")
	ErrConcurrentModification  = errors.New("entity changed since it was read")
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPlaced:         {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing:     {models.StatusPacked, models.StatusCancelled},
	models.StatusPacked:         {models.StatusShipped},
	models.StatusShipped:        {models.StatusOutForDelivery},
	models.StatusOutForDelivery: {models.StatusDelivered},
	models.StatusDelivered:      {},
	models.StatusCancelled:      {},
}

var shippingTransitions = map[models.ShippingStage][]models.ShippingStage{
	models.StagePickedUp:       {models.StageInTransit},
	models.StageInTransit:      {models.StageOutForDelivery},
	models.StageOutForDelivery: {models.StageDelivered},
	models.StageDelivered:      {},
}

var returnTransitions = map[models.ReturnStatus][]models.ReturnStatus{
	models.ReturnRequested:       {models.ReturnApproved, models.ReturnRejected},
	models.ReturnApproved:        {models.ReturnPickupScheduled},
	models.ReturnPickupScheduled: {models.ReturnReturned},
	models.ReturnReturned:        {models.ReturnRefundProcessed},
	models.ReturnRejected:        {},
	models.ReturnRefundProcessed: {},
}

// NextOrderStatuses returns the legal successor statuses for the given
// current order status. The returned slice must not be mutated.
func NextOrderStatuses(current models.OrderStatus) []models.OrderStatus {
	return orderTransitions[current]
}

func NextShippingStages(current models.ShippingStage) []models.ShippingStage {
	return shippingTransitions[current]
}

func NextReturnStatuses(current models.ReturnStatus) []models.ReturnStatus {
	return returnTransitions[current]
}

// ValidateOrderTransition reports whether current -> target is a legal order
// transition. Multi-step jumps are illegal even when the end state would
// otherwise be reachable.
func ValidateOrderTransition(current, target models.OrderStatus) error {
	for _, allowed := range orderTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

func ValidateShippingTransition(current, target models.ShippingStage) error {
	for _, allowed := range shippingTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStageTransition, current, target)
}

func ValidateReturnTransition(current, target models.ReturnStatus) error {
	for _, allowed := range returnTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidReturnTransition, current, target)
}

// IsTerminalOrderStatus reports whether the status has no legal successors.
func IsTerminalOrderStatus(status models.OrderStatus) bool {
	return len(orderTransitions[status]) == 0
}

func IsTerminalReturnStatus(status models.ReturnStatus) bool {
	return len(returnTransitions[status]) == 0
}

// PropagatedOrderStatus returns the order status a shipping stage mirrors
// into, if any. Intermediate stages leave the order status untouched.
func PropagatedOrderStatus(stage models.ShippingStage) (models.OrderStatus, bool) {
	switch stage {
	case models.StageOutForDelivery:
		return models.StatusOutForDelivery, true
	case models.StageDelivered:
		return models.StatusDelivered, true
	default:
		return "", false
	}
}

// CanAssignShipping reports whether a shipping record may be created for an
// order in the given status. Assignment itself forces the order to shipped.
func CanAssignShipping(status models.OrderStatus) bool {
	return status == models.StatusProcessing || status == models.StatusPacked
}

// IsCancellable reports whether the customer may still cancel the order.
func IsCancellable(order *models.Order) bool {
	if order == nil {
		return false
	}
	return order.Status == models.StatusPlaced || order.Status == models.StatusProcessing
}

// IsReturnEligible reports whether a return may be requested: the order must
// be delivered and must not already carry a return.
func IsReturnEligible(order *models.Order) bool {
	if order == nil {
		return false
	}
	return order.Status == models.StatusDelivered && order.Return == nil
}
