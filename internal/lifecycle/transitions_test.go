package lifecycle

import (
	"errors"
	"testing"

	"github.com/luxeshopapp/luxeshop/internal/models"
)

func TestValidateOrderTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current models.OrderStatus
		target  models.OrderStatus
		wantErr bool
	}{
		{name: "placed to processing", current: models.StatusPlaced, target: models.StatusProcessing},
		{name: "placed to cancelled", current: models.StatusPlaced, target: models.StatusCancelled},
		{name: "processing to packed", current: models.StatusProcessing, target: models.StatusPacked},
		{name: "processing to cancelled", current: models.StatusProcessing, target: models.StatusCancelled},
		{name: "packed to shipped", current: models.StatusPacked, target: models.StatusShipped},
		{name: "shipped to out for delivery", current: models.StatusShipped, target: models.StatusOutForDelivery},
		{name: "out for delivery to delivered", current: models.StatusOutForDelivery, target: models.StatusDelivered},
		{name: "no skipping packed", current: models.StatusProcessing, target: models.StatusShipped, wantErr: true},
		{name: "no multi-step jump", current: models.StatusPlaced, target: models.StatusShipped, wantErr: true},
		{name: "no reversal", current: models.StatusShipped, target: models.StatusPacked, wantErr: true},
		{name: "packed not cancellable", current: models.StatusPacked, target: models.StatusCancelled, wantErr: true},
		{name: "delivered is terminal", current: models.StatusDelivered, target: models.StatusProcessing, wantErr: true},
		{name: "cancelled is terminal", current: models.StatusCancelled, target: models.StatusProcessing, wantErr: true},
		{name: "self transition illegal", current: models.StatusPlaced, target: models.StatusPlaced, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateOrderTransition(tc.current, tc.target)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("ValidateOrderTransition(%s, %s) = %v, want ErrInvalidTransition", tc.current, tc.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateOrderTransition(%s, %s) = %v, want nil", tc.current, tc.target, err)
			}
		})
	}
}

func TestValidateShippingTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current models.ShippingStage
		target  models.ShippingStage
		wantErr bool
	}{
		{name: "picked up to in transit", current: models.StagePickedUp, target: models.StageInTransit},
		{name: "in transit to out for delivery", current: models.StageInTransit, target: models.StageOutForDelivery},
		{name: "out for delivery to delivered", current: models.StageOutForDelivery, target: models.StageDelivered},
		{name: "no skipping", current: models.StagePickedUp, target: models.StageOutForDelivery, wantErr: true},
		{name: "no reverse", current: models.StageInTransit, target: models.StagePickedUp, wantErr: true},
		{name: "delivered is terminal", current: models.StageDelivered, target: models.StageInTransit, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateShippingTransition(tc.current, tc.target)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidStageTransition) {
					t.Fatalf("ValidateShippingTransition(%s, %s) = %v, want ErrInvalidStageTransition", tc.current, tc.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateShippingTransition(%s, %s) = %v, want nil", tc.current, tc.target, err)
			}
		})
	}
}

func TestValidateReturnTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current models.ReturnStatus
		target  models.ReturnStatus
		wantErr bool
	}{
		{name: "requested to approved", current: models.ReturnRequested, target: models.ReturnApproved},
		{name: "requested to rejected", current: models.ReturnRequested, target: models.ReturnRejected},
		{name: "approved to pickup scheduled", current: models.ReturnApproved, target: models.ReturnPickupScheduled},
		{name: "pickup scheduled to returned", current: models.ReturnPickupScheduled, target: models.ReturnReturned},
		{name: "returned to refund processed", current: models.ReturnReturned, target: models.ReturnRefundProcessed},
		{name: "approved cannot jump to returned", current: models.ReturnApproved, target: models.ReturnReturned, wantErr: true},
		{name: "rejected is terminal", current: models.ReturnRejected, target: models.ReturnApproved, wantErr: true},
		{name: "refund processed is terminal", current: models.ReturnRefundProcessed, target: models.ReturnReturned, wantErr: true},
		{name: "cannot reject after approval", current: models.ReturnApproved, target: models.ReturnRejected, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateReturnTransition(tc.current, tc.target)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidReturnTransition) {
					t.Fatalf("ValidateReturnTransition(%s, %s) = %v, want ErrInvalidReturnTransition", tc.current, tc.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateReturnTransition(%s, %s) = %v, want nil", tc.current, tc.target, err)
			}
		})
	}
}

func TestNextOrderStatuses(t *testing.T) {
	t.Parallel()

	got := NextOrderStatuses(models.StatusPlaced)
	if len(got) != 2 {
		t.Fatalf("NextOrderStatuses(placed) = %v, want two successors", got)
	}
	if got[0] != models.StatusProcessing || got[1] != models.StatusCancelled {
		t.Fatalf("NextOrderStatuses(placed) = %v, want [processing cancelled]", got)
	}

	if next := NextOrderStatuses(models.StatusDelivered); len(next) != 0 {
		t.Fatalf("NextOrderStatuses(delivered) = %v, want empty", next)
	}
	if next := NextOrderStatuses(models.StatusCancelled); len(next) != 0 {
		t.Fatalf("NextOrderStatuses(cancelled) = %v, want empty", next)
	}
}

func TestPropagatedOrderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage models.ShippingStage
		want  models.OrderStatus
		ok    bool
	}{
		{stage: models.StageOutForDelivery, want: models.StatusOutForDelivery, ok: true},
		{stage: models.StageDelivered, want: models.StatusDelivered, ok: true},
		{stage: models.StageInTransit, ok: false},
		{stage: models.StagePickedUp, ok: false},
	}

	for _, tc := range tests {
		got, ok := PropagatedOrderStatus(tc.stage)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("PropagatedOrderStatus(%s) = (%s, %v), want (%s, %v)", tc.stage, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsCancellable(t *testing.T) {
	t.Parallel()

	cancellable := []models.OrderStatus{models.StatusPlaced, models.StatusProcessing}
	for _, status := range cancellable {
		if !IsCancellable(&models.Order{Status: status}) {
			t.Fatalf("IsCancellable(%s) = false, want true", status)
		}
	}

	notCancellable := []models.OrderStatus{
		models.StatusPacked, models.StatusShipped, models.StatusOutForDelivery,
		models.StatusDelivered, models.StatusCancelled,
	}
	for _, status := range notCancellable {
		if IsCancellable(&models.Order{Status: status}) {
			t.Fatalf("IsCancellable(%s) = true, want false", status)
		}
	}

	if IsCancellable(nil) {
		t.Fatal("IsCancellable(nil) = true, want false")
	}
}

func TestIsReturnEligible(t *testing.T) {
	t.Parallel()

	delivered := &models.Order{Status: models.StatusDelivered}
	if !IsReturnEligible(delivered) {
		t.Fatal("delivered order without return should be eligible")
	}

	withReturn := &models.Order{Status: models.StatusDelivered, Return: &models.Return{Status: models.ReturnRequested}}
	if IsReturnEligible(withReturn) {
		t.Fatal("order with existing return should not be eligible")
	}

	if IsReturnEligible(&models.Order{Status: models.StatusShipped}) {
		t.Fatal("undelivered order should not be eligible")
	}
}

func TestCanAssignShipping(t *testing.T) {
	t.Parallel()

	if !CanAssignShipping(models.StatusProcessing) || !CanAssignShipping(models.StatusPacked) {
		t.Fatal("processing and packed orders should accept shipping assignment")
	}
	for _, status := range []models.OrderStatus{models.StatusPlaced, models.StatusShipped, models.StatusDelivered, models.StatusCancelled} {
		if CanAssignShipping(status) {
			t.Fatalf("CanAssignShipping(%s) = true, want false", status)
		}
	}
}
