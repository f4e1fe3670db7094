// Package payments provides refund issuance against Stripe.
package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// RefundClient issues refunds for processed returns. A nil *RefundClient is
// valid and reports itself as disabled, so callers without a configured
// Stripe key skip the refund call.
type RefundClient struct {
	client *stripe.Client
}

// NewRefundClient creates a refund client. Returns nil when no secret key is
// configured.
func NewRefundClient(secretKey string) *RefundClient {
	if secretKey == "" {
		return nil
	}
	return &RefundClient{client: stripe.NewClient(secretKey)}
}

func (c *RefundClient) Enabled() bool {
	return c != nil && c.client != nil
}

// Refund refunds the given amount against the payment reference captured at
// checkout.
func (c *RefundClient) Refund(ctx context.Context, paymentRef string, amountCents int) (*stripe.Refund, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if !c.Enabled() {
		return nil, fmt.Errorf("stripe is not configured")
	}
	if paymentRef == "" {
		return nil, fmt.Errorf("payment reference is required")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("refund amount must be positive")
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(int64(amountCents)),
	}

	refund, err := c.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return refund, nil
}
