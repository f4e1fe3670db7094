// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// OrderInfo contains all the information needed for lifecycle email templates.
type OrderInfo struct {
	OrderNumber       string
	CustomerEmail     string
	StoreName         string
	OrderDate         string
	Items             []OrderItem
	Total             string
	ShippingAddress   string
	Courier           string
	TrackingID        string
	EstimatedDelivery string
	RefundAmount      string
}

// OrderItem represents a single line in an order email.
type OrderItem struct {
	Name       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

// FormatCents renders an integer cent amount as a dollar string.
func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

type emailTemplate struct {
	subject string
	html    string
	text    string
}

var lifecycleTemplates = map[string]emailTemplate{
	"order_confirmation": {
		subject: "Order Confirmed - %s - %s",
		html:    orderConfirmationHTML,
		text:    orderConfirmationText,
	},
	"order_shipped": {
		subject: "Your Order Has Shipped - %s - %s",
		html:    orderShippedHTML,
		text:    orderShippedText,
	},
	"order_delivered": {
		subject: "Your Order Has Been Delivered - %s",
		html:    orderDeliveredHTML,
		text:    orderDeliveredText,
	},
	"refund_processed": {
		subject: "Your Refund Has Been Processed - %s",
		html:    refundProcessedHTML,
		text:    refundProcessedText,
	},
}

// Renderer provides methods to render email templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new email template renderer with built-in templates.
func NewRenderer() (*Renderer, error) {
	tmpl := template.New("email")

	for key, t := range lifecycleTemplates {
		if _, err := tmpl.New(key + "_html").Parse(t.html); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		if _, err := tmpl.New(key + "_text").Parse(t.text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{templates: tmpl}, nil
}

// Render renders an email template with the given data.
func (r *Renderer) Render(ctx context.Context, templateName string, data *OrderInfo) (*Email, error) {
	def, ok := lifecycleTemplates[templateName]
	if !ok {
		return nil, fmt.Errorf("unknown email template: %s", templateName)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	subject := fmt.Sprintf(def.subject, data.OrderNumber)
	switch templateName {
	case "order_confirmation", "order_shipped":
		subject = fmt.Sprintf(def.subject, data.OrderNumber, data.StoreName)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

func send(ctx context.Context, p Provider, templateName string, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, templateName, orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

// SendOrderConfirmation sends an order confirmation email.
func SendOrderConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "order_confirmation", orderInfo)
}

// SendOrderShipped sends an order shipped email.
func SendOrderShipped(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "order_shipped", orderInfo)
}

// SendOrderDelivered sends an order delivered email.
func SendOrderDelivered(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "order_delivered", orderInfo)
}

// SendRefundProcessed sends a refund processed email.
func SendRefundProcessed(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "refund_processed", orderInfo)
}

// Template text content - Order Confirmation
const orderConfirmationText = `Thank you for your order!

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}

Items:
{{range .Items}}
- {{.Name}} x{{.Quantity}} - {{.TotalPrice}}
{{end}}

Total: {{.Total}}

Shipping to:
{{.ShippingAddress}}

We'll send you another email when your order ships.

Thank you for shopping with {{.StoreName}}!
`

// Template HTML content - Order Confirmation
const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Confirmation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #111827; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .order-info { background: white; padding: 15px; border-radius: 6px; margin: 15px 0; }
    .items-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items-table th { text-align: left; padding: 10px; background: #f3f4f6; border-bottom: 2px solid #e5e7eb; }
    .items-table td { padding: 10px; border-bottom: 1px solid #e5e7eb; }
    .total { font-size: 18px; font-weight: bold; text-align: right; padding: 15px 0; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Order Confirmed!</h1>
    <p>Thank you for your order</p>
  </div>
  <div class="content">
    <div class="order-info">
      <strong>Order Number:</strong> {{.OrderNumber}}<br>
      <strong>Order Date:</strong> {{.OrderDate}}
    </div>

    <h3>Order Summary</h3>
    <table class="items-table">
      <thead>
        <tr>
          <th>Item</th>
          <th>Qty</th>
          <th>Price</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{.Quantity}}</td>
          <td>{{.TotalPrice}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <p>Total: {{.Total}}</p>
    </div>

    <h3>Shipping Address</h3>
    <p>{{.ShippingAddress}}</p>

    <p>We'll send you another email when your order ships.</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with {{.StoreName}}</p>
  </div>
</body>
</html>
`

// Template text content - Order Shipped
const orderShippedText = `Great news! Your order has shipped!

Order Number: {{.OrderNumber}}

Courier: {{.Courier}}
Tracking ID: {{.TrackingID}}
{{if .EstimatedDelivery}}Estimated Delivery: {{.EstimatedDelivery}}{{end}}

Shipping Address:
{{.ShippingAddress}}

We'll let you know when your package is delivered!

Thank you for shopping with {{.StoreName}}!
`

// Template HTML content - Order Shipped
const orderShippedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Shipped</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #059669; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .tracking { background: white; padding: 20px; border-radius: 6px; margin: 15px 0; border-left: 4px solid #059669; }
    .tracking-number { font-size: 24px; font-weight: bold; color: #059669; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Order Has Shipped!</h1>
    <p>Your order is on its way.</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>

    <div class="tracking">
      <p><strong>Courier:</strong> {{.Courier}}</p>
      <p class="tracking-number">{{.TrackingID}}</p>
      {{if .EstimatedDelivery}}<p><strong>Estimated Delivery:</strong> {{.EstimatedDelivery}}</p>{{end}}
    </div>

    <h3>Shipping Address</h3>
    <p>{{.ShippingAddress}}</p>

    <p>We'll let you know when your package is delivered!</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with {{.StoreName}}</p>
  </div>
</body>
</html>
`

// Template text content - Order Delivered
const orderDeliveredText = `Your order has been delivered!

Order Number: {{.OrderNumber}}

Your package should have arrived at:
{{.ShippingAddress}}

We hope you enjoy your purchase! If you have any questions or concerns, please don't hesitate to reach out.

Thank you for shopping with {{.StoreName}}!
`

// Template HTML content - Order Delivered
const orderDeliveredHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Delivered</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #7c3aed; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .delivered-badge { background: #7c3aed; color: white; padding: 20px; text-align: center; border-radius: 8px; margin: 15px 0; font-size: 48px; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Order Has Been Delivered!</h1>
    <p>Your package has arrived!</p>
  </div>
  <div class="content">
    <div class="delivered-badge">&#10003;</div>
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>

    <h3>Delivered To</h3>
    <p>{{.ShippingAddress}}</p>

    <p>We hope you enjoy your purchase! If you have any questions or concerns about your order, please don't hesitate to reach out.</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with {{.StoreName}}</p>
  </div>
</body>
</html>
`

// Template text content - Refund Processed
const refundProcessedText = `Your refund has been processed.

Order Number: {{.OrderNumber}}
Refund Amount: {{.RefundAmount}}

The refund was issued to your original payment method. Depending on your
bank it can take a few business days to appear.

Thank you for shopping with {{.StoreName}}!
`

// Template HTML content - Refund Processed
const refundProcessedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Refund Processed</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .refund-amount { font-size: 24px; font-weight: bold; color: #2563eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Refund Has Been Processed</h1>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
    <p class="refund-amount">{{.RefundAmount}}</p>

    <p>The refund was issued to your original payment method. Depending on your bank it can take a few business days to appear.</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with {{.StoreName}}</p>
  </div>
</body>
</html>
`
