// Package payment abstracts the upstream payment provider used to
// settle refunds. The engine only needs to push money back; charging
// happens in the storefront's separate payment flow.
package payment

import "context"

// RefundRequest describes a settlement to execute with the provider.
type RefundRequest struct {
	OrderID      string
	ReturnNumber string
	Amount       float64
	Method       string
	Reference    *string
}

// RefundResult is the provider's settlement confirmation.
type RefundResult struct {
	TransactionID string
	Status        string
}

// Refunder executes refunds against the payment provider.
type Refunder interface {
	// Refund pushes the given amount back to the customer. A non-nil
	// error means no money moved and the caller must not record the
	// refund.
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
