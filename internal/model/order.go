package model

import (
	"time"

	"github.com/google/uuid"
)

// Customization captures a buyer-supplied product customisation and the
// surcharge it adds to the unit price.
type Customization struct {
	Description string  `json:"description"`
	ExtraCost   float64 `json:"extraCost"`
}

// AppliedCoupon is a point-in-time snapshot of a coupon at order
// placement. Later edits to the coupon record never change what the
// order recorded.
type AppliedCoupon struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discountType"`
	DiscountValue  float64 `json:"discountValue"`
	DiscountAmount float64 `json:"discountAmount"`
}

// Order represents a customer order with its server-computed pricing.
type Order struct {
	ID                   uuid.UUID      `json:"id" db:"id"`
	UserID               *uuid.UUID     `json:"userId,omitempty" db:"user_id"`
	Items                []OrderItem    `json:"items" db:"-"`
	PaymentMethod        string         `json:"paymentMethod" db:"payment_method"`
	ItemsPrice           float64        `json:"itemsPrice" db:"items_price"`
	DiscountAmount       float64        `json:"discountAmount" db:"discount_amount"`
	DiscountedItemsPrice float64        `json:"discountedItemsPrice" db:"discounted_items_price"`
	ShippingPrice        float64        `json:"shippingPrice" db:"shipping_price"`
	TaxPrice             float64        `json:"taxPrice" db:"tax_price"`
	TotalPrice           float64        `json:"totalPrice" db:"total_price"`
	AppliedCoupon        *AppliedCoupon `json:"appliedCoupon,omitempty" db:"applied_coupon"`
	IsPaid               bool           `json:"isPaid" db:"is_paid"`
	PaidAt               *time.Time     `json:"paidAt,omitempty" db:"paid_at"`
	PaymentRef           *string        `json:"paymentRef,omitempty" db:"payment_ref"`
	IsDelivered          bool           `json:"isDelivered" db:"is_delivered"`
	DeliveredAt          *time.Time     `json:"deliveredAt,omitempty" db:"delivered_at"`
	RefundAmount         float64        `json:"refundAmount" db:"refund_amount"`
	RefundProcessed      bool           `json:"refundProcessed" db:"refund_processed"`
	IsRefunded           bool           `json:"isRefunded" db:"is_refunded"`
	CreatedAt            time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time      `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. UnitPrice is the
// catalogue price captured at placement; customisation surcharges are
// recorded separately so refunds can reconstruct the paid amount.
type OrderItem struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	OrderID       uuid.UUID      `json:"-" db:"order_id"`
	ProductID     string         `json:"productId" db:"product_id"`
	Name          string         `json:"name" db:"name"`
	UnitPrice     float64        `json:"unitPrice" db:"unit_price"`
	Quantity      int            `json:"quantity" db:"quantity"`
	SelectedSize  *string        `json:"selectedSize,omitempty" db:"selected_size"`
	Customization *Customization `json:"customization,omitempty" db:"customization"`
}

// LineTotal returns the item subtotal. The customisation surcharge is
// charged once per line, not per unit.
func (i *OrderItem) LineTotal() float64 {
	total := i.UnitPrice * float64(i.Quantity)
	if i.Customization != nil {
		total += i.Customization.ExtraCost
	}
	return total
}

// CheckoutRequest is the client payload for placing an order. The price
// fields are the client's own calculation and are verified, never
// trusted.
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items"`
	PaymentMethod  string         `json:"paymentMethod"`
	CouponCode     *string        `json:"couponCode,omitempty"`
	ItemsPrice     float64        `json:"itemsPrice"`
	DiscountAmount float64        `json:"discountAmount"`
	ShippingPrice  float64        `json:"shippingPrice"`
	TaxPrice       float64        `json:"taxPrice"`
	TotalPrice     float64        `json:"totalPrice"`
}

// CheckoutItem is a single cart line in a checkout request. Client
// prices on items are ignored; the catalogue is authoritative.
type CheckoutItem struct {
	ProductID     string         `json:"productId"`
	Quantity      int            `json:"quantity"`
	SelectedSize  *string        `json:"selectedSize,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
}
