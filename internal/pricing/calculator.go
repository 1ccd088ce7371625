// Package pricing implements the server-side order price calculation.
// All amounts flowing out of this package are rounded to cents exactly
// once; intermediate maths runs on unrounded values.
package pricing

import (
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/money"
)

// Pricing policy constants.
const (
	// FreeShippingThreshold is the discounted items price above which
	// shipping is free. The threshold is strict: an exactly-100 cart
	// still pays shipping.
	FreeShippingThreshold = 100.0

	// FlatShippingRate applies to orders at or below the threshold.
	FlatShippingRate = 10.0

	// TaxRate applies to the discounted items price. Shipping is not
	// taxed.
	TaxRate = 0.15
)

// Breakdown is the authoritative set of prices for an order.
type Breakdown struct {
	ItemsPrice           float64 `json:"itemsPrice"`
	DiscountAmount       float64 `json:"discountAmount"`
	DiscountedItemsPrice float64 `json:"discountedItemsPrice"`
	ShippingPrice        float64 `json:"shippingPrice"`
	TaxPrice             float64 `json:"taxPrice"`
	TotalPrice           float64 `json:"totalPrice"`
}

// Calculate derives the full price breakdown for a set of order lines
// and an optional coupon. The coupon is assumed to have already passed
// validation; Calculate only applies its arithmetic.
func Calculate(items []model.OrderItem, coupon *model.Coupon) Breakdown {
	var itemsPrice float64
	for i := range items {
		itemsPrice += items[i].LineTotal()
	}
	itemsPrice = money.Round2(itemsPrice)

	var discount float64
	if coupon != nil {
		discount = DiscountFor(coupon, itemsPrice)
	}

	discounted := money.Round2(itemsPrice - discount)

	shipping := FlatShippingRate
	if discounted > FreeShippingThreshold {
		shipping = 0
	}

	tax := money.Round2(TaxRate * discounted)

	return Breakdown{
		ItemsPrice:           itemsPrice,
		DiscountAmount:       discount,
		DiscountedItemsPrice: discounted,
		ShippingPrice:        shipping,
		TaxPrice:             tax,
		TotalPrice:           money.Round2(discounted + shipping + tax),
	}
}

// DiscountFor returns the rounded discount a coupon grants on the given
// items total. Percentage coupons scale with the total; fixed-amount
// coupons are capped at the total so the discount can never push the
// order negative.
func DiscountFor(coupon *model.Coupon, itemsPrice float64) float64 {
	var discount float64
	switch coupon.DiscountType {
	case model.DiscountPercentage:
		discount = itemsPrice * coupon.DiscountValue / 100
	case model.DiscountFixedAmount:
		discount = coupon.DiscountValue
		if discount > itemsPrice {
			discount = itemsPrice
		}
	}
	return money.Round2(discount)
}
