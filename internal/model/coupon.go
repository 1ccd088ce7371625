package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Discount types supported by coupons.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// Coupon represents a discount code with its validity window and usage
// accounting. TimesUsed counts successful redemptions across all users.
type Coupon struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	Code                  string    `json:"code" db:"code"`
	Description           string    `json:"description" db:"description"`
	DiscountType          string    `json:"discountType" db:"discount_type"`
	DiscountValue         float64   `json:"discountValue" db:"discount_value"`
	MinimumPurchaseAmount float64   `json:"minimumPurchaseAmount" db:"minimum_purchase_amount"`
	IsActive              bool      `json:"isActive" db:"is_active"`
	ValidFrom             time.Time `json:"validFrom" db:"valid_from"`
	ValidUntil            time.Time `json:"validUntil" db:"valid_until"`
	UsageLimitPerCoupon   *int      `json:"usageLimitPerCoupon,omitempty" db:"usage_limit_per_coupon"`
	UsageLimitPerUser     *int      `json:"usageLimitPerUser,omitempty" db:"usage_limit_per_user"`
	TimesUsed             int       `json:"timesUsed" db:"times_used"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeCouponCode canonicalises a coupon code for lookup: codes are
// stored and compared upper-case with surrounding whitespace removed.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyCouponRequest is the payload for a dry-run coupon validation
// against the current cart total.
type ApplyCouponRequest struct {
	Code      string  `json:"code"`
	CartTotal float64 `json:"cartTotal"`
}

// ApplyCouponResponse reports the discount a valid coupon would grant.
type ApplyCouponResponse struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discountType"`
	DiscountValue  float64 `json:"discountValue"`
	DiscountAmount float64 `json:"discountAmount"`
	Message        string  `json:"message"`
}

// CreateCouponRequest is the admin payload for creating a coupon.
type CreateCouponRequest struct {
	Code                  string    `json:"code"`
	Description           string    `json:"description"`
	DiscountType          string    `json:"discountType"`
	DiscountValue         float64   `json:"discountValue"`
	MinimumPurchaseAmount float64   `json:"minimumPurchaseAmount"`
	IsActive              *bool     `json:"isActive,omitempty"`
	ValidFrom             time.Time `json:"validFrom"`
	ValidUntil            time.Time `json:"validUntil"`
	UsageLimitPerCoupon   *int      `json:"usageLimitPerCoupon,omitempty"`
	UsageLimitPerUser     *int      `json:"usageLimitPerUser,omitempty"`
}
