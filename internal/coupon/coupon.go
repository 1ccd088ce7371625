package coupon

import (
	"context"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
)

// Validator defines the interface for coupon eligibility checks.
type Validator interface {
	// Validate checks whether a coupon may be redeemed by the given
	// user against the given cart total. A nil userID means the
	// caller is anonymous and per-user limits cannot apply.
	// It returns a specific domain error naming the first rule that
	// fails, or nil when the coupon is redeemable.
	Validate(ctx context.Context, c *model.Coupon, userID *uuid.UUID, cartTotal float64) error
}

// UsageCounter reports historical coupon usage. Only paid orders count
// as redemptions; abandoned checkouts do not consume a user's quota.
type UsageCounter interface {
	CountPaidOrdersWithCoupon(ctx context.Context, userID uuid.UUID, code string) (int, error)
}
