package coupon

import (
	"context"
	"fmt"
	"time"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// validator implements Validator against coupon records.
type validator struct {
	usage  UsageCounter
	logger zerolog.Logger
}

// NewValidator creates a new coupon validator.
func NewValidator(usage UsageCounter, logger zerolog.Logger) Validator {
	return &validator{
		usage:  usage,
		logger: logger.With().Str("component", "coupon-validator").Logger(),
	}
}

// Validate applies the eligibility rules in a fixed order so clients
// always see the most fundamental failure first: existence, active
// flag, validity window, global usage cap, minimum purchase, per-user
// cap.
func (v *validator) Validate(ctx context.Context, c *model.Coupon, userID *uuid.UUID, cartTotal float64) error {
	if c == nil {
		return model.ErrCouponNotFound
	}

	log := v.logger.With().Str("coupon_code", c.Code).Logger()

	if !c.IsActive {
		log.Debug().Msg("coupon is inactive")
		return model.ErrCouponInactive
	}

	now := time.Now()
	if now.Before(c.ValidFrom) {
		log.Debug().Time("valid_from", c.ValidFrom).Msg("coupon not yet valid")
		return model.ErrCouponNotYetValid
	}
	if now.After(c.ValidUntil) {
		log.Debug().Time("valid_until", c.ValidUntil).Msg("coupon expired")
		return model.ErrCouponExpired
	}

	if c.UsageLimitPerCoupon != nil && c.TimesUsed >= *c.UsageLimitPerCoupon {
		log.Debug().
			Int("times_used", c.TimesUsed).
			Int("usage_limit", *c.UsageLimitPerCoupon).
			Msg("coupon usage limit reached")
		return model.ErrCouponUsageLimit
	}

	if cartTotal < c.MinimumPurchaseAmount {
		log.Debug().
			Float64("cart_total", cartTotal).
			Float64("minimum", c.MinimumPurchaseAmount).
			Msg("cart below coupon minimum")
		return model.ErrCouponMinPurchase
	}

	if c.UsageLimitPerUser != nil && userID != nil {
		used, err := v.usage.CountPaidOrdersWithCoupon(ctx, *userID, c.Code)
		if err != nil {
			return fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if used >= *c.UsageLimitPerUser {
			log.Debug().
				Str("user_id", userID.String()).
				Int("used", used).
				Int("user_limit", *c.UsageLimitPerUser).
				Msg("per-user coupon limit reached")
			return model.ErrCouponUserLimit
		}
	}

	return nil
}
