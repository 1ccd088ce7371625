package service

import (
	"context"
	"fmt"
	"time"

	"atelier-commerce/internal/coupon"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/pricing"
	"atelier-commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	validator  coupon.Validator
	metrics    *metrics.CommerceMetrics
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	validator coupon.Validator,
	m *metrics.CommerceMetrics,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		validator:  validator,
		metrics:    m,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// Apply validates a coupon against a cart total without redeeming it.
// Redemption only happens at checkout, in the order transaction.
func (s *couponService) Apply(ctx context.Context, userID *uuid.UUID, req *model.ApplyCouponRequest) (*model.ApplyCouponResponse, error) {
	if req == nil || req.Code == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Coupon code is required")
	}
	if req.CartTotal < 0 {
		return nil, model.NewDomainError(model.ErrCodeInvalidAmount, "Cart total cannot be negative")
	}

	code := model.NormalizeCouponCode(req.Code)

	c, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if err := s.validator.Validate(ctx, c, userID, req.CartTotal); err != nil {
		s.logger.Debug().Str("coupon_code", code).Err(err).Msg("coupon rejected")
		s.metrics.RecordCouponRejected(errorCode(err))
		return nil, err
	}

	discount := pricing.DiscountFor(c, req.CartTotal)

	s.logger.Info().
		Str("coupon_code", code).
		Float64("cart_total", req.CartTotal).
		Float64("discount", discount).
		Msg("coupon validated")

	return &model.ApplyCouponResponse{
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: discount,
		Message:        "Coupon applied successfully",
	}, nil
}

// Create registers a new coupon.
func (s *couponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if err := validateCreateCouponRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &model.Coupon{
		ID:                    uuid.New(),
		Code:                  model.NormalizeCouponCode(req.Code),
		Description:           req.Description,
		DiscountType:          req.DiscountType,
		DiscountValue:         req.DiscountValue,
		MinimumPurchaseAmount: req.MinimumPurchaseAmount,
		IsActive:              true,
		ValidFrom:             req.ValidFrom,
		ValidUntil:            req.ValidUntil,
		UsageLimitPerCoupon:   req.UsageLimitPerCoupon,
		UsageLimitPerUser:     req.UsageLimitPerUser,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.couponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("coupon_code", c.Code).
		Str("discount_type", c.DiscountType).
		Float64("discount_value", c.DiscountValue).
		Msg("coupon created")

	return c, nil
}

func validateCreateCouponRequest(req *model.CreateCouponRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Coupon request is required")
	}
	if model.NormalizeCouponCode(req.Code) == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Coupon code is required")
	}
	if req.DiscountType != model.DiscountPercentage && req.DiscountType != model.DiscountFixedAmount {
		return model.NewDomainError(model.ErrCodeMissingField, "Discount type must be percentage or fixed_amount")
	}
	if req.DiscountValue <= 0 {
		return model.NewDomainError(model.ErrCodeInvalidAmount, "Discount value must be greater than zero")
	}
	if req.DiscountType == model.DiscountPercentage && req.DiscountValue > 100 {
		return model.NewDomainError(model.ErrCodeInvalidAmount, "Percentage discount cannot exceed 100")
	}
	if req.MinimumPurchaseAmount < 0 {
		return model.NewDomainError(model.ErrCodeInvalidAmount, "Minimum purchase amount cannot be negative")
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return model.NewDomainError(model.ErrCodeInvalidAmount, "Coupon expiry must be after its start date")
	}
	return nil
}
