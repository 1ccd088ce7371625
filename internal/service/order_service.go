package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atelier-commerce/internal/coupon"
	"atelier-commerce/internal/event"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/money"
	"atelier-commerce/internal/pricing"
	"atelier-commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	validator   coupon.Validator
	publisher   event.Publisher
	metrics     *metrics.CommerceMetrics
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	validator coupon.Validator,
	publisher event.Publisher,
	m *metrics.CommerceMetrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		validator:   validator,
		publisher:   publisher,
		metrics:     m,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Checkout verifies the client's price calculation against the
// catalogue, redeems any coupon and persists the order. The client's
// prices are never stored; the order carries the server's breakdown.
func (s *orderService) Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.Order, error) {
	if err := s.validateCheckoutRequest(req); err != nil {
		s.metrics.RecordOrderRejected(errorCode(err))
		return nil, err
	}

	items, err := s.buildOrderItems(ctx, req.Items)
	if err != nil {
		s.metrics.RecordOrderRejected(errorCode(err))
		return nil, err
	}

	var itemsPrice float64
	for i := range items {
		itemsPrice += items[i].LineTotal()
	}
	itemsPrice = money.Round2(itemsPrice)

	// Validate the coupon before any pricing so rejections carry the
	// specific reason.
	var appliedCoupon *model.Coupon
	if req.CouponCode != nil && *req.CouponCode != "" {
		code := model.NormalizeCouponCode(*req.CouponCode)
		c, err := s.couponRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to look up coupon: %w", err)
		}
		if err := s.validator.Validate(ctx, c, userID, itemsPrice); err != nil {
			s.logger.Warn().Str("coupon_code", code).Err(err).Msg("coupon rejected at checkout")
			s.metrics.RecordCouponRejected(errorCode(err))
			s.metrics.RecordOrderRejected(errorCode(err))
			return nil, err
		}
		appliedCoupon = c
	}

	breakdown := pricing.Calculate(items, appliedCoupon)

	if err := s.verifyClientPrices(req, breakdown); err != nil {
		s.metrics.RecordOrderRejected(errorCode(err))
		return nil, err
	}

	now := time.Now()
	order := &model.Order{
		ID:                   uuid.New(),
		UserID:               userID,
		PaymentMethod:        req.PaymentMethod,
		ItemsPrice:           breakdown.ItemsPrice,
		DiscountAmount:       breakdown.DiscountAmount,
		DiscountedItemsPrice: breakdown.DiscountedItemsPrice,
		ShippingPrice:        breakdown.ShippingPrice,
		TaxPrice:             breakdown.TaxPrice,
		TotalPrice:           breakdown.TotalPrice,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if appliedCoupon != nil {
		order.AppliedCoupon = &model.AppliedCoupon{
			Code:           appliedCoupon.Code,
			DiscountType:   appliedCoupon.DiscountType,
			DiscountValue:  appliedCoupon.DiscountValue,
			DiscountAmount: breakdown.DiscountAmount,
		}
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	// The redemption counter moves in the same transaction as the
	// order, and the database refuses to move it past the limit. Two
	// concurrent checkouts cannot both take the last redemption.
	if appliedCoupon != nil {
		var ok bool
		ok, err = s.couponRepo.IncrementUsage(ctx, tx, appliedCoupon.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to redeem coupon: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("coupon_code", appliedCoupon.Code).
				Msg("coupon usage limit reached during checkout")
			err = model.ErrCouponUsageLimit
			s.metrics.RecordCouponRejected(model.ErrCodeCouponUsageLimit)
			s.metrics.RecordOrderRejected(model.ErrCodeCouponUsageLimit)
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Inventory moves after commit. A failed deduction is logged and
	// skipped rather than failing a placed order.
	s.deductStock(ctx, items)

	s.metrics.RecordOrderPlaced()
	if appliedCoupon != nil {
		s.metrics.RecordCouponApplied()
	}
	s.publish(ctx, order.ID.String(), event.TypeOrderPlaced, order)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Float64("total_price", order.TotalPrice).
		Msg("order created successfully")

	return order, nil
}

// GetByID retrieves an order by its ID with its items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListByUser retrieves a user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// MarkPaid records a successful payment for an order. Duplicate
// payment callbacks are rejected, not re-applied.
func (s *orderService) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	ok, err := s.orderRepo.MarkPaid(ctx, id, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if !ok {
		return nil, model.NewDomainError(model.ErrCodeInvalidState, "Order is already paid")
	}

	order, err = s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	s.publish(ctx, id.String(), event.TypeOrderPaid, order)
	s.logger.Info().Str("order_id", id.String()).Msg("order marked paid")

	return order, nil
}

// MarkDelivered records delivery of a paid order.
func (s *orderService) MarkDelivered(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !order.IsPaid {
		return nil, model.NewStateError("unpaid", "paid")
	}

	ok, err := s.orderRepo.MarkDelivered(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}
	if !ok {
		return nil, model.NewDomainError(model.ErrCodeInvalidState, "Order is already delivered")
	}

	order, err = s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	s.publish(ctx, id.String(), event.TypeOrderDelivered, order)
	s.logger.Info().Str("order_id", id.String()).Msg("order marked delivered")

	return order, nil
}

// Delete removes an order and its items. Stock deducted by a paid
// order goes back to the shelf.
func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	// Unpaid orders never moved inventory.
	if order.IsPaid {
		s.restoreStock(ctx, order.Items)
	}

	s.publish(ctx, id.String(), event.TypeOrderDeleted, order)
	s.logger.Info().Str("order_id", id.String()).Bool("was_paid", order.IsPaid).Msg("order deleted")

	return nil
}

// validateCheckoutRequest validates the shape of the checkout payload.
func (s *orderService) validateCheckoutRequest(req *model.CheckoutRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Checkout request is required")
	}

	if len(req.Items) == 0 {
		return model.ErrNoOrderItems
	}

	if req.PaymentMethod == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Payment method is required")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("Item %d: product ID is required", i))
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}

		// A negative surcharge would let the client talk the server's
		// own items price down and still pass verification.
		if item.Customization != nil && item.Customization.ExtraCost < 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Float64("extra_cost", item.Customization.ExtraCost).
				Msg("negative customization cost")
			return model.NewDomainError(model.ErrCodeInvalidAmount, fmt.Sprintf("Item %d: customization cost cannot be negative", i))
		}
	}

	return nil
}

// buildOrderItems resolves cart lines against the catalogue, pricing
// every line from the stored product record.
func (s *orderService) buildOrderItems(ctx context.Context, reqItems []model.CheckoutItem) ([]model.OrderItem, error) {
	productIDs := make([]string, len(reqItems))
	for i, item := range reqItems {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]model.OrderItem, len(reqItems))
	for i, reqItem := range reqItems {
		p, ok := byID[reqItem.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", reqItem.ProductID).Msg("unknown product in cart")
			return nil, model.ErrProductNotFound
		}

		items[i] = model.OrderItem{
			ID:            uuid.New(),
			ProductID:     p.ID,
			Name:          p.Name,
			UnitPrice:     p.Price,
			Quantity:      reqItem.Quantity,
			SelectedSize:  reqItem.SelectedSize,
			Customization: reqItem.Customization,
		}
	}

	return items, nil
}

// verifyClientPrices compares every client-submitted price with the
// server's breakdown. The rejection carries no detail about which
// field disagreed; the specifics go to the log only.
func (s *orderService) verifyClientPrices(req *model.CheckoutRequest, b pricing.Breakdown) error {
	mismatches := map[string][2]float64{}

	if !money.IsClose(req.ItemsPrice, b.ItemsPrice) {
		mismatches["items_price"] = [2]float64{req.ItemsPrice, b.ItemsPrice}
	}
	if !money.IsClose(req.DiscountAmount, b.DiscountAmount) {
		mismatches["discount_amount"] = [2]float64{req.DiscountAmount, b.DiscountAmount}
	}
	if !money.IsClose(req.ShippingPrice, b.ShippingPrice) {
		mismatches["shipping_price"] = [2]float64{req.ShippingPrice, b.ShippingPrice}
	}
	if !money.IsClose(req.TaxPrice, b.TaxPrice) {
		mismatches["tax_price"] = [2]float64{req.TaxPrice, b.TaxPrice}
	}
	if !money.IsClose(req.TotalPrice, b.TotalPrice) {
		mismatches["total_price"] = [2]float64{req.TotalPrice, b.TotalPrice}
	}

	if len(mismatches) == 0 {
		return nil
	}

	logEvent := s.logger.Warn()
	for field, pair := range mismatches {
		logEvent = logEvent.
			Float64(field+"_client", pair[0]).
			Float64(field+"_server", pair[1])
	}
	logEvent.Msg("client price calculation rejected")

	return model.ErrPriceMismatch
}

// deductStock removes sold quantities from inventory after the order
// has committed.
func (s *orderService) deductStock(ctx context.Context, items []model.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.AdjustStock(ctx, item.ProductID, item.SelectedSize, -item.Quantity); err != nil {
			s.logger.Error().
				Err(err).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("failed to deduct stock, continuing")
		}
	}
}

// restoreStock puts quantities back when a paid order is removed.
func (s *orderService) restoreStock(ctx context.Context, items []model.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.AdjustStock(ctx, item.ProductID, item.SelectedSize, item.Quantity); err != nil {
			s.logger.Error().
				Err(err).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("failed to restore stock, continuing")
		}
	}
}

// publish emits an event without letting broker trouble surface to the
// caller.
func (s *orderService) publish(ctx context.Context, key, eventType string, payload any) {
	if err := s.publisher.Publish(ctx, key, eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

// errorCode extracts the stable code from a domain error, for metric
// labels.
func errorCode(err error) string {
	var de *model.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return model.ErrCodeInternalError
}
