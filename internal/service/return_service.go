package service

import (
	"context"
	"fmt"
	"time"

	"atelier-commerce/internal/event"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/money"
	"atelier-commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReturnWindow is how long after order placement a return may be
// initiated.
const ReturnWindow = 30 * 24 * time.Hour

// returnService implements ReturnService.
type returnService struct {
	returnRepo repository.ReturnRepository
	orderRepo  repository.OrderRepository
	publisher  event.Publisher
	metrics    *metrics.CommerceMetrics
	logger     zerolog.Logger
}

// NewReturnService creates a new return service.
func NewReturnService(
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	publisher event.Publisher,
	m *metrics.CommerceMetrics,
	logger zerolog.Logger,
) ReturnService {
	return &returnService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		publisher:  publisher,
		metrics:    m,
		logger:     logger.With().Str("service", "return").Logger(),
	}
}

// Create initiates a return for a delivered order. The refund
// entitlement is computed here, from what the customer actually paid,
// and never recomputed from the live catalogue.
func (s *returnService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateReturnRequest) (*model.Return, error) {
	if err := validateCreateReturnRequest(req); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.UserID == nil || *order.UserID != userID {
		s.logger.Warn().
			Str("order_id", req.OrderID.String()).
			Str("user_id", userID.String()).
			Msg("return attempted on someone else's order")
		return nil, model.ErrNotOrderOwner
	}
	if !order.IsPaid {
		return nil, model.ErrOrderNotPaid
	}
	if !order.IsDelivered {
		return nil, model.ErrOrderNotDelivered
	}
	if time.Since(order.CreatedAt) > ReturnWindow {
		s.logger.Debug().
			Str("order_id", order.ID.String()).
			Time("order_created_at", order.CreatedAt).
			Msg("return window expired")
		return nil, model.ErrReturnWindowClosed
	}

	itemsByID := make(map[uuid.UUID]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}

	now := time.Now()
	var total float64
	requested := make(map[uuid.UUID]int, len(req.Items))
	returnItems := make([]model.ReturnItem, len(req.Items))
	for i, reqItem := range req.Items {
		orderItem, ok := itemsByID[reqItem.OrderItemID]
		if !ok {
			return nil, model.ErrItemNotInOrder
		}
		// Quantities are summed per order line so a request cannot split
		// one line across entries to exceed what was bought.
		requested[reqItem.OrderItemID] += reqItem.ReturnQty
		if requested[reqItem.OrderItemID] > orderItem.Quantity {
			s.logger.Debug().
				Str("order_item_id", reqItem.OrderItemID.String()).
				Int("return_qty", requested[reqItem.OrderItemID]).
				Int("ordered_qty", orderItem.Quantity).
				Msg("return quantity exceeds ordered quantity")
			return nil, model.ErrReturnQtyExceeded
		}

		// Entitlement is the catalogue unit price paid per returned
		// unit; per-line customisation surcharges are not refunded.
		refund := money.Round2(orderItem.UnitPrice * float64(reqItem.ReturnQty))
		total += refund

		returnItems[i] = model.ReturnItem{
			OrderItemID:  orderItem.ID,
			ProductID:    orderItem.ProductID,
			Name:         orderItem.Name,
			UnitPrice:    orderItem.UnitPrice,
			Quantity:     orderItem.Quantity,
			ReturnQty:    reqItem.ReturnQty,
			SelectedSize: orderItem.SelectedSize,
			Reason:       reqItem.Reason,
			Condition:    reqItem.Condition,
			RefundAmount: refund,
		}
	}

	ret := &model.Return{
		ID:                uuid.New(),
		OrderID:           order.ID,
		UserID:            userID,
		Status:            model.ReturnPending,
		Items:             returnItems,
		Reason:            req.Reason,
		DetailedReason:    req.DetailedReason,
		CustomerNotes:     req.CustomerNotes,
		TotalRefundAmount: money.Round2(total),
		StatusHistory: []model.StatusChange{
			{
				Status:    model.ReturnPending,
				Date:      now,
				UpdatedBy: userID.String(),
				Notes:     "Return requested",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return nil, err
	}

	s.metrics.RecordReturnRequested()
	s.publish(ctx, ret.ID.String(), event.TypeReturnRequested, ret)

	s.logger.Info().
		Str("return_id", ret.ID.String()).
		Str("return_number", ret.ReturnNumber).
		Str("order_id", order.ID.String()).
		Float64("total_refund_amount", ret.TotalRefundAmount).
		Msg("return created successfully")

	return ret, nil
}

// GetByID retrieves a return by its ID.
func (s *returnService) GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	return ret, nil
}

// ListByUser retrieves a user's returns, newest first.
func (s *returnService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error) {
	returns, err := s.returnRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	return returns, nil
}

// List retrieves returns for back-office review.
func (s *returnService) List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error) {
	returns, err := s.returnRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	return returns, nil
}

// UpdateStatus advances a return through its lifecycle. Two targets are
// excluded here: refund completion only happens through the refund
// operation, and refund eligibility is only granted by a recorded
// quality check.
func (s *returnService) UpdateStatus(ctx context.Context, id uuid.UUID, actor string, req *model.UpdateReturnStatusRequest) (*model.Return, error) {
	if req == nil || req.Status == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Status is required")
	}
	if !req.Status.IsValid() {
		return nil, model.NewDomainError(model.ErrCodeInvalidState, fmt.Sprintf("Unknown return status %q", req.Status))
	}
	if req.Status == model.ReturnRefundProcessed {
		return nil, model.NewDomainError(model.ErrCodeInvalidState, "Refunds are recorded through the refund operation")
	}
	if req.Status == model.ReturnApprovedRefund {
		return nil, model.NewDomainError(model.ErrCodeInvalidState, "Refund eligibility is granted through the quality check operation")
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, model.ErrReturnNotFound
	}

	from := ret.Status
	if !from.CanTransitionTo(req.Status) {
		s.logger.Debug().
			Str("return_id", id.String()).
			Str("from", string(from)).
			Str("to", string(req.Status)).
			Msg("transition not permitted")
		return nil, model.NewTransitionError(string(from), string(req.Status))
	}

	now := time.Now()
	ret.Status = req.Status
	if req.Status == model.ReturnReceived && ret.ReturnDate == nil {
		ret.ReturnDate = &now
	}
	ret.StatusHistory = append(ret.StatusHistory, model.StatusChange{
		Status:    req.Status,
		Date:      now,
		UpdatedBy: actor,
		Notes:     req.Notes,
	})

	ok, err := s.returnRepo.UpdateState(ctx, ret, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrConcurrentUpdate
	}

	s.metrics.RecordReturnTransition(string(req.Status))
	s.publish(ctx, ret.ID.String(), event.TypeReturnStatusChanged, ret)

	s.logger.Info().
		Str("return_id", id.String()).
		Str("from", string(from)).
		Str("to", string(req.Status)).
		Str("actor", actor).
		Msg("return status updated")

	return ret, nil
}

// QualityCheck records the warehouse inspection. Approval moves the
// return to approved_refund; otherwise it is rejected.
func (s *returnService) QualityCheck(ctx context.Context, id uuid.UUID, actor string, req *model.QualityCheckRequest) (*model.Return, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidJSON, "Quality check request is required")
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, model.ErrReturnNotFound
	}

	from := ret.Status
	if from != model.ReturnReceived && from != model.ReturnInspecting {
		return nil, model.NewStateError(string(from), "received or inspecting")
	}

	final := ret.TotalRefundAmount
	if req.FinalRefundAmount != nil {
		final = money.Round2(*req.FinalRefundAmount)
	}
	if final < 0 {
		return nil, model.ErrRefundNegative
	}
	if final > ret.TotalRefundAmount {
		return nil, model.ErrRefundExceedsTotal
	}

	target := model.ReturnRejected
	if req.Approved {
		target = model.ReturnApprovedRefund
	}

	now := time.Now()
	ret.QualityCheck = &model.QualityCheck{
		CheckedBy:         actor,
		CheckDate:         now,
		OverallCondition:  req.OverallCondition,
		ItemChecks:        req.ItemChecks,
		Approved:          req.Approved,
		FinalRefundAmount: final,
		Restockable:       req.Restockable,
		Notes:             req.Notes,
	}
	ret.Status = target
	ret.StatusHistory = append(ret.StatusHistory, model.StatusChange{
		Status:    target,
		Date:      now,
		UpdatedBy: actor,
		Notes:     req.Notes,
	})

	ok, err := s.returnRepo.UpdateState(ctx, ret, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrConcurrentUpdate
	}

	s.metrics.RecordReturnTransition(string(target))
	s.publish(ctx, ret.ID.String(), event.TypeReturnStatusChanged, ret)

	s.logger.Info().
		Str("return_id", id.String()).
		Bool("approved", req.Approved).
		Float64("final_refund_amount", final).
		Str("actor", actor).
		Msg("quality check recorded")

	return ret, nil
}

func validateCreateReturnRequest(req *model.CreateReturnRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Return request is required")
	}
	if req.OrderID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeMissingField, "Order ID is required")
	}
	if len(req.Items) == 0 {
		return model.NewDomainError(model.ErrCodeMissingField, "At least one item is required")
	}
	if req.Reason == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Return reason is required")
	}
	for _, item := range req.Items {
		if item.OrderItemID == uuid.Nil {
			return model.NewDomainError(model.ErrCodeMissingField, "Order item ID is required")
		}
		if item.ReturnQty <= 0 {
			return model.ErrInvalidQuantity
		}
	}
	return nil
}

func (s *returnService) publish(ctx context.Context, key, eventType string, payload any) {
	if err := s.publisher.Publish(ctx, key, eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
