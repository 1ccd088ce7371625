package service

import (
	"context"
	"fmt"
	"time"

	"atelier-commerce/internal/event"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/money"
	"atelier-commerce/internal/payment"
	"atelier-commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// refundService implements RefundService.
type refundService struct {
	returnRepo repository.ReturnRepository
	orderRepo  repository.OrderRepository
	refunder   payment.Refunder
	publisher  event.Publisher
	metrics    *metrics.CommerceMetrics
	logger     zerolog.Logger
}

// NewRefundService creates a new refund service.
func NewRefundService(
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	refunder payment.Refunder,
	publisher event.Publisher,
	m *metrics.CommerceMetrics,
	logger zerolog.Logger,
) RefundService {
	return &refundService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		refunder:   refunder,
		publisher:  publisher,
		metrics:    m,
		logger:     logger.With().Str("service", "refund").Logger(),
	}
}

// ProcessRefund settles an approved return. Deductions (restocking
// fee, return shipping) come off the refund, and the result must stay
// within [0, totalRefundAmount] or the whole operation is rejected.
//
// The settlement runs before the database transaction; the transaction
// then flips the return out of approved_refund with a status guard, so
// a concurrent second processor fails the guard and rolls back rather
// than double-recording. Both the return and its order commit
// together.
func (s *refundService) ProcessRefund(ctx context.Context, returnID uuid.UUID, actor string, req *model.ProcessRefundRequest) (*model.Return, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidJSON, "Refund request is required")
	}
	if req.RestockingFee < 0 || req.ReturnShippingCost < 0 {
		return nil, model.NewDomainError(model.ErrCodeInvalidAmount, "Deductions cannot be negative")
	}

	ret, err := s.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, model.ErrReturnNotFound
	}
	if ret.Status != model.ReturnApprovedRefund {
		s.logger.Debug().
			Str("return_id", returnID.String()).
			Str("status", string(ret.Status)).
			Msg("refund attempted outside approved_refund")
		return nil, model.NewStateError(string(ret.Status), string(model.ReturnApprovedRefund))
	}

	// The base amount defaults to the inspection's verdict when one
	// was recorded, falling back to the original entitlement.
	base := ret.TotalRefundAmount
	if ret.QualityCheck != nil {
		base = ret.QualityCheck.FinalRefundAmount
	}
	if req.RefundAmount != nil {
		base = *req.RefundAmount
	}

	final := money.Round2(base - req.RestockingFee - req.ReturnShippingCost)
	if final < 0 {
		return nil, model.ErrRefundNegative
	}
	if final > ret.TotalRefundAmount {
		s.logger.Warn().
			Str("return_id", returnID.String()).
			Float64("final", final).
			Float64("total_refund_amount", ret.TotalRefundAmount).
			Msg("refund exceeds entitlement")
		return nil, model.ErrRefundExceedsTotal
	}

	order, err := s.orderRepo.GetByID(ctx, ret.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	result, err := s.refunder.Refund(ctx, payment.RefundRequest{
		OrderID:      order.ID.String(),
		ReturnNumber: ret.ReturnNumber,
		Amount:       final,
		Method:       req.RefundMethod,
		Reference:    order.PaymentRef,
	})
	if err != nil {
		s.metrics.RecordRefundFailed()
		s.logger.Error().
			Err(err).
			Str("return_id", returnID.String()).
			Float64("amount", final).
			Msg("refund settlement failed")
		return nil, model.NewSettlementError(err)
	}

	now := time.Now()
	ret.Status = model.ReturnRefundProcessed
	ret.RefundInfo = &model.RefundInfo{
		Method:             req.RefundMethod,
		Amount:             final,
		Date:               now,
		TransactionID:      result.TransactionID,
		RestockingFee:      req.RestockingFee,
		ReturnShippingCost: req.ReturnShippingCost,
		ProcessedBy:        actor,
	}
	ret.StatusHistory = append(ret.StatusHistory, model.StatusChange{
		Status:    model.ReturnRefundProcessed,
		Date:      now,
		UpdatedBy: actor,
		Notes:     req.Notes,
	})

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var ok bool
	ok, err = s.returnRepo.UpdateStateTx(ctx, tx, ret, model.ReturnApprovedRefund)
	if err != nil {
		return nil, err
	}
	if !ok {
		err = model.ErrConcurrentUpdate
		s.logger.Error().
			Str("return_id", returnID.String()).
			Str("transaction_id", result.TransactionID).
			Msg("return left approved_refund during settlement, recording rolled back")
		return nil, err
	}

	newRefundTotal := money.Round2(order.RefundAmount + final)
	isRefunded := newRefundTotal >= order.TotalPrice-money.Tolerance
	if err = s.orderRepo.UpdateRefund(ctx, tx, order.ID, newRefundTotal, isRefunded); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	s.metrics.RecordRefundProcessed(final)
	s.metrics.RecordReturnTransition(string(model.ReturnRefundProcessed))
	if err := s.publisher.Publish(ctx, ret.ID.String(), event.TypeReturnRefundComplete, ret); err != nil {
		s.logger.Error().Err(err).Str("return_id", ret.ID.String()).Msg("failed to publish event")
	}

	s.logger.Info().
		Str("return_id", returnID.String()).
		Str("order_id", order.ID.String()).
		Float64("amount", final).
		Str("transaction_id", result.TransactionID).
		Bool("order_fully_refunded", isRefunded).
		Msg("refund processed successfully")

	return ret, nil
}
