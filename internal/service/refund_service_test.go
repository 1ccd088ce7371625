package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"atelier-commerce/internal/event"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type refundServiceMocks struct {
	returnRepo *MockReturnRepository
	orderRepo  *MockOrderRepository
	refunder   *MockRefunder
	publisher  *MockPublisher
	tx         *MockTx
}

func newRefundService(t *testing.T) (RefundService, *refundServiceMocks) {
	t.Helper()
	m := &refundServiceMocks{
		returnRepo: new(MockReturnRepository),
		orderRepo:  new(MockOrderRepository),
		refunder:   new(MockRefunder),
		publisher:  new(MockPublisher),
		tx:         new(MockTx),
	}
	svc := NewRefundService(m.returnRepo, m.orderRepo, m.refunder, m.publisher, newTestMetrics(), zerolog.Nop())
	return svc, m
}

// approvedReturn builds a return sitting in approved_refund with a
// recorded inspection verdict below the original entitlement.
func approvedReturn(orderID uuid.UUID) *model.Return {
	return &model.Return{
		ID:                uuid.New(),
		OrderID:           orderID,
		ReturnNumber:      "RET000042",
		UserID:            uuid.New(),
		Status:            model.ReturnApprovedRefund,
		TotalRefundAmount: 110,
		QualityCheck: &model.QualityCheck{
			CheckedBy:         "qc@example.com",
			CheckDate:         time.Now().Add(-time.Hour),
			Approved:          true,
			FinalRefundAmount: 100,
		},
		StatusHistory: []model.StatusChange{
			{Status: model.ReturnPending, Date: time.Now().Add(-72 * time.Hour)},
		},
	}
}

func TestRefundService_ProcessRefund_Success(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	paymentRef := "pi_12345"

	ret := approvedReturn(orderID)
	order := &model.Order{
		ID:         orderID,
		IsPaid:     true,
		TotalPrice: 190,
		PaymentRef: &paymentRef,
	}

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	// Inspection said 100; a 5 restocking fee and 7.50 shipping come
	// off, leaving 87.50.
	m.refunder.On("Refund", ctx, payment.RefundRequest{
		OrderID:      orderID.String(),
		ReturnNumber: "RET000042",
		Amount:       87.50,
		Method:       "original_payment",
		Reference:    &paymentRef,
	}).Return(&payment.RefundResult{TransactionID: "rf_987", Status: "succeeded"}, nil)
	m.orderRepo.On("BeginTx", ctx).Return(m.tx, nil)
	m.returnRepo.On("UpdateStateTx", ctx, m.tx, mock.AnythingOfType("*model.Return"), model.ReturnApprovedRefund).Return(true, nil)
	m.orderRepo.On("UpdateRefund", ctx, m.tx, orderID, 87.50, false).Return(nil)
	m.tx.On("Commit", ctx).Return(nil)
	m.publisher.On("Publish", ctx, ret.ID.String(), event.TypeReturnRefundComplete, mock.Anything).Return(nil)

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod:       "original_payment",
		RestockingFee:      5,
		ReturnShippingCost: 7.50,
		Notes:              "standard deductions",
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.ReturnRefundProcessed, got.Status)
	require.NotNil(t, got.RefundInfo)
	assert.InDelta(t, 87.50, got.RefundInfo.Amount, 1e-9)
	assert.Equal(t, "rf_987", got.RefundInfo.TransactionID)
	assert.Equal(t, "finance@example.com", got.RefundInfo.ProcessedBy)
	assert.InDelta(t, 5.0, got.RefundInfo.RestockingFee, 1e-9)

	m.refunder.AssertExpectations(t)
	m.returnRepo.AssertExpectations(t)
	m.orderRepo.AssertExpectations(t)
	m.tx.AssertExpectations(t)
}

func TestRefundService_ProcessRefund_FullRefundFlagsOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	ret := approvedReturn(orderID)
	ret.QualityCheck = nil
	ret.TotalRefundAmount = 90

	// 100 already refunded from an earlier return; this 90 brings the
	// cumulative total to the order price.
	order := &model.Order{
		ID:           orderID,
		IsPaid:       true,
		TotalPrice:   190,
		RefundAmount: 100,
	}

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	m.refunder.On("Refund", ctx, mock.AnythingOfType("payment.RefundRequest")).
		Return(&payment.RefundResult{TransactionID: "rf_988", Status: "succeeded"}, nil)
	m.orderRepo.On("BeginTx", ctx).Return(m.tx, nil)
	m.returnRepo.On("UpdateStateTx", ctx, m.tx, mock.AnythingOfType("*model.Return"), model.ReturnApprovedRefund).Return(true, nil)
	m.orderRepo.On("UpdateRefund", ctx, m.tx, orderID, 190.0, true).Return(nil)
	m.tx.On("Commit", ctx).Return(nil)
	m.publisher.On("Publish", ctx, ret.ID.String(), event.TypeReturnRefundComplete, mock.Anything).Return(nil)

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod: "original_payment",
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	m.orderRepo.AssertExpectations(t)
}

func TestRefundService_ProcessRefund_TwoItemPartial(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	// Two items worth 40 and 25; inspection approved the full 65, and a
	// 5 restocking fee leaves 60 to settle.
	ret := approvedReturn(orderID)
	ret.TotalRefundAmount = 65
	ret.QualityCheck.FinalRefundAmount = 65
	ret.Items = []model.ReturnItem{
		{OrderItemID: uuid.New(), ProductID: "P001", UnitPrice: 40, Quantity: 1, ReturnQty: 1, RefundAmount: 40},
		{OrderItemID: uuid.New(), ProductID: "P002", UnitPrice: 25, Quantity: 2, ReturnQty: 1, RefundAmount: 25},
	}

	order := &model.Order{ID: orderID, IsPaid: true, TotalPrice: 91.65}

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	m.refunder.On("Refund", ctx, mock.AnythingOfType("payment.RefundRequest")).
		Return(&payment.RefundResult{TransactionID: "rf_990", Status: "succeeded"}, nil)
	m.orderRepo.On("BeginTx", ctx).Return(m.tx, nil)
	m.returnRepo.On("UpdateStateTx", ctx, m.tx, mock.AnythingOfType("*model.Return"), model.ReturnApprovedRefund).Return(true, nil)
	// 60 of 91.65 refunded: the order is not fully refunded.
	m.orderRepo.On("UpdateRefund", ctx, m.tx, orderID, 60.0, false).Return(nil)
	m.tx.On("Commit", ctx).Return(nil)
	m.publisher.On("Publish", ctx, ret.ID.String(), event.TypeReturnRefundComplete, mock.Anything).Return(nil)

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod:  "original_payment",
		RestockingFee: 5,
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.RefundInfo)
	assert.InDelta(t, 60.0, got.RefundInfo.Amount, 1e-9)
	m.orderRepo.AssertExpectations(t)
}

func TestRefundService_ProcessRefund_WrongState(t *testing.T) {
	ctx := context.Background()
	ret := approvedReturn(uuid.New())
	ret.Status = model.ReturnReceived

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod: "original_payment",
	})

	require.Error(t, err)
	assert.Nil(t, got)
	var de *model.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, model.ErrCodeInvalidState, de.Code)
	m.refunder.AssertNotCalled(t, "Refund")
}

func TestRefundService_ProcessRefund_Bounds(t *testing.T) {
	ctx := context.Background()
	overrideHigh := 120.0

	tests := []struct {
		name        string
		req         *model.ProcessRefundRequest
		expectedErr error
	}{
		{
			name: "explicit amount above entitlement",
			req: &model.ProcessRefundRequest{
				RefundMethod: "original_payment",
				RefundAmount: &overrideHigh,
			},
			expectedErr: model.ErrRefundExceedsTotal,
		},
		{
			name: "deductions push the refund negative",
			req: &model.ProcessRefundRequest{
				RefundMethod:  "original_payment",
				RestockingFee: 150,
			},
			expectedErr: model.ErrRefundNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := approvedReturn(uuid.New())

			svc, m := newRefundService(t)
			m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)

			got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, got)
			m.refunder.AssertNotCalled(t, "Refund")
			m.orderRepo.AssertNotCalled(t, "BeginTx")
		})
	}
}

func TestRefundService_ProcessRefund_NegativeDeductions(t *testing.T) {
	ctx := context.Background()
	svc, m := newRefundService(t)

	got, err := svc.ProcessRefund(ctx, uuid.New(), "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod:  "original_payment",
		RestockingFee: -5,
	})

	require.Error(t, err)
	assert.Nil(t, got)
	m.returnRepo.AssertNotCalled(t, "GetByID")
}

func TestRefundService_ProcessRefund_SettlementFailure(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	ret := approvedReturn(orderID)
	order := &model.Order{ID: orderID, IsPaid: true, TotalPrice: 190}

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	m.refunder.On("Refund", ctx, mock.AnythingOfType("payment.RefundRequest")).
		Return(nil, errors.New("gateway timeout"))

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod: "original_payment",
	})

	require.Error(t, err)
	assert.Nil(t, got)
	var de *model.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, model.ErrCodeSettlementFailed, de.Code)

	// Nothing was recorded: the return stays in approved_refund for a
	// retry.
	m.orderRepo.AssertNotCalled(t, "BeginTx")
	m.returnRepo.AssertNotCalled(t, "UpdateStateTx")
	m.publisher.AssertNotCalled(t, "Publish")
}

func TestRefundService_ProcessRefund_ConcurrentGuard(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	ret := approvedReturn(orderID)
	order := &model.Order{ID: orderID, IsPaid: true, TotalPrice: 190}

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, ret.ID).Return(ret, nil)
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	m.refunder.On("Refund", ctx, mock.AnythingOfType("payment.RefundRequest")).
		Return(&payment.RefundResult{TransactionID: "rf_989", Status: "succeeded"}, nil)
	m.orderRepo.On("BeginTx", ctx).Return(m.tx, nil)
	// A second processor flipped the status first.
	m.returnRepo.On("UpdateStateTx", ctx, m.tx, mock.AnythingOfType("*model.Return"), model.ReturnApprovedRefund).Return(false, nil)
	m.tx.On("Rollback", ctx).Return(nil)

	got, err := svc.ProcessRefund(ctx, ret.ID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod: "original_payment",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConcurrentUpdate)
	assert.Nil(t, got)
	assert.True(t, m.tx.rolledBack)
	m.orderRepo.AssertNotCalled(t, "UpdateRefund")
	m.publisher.AssertNotCalled(t, "Publish")
}

func TestRefundService_ProcessRefund_NotFound(t *testing.T) {
	ctx := context.Background()
	returnID := uuid.New()

	svc, m := newRefundService(t)
	m.returnRepo.On("GetByID", ctx, returnID).Return(nil, nil)

	got, err := svc.ProcessRefund(ctx, returnID, "finance@example.com", &model.ProcessRefundRequest{
		RefundMethod: "original_payment",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrReturnNotFound)
	assert.Nil(t, got)
}
