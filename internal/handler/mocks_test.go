package handler

import (
	"context"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of service.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, limit, offset int, availableOnly bool) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCouponService is a mock implementation of service.CouponService.
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Apply(ctx context.Context, userID *uuid.UUID, req *model.ApplyCouponRequest) (*model.ApplyCouponResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplyCouponResponse), args.Error(1)
}

func (m *MockCouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (*model.Order, error) {
	args := m.Called(ctx, id, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) MarkDelivered(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReturnService is a mock implementation of service.ReturnService.
type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateReturnRequest) (*model.Return, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}

func (m *MockReturnService) GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}

func (m *MockReturnService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Return), args.Error(1)
}

func (m *MockReturnService) List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Return), args.Error(1)
}

func (m *MockReturnService) UpdateStatus(ctx context.Context, id uuid.UUID, actor string, req *model.UpdateReturnStatusRequest) (*model.Return, error) {
	args := m.Called(ctx, id, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}

func (m *MockReturnService) QualityCheck(ctx context.Context, id uuid.UUID, actor string, req *model.QualityCheckRequest) (*model.Return, error) {
	args := m.Called(ctx, id, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}

// MockRefundService is a mock implementation of service.RefundService.
type MockRefundService struct {
	mock.Mock
}

func (m *MockRefundService) ProcessRefund(ctx context.Context, returnID uuid.UUID, actor string, req *model.ProcessRefundRequest) (*model.Return, error) {
	args := m.Called(ctx, returnID, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}
