package service

import (
	"context"

	"atelier-commerce/internal/model"
	"atelier-commerce/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id string, size *string, delta int) error {
	args := m.Called(ctx, id, size, delta)
	return args.Error(0)
}

// MockCouponRepository is a mock implementation of repository.CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	args := m.Called(ctx, tx, code)
	return args.Bool(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (bool, error) {
	args := m.Called(ctx, id, paymentRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateRefund(ctx context.Context, tx pgx.Tx, id uuid.UUID, refundAmount float64, isRefunded bool) error {
	args := m.Called(ctx, tx, id, refundAmount, isRefunded)
	return args.Error(0)
}

func (m *MockOrderRepository) CountPaidOrdersWithCoupon(ctx context.Context, userID uuid.UUID, code string) (int, error) {
	args := m.Called(ctx, userID, code)
	return args.Int(0), args.Error(1)
}

// MockReturnRepository is a mock implementation of repository.ReturnRepository.
type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Create(ctx context.Context, ret *model.Return) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Return), args.Error(1)
}

func (m *MockReturnRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Return), args.Error(1)
}

func (m *MockReturnRepository) List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Return), args.Error(1)
}

func (m *MockReturnRepository) UpdateState(ctx context.Context, ret *model.Return, expected model.ReturnStatus) (bool, error) {
	args := m.Called(ctx, ret, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockReturnRepository) UpdateStateTx(ctx context.Context, tx pgx.Tx, ret *model.Return, expected model.ReturnStatus) (bool, error) {
	args := m.Called(ctx, tx, ret, expected)
	return args.Bool(0), args.Error(1)
}

// MockCouponValidator is a mock implementation of coupon.Validator.
type MockCouponValidator struct {
	mock.Mock
}

func (m *MockCouponValidator) Validate(ctx context.Context, c *model.Coupon, userID *uuid.UUID, cartTotal float64) error {
	args := m.Called(ctx, c, userID, cartTotal)
	return args.Error(0)
}

// MockPublisher is a mock implementation of event.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, eventType string, payload any) error {
	args := m.Called(ctx, key, eventType, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRefunder is a mock implementation of payment.Refunder.
type MockRefunder struct {
	mock.Mock
}

func (m *MockRefunder) Refund(ctx context.Context, req payment.RefundRequest) (*payment.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
