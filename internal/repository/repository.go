package repository

import (
	"context"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// AdjustStock changes available inventory by delta (negative to
	// deduct). When size is non-nil the size variant is adjusted;
	// quantities never go below zero.
	AdjustStock(ctx context.Context, id string, size *string, delta int) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its normalised code.
	// Returns (nil, nil) when no such coupon exists.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *model.Coupon) error

	// IncrementUsage bumps a coupon's redemption counter within the
	// provided transaction, refusing to move past the global usage
	// limit. Returns false when the limit was already reached.
	IncrementUsage(ctx context.Context, tx pgx.Tx, code string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID with its items populated.
	// Returns (nil, nil) when no such order exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// MarkPaid flips an unpaid order to paid. Returns false when the
	// order was already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (bool, error)

	// MarkDelivered flips an undelivered order to delivered. Returns
	// false when the order was already delivered.
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)

	// Delete removes an order and its items within the provided transaction.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// UpdateRefund records cumulative refund progress within the
	// provided transaction.
	UpdateRefund(ctx context.Context, tx pgx.Tx, id uuid.UUID, refundAmount float64, isRefunded bool) error

	// CountPaidOrdersWithCoupon reports how many paid orders a user
	// has placed with the given coupon code applied.
	CountPaidOrdersWithCoupon(ctx context.Context, userID uuid.UUID, code string) (int, error)
}

// ReturnRepository defines the interface for return data access operations.
type ReturnRepository interface {
	// Create inserts a new return request, assigning its return
	// number. Returns model.ErrReturnExists when the order already
	// has an active return.
	Create(ctx context.Context, ret *model.Return) error

	// GetByID retrieves a return by its ID.
	// Returns (nil, nil) when no such return exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error)

	// ListByUser retrieves a user's returns, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error)

	// List retrieves returns for back-office review, optionally
	// filtered by status, newest first.
	List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error)

	// UpdateState persists a return's mutable fields, guarded by the
	// status the caller read. Returns false when the row has since
	// moved to a different status.
	UpdateState(ctx context.Context, ret *model.Return, expected model.ReturnStatus) (bool, error)

	// UpdateStateTx is UpdateState within the provided transaction,
	// used when the return and its order must change together.
	UpdateStateTx(ctx context.Context, tx pgx.Tx, ret *model.Return, expected model.ReturnStatus) (bool, error)
}
