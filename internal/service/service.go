package service

import (
	"context"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
)

// ProductService presents the sellable view of the catalogue: size
// variants with no remaining stock are pruned and the headline stock
// count of a sized product is reconciled with its per-size quantities.
type ProductService interface {
	// List returns a catalogue page. With availableOnly set, products
	// with nothing left to sell are omitted from the page.
	List(ctx context.Context, limit, offset int, availableOnly bool) ([]model.Product, error)

	// Get retrieves a single product by ID.
	Get(ctx context.Context, id string) (*model.Product, error)
}

// CouponService defines operations for coupon management and dry-run
// validation.
type CouponService interface {
	// Apply validates a coupon against a cart total without redeeming
	// it, returning the discount it would grant.
	Apply(ctx context.Context, userID *uuid.UUID, req *model.ApplyCouponRequest) (*model.ApplyCouponResponse, error)

	// Create registers a new coupon.
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Checkout verifies the client's price calculation, redeems any
	// coupon and persists the order.
	Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.Order, error)

	// GetByID retrieves an order by its ID with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// MarkPaid records a successful payment for an order.
	MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (*model.Order, error)

	// MarkDelivered records delivery of a paid order.
	MarkDelivered(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// Delete removes an order, restoring inventory when the order had
	// been paid.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReturnService defines operations for the return lifecycle.
type ReturnService interface {
	// Create initiates a return for a delivered order.
	Create(ctx context.Context, userID uuid.UUID, req *model.CreateReturnRequest) (*model.Return, error)

	// GetByID retrieves a return by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error)

	// ListByUser retrieves a user's returns, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error)

	// List retrieves returns for back-office review.
	List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error)

	// UpdateStatus advances a return through its lifecycle.
	UpdateStatus(ctx context.Context, id uuid.UUID, actor string, req *model.UpdateReturnStatusRequest) (*model.Return, error)

	// QualityCheck records the warehouse inspection and moves the
	// return to approved_refund or rejected.
	QualityCheck(ctx context.Context, id uuid.UUID, actor string, req *model.QualityCheckRequest) (*model.Return, error)
}

// RefundService defines the refund execution operation.
type RefundService interface {
	// ProcessRefund settles the refund of an approved return and
	// records it on the return and its order.
	ProcessRefund(ctx context.Context, returnID uuid.UUID, actor string, req *model.ProcessRefundRequest) (*model.Return, error)
}
