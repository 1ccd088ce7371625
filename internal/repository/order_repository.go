package repository

import (
	"context"
	"fmt"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, payment_method, items_price, discount_amount,
			discounted_items_price, shipping_price, tax_price, total_price,
			applied_coupon, is_paid, is_delivered, refund_amount,
			refund_processed, is_refunded, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.PaymentMethod,
		order.ItemsPrice,
		order.DiscountAmount,
		order.DiscountedItemsPrice,
		order.ShippingPrice,
		order.TaxPrice,
		order.TotalPrice,
		order.AppliedCoupon,
		order.IsPaid,
		order.IsDelivered,
		order.RefundAmount,
		order.RefundProcessed,
		order.IsRefunded,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, selected_size, customization)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.SelectedSize,
			item.Customization,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

const orderColumns = `
	id, user_id, payment_method, items_price, discount_amount,
	discounted_items_price, shipping_price, tax_price, total_price,
	applied_coupon, is_paid, paid_at, payment_ref, is_delivered,
	delivered_at, refund_amount, refund_processed, is_refunded,
	created_at, updated_at
`

func scanOrder(row pgx.Row, order *model.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.PaymentMethod,
		&order.ItemsPrice,
		&order.DiscountAmount,
		&order.DiscountedItemsPrice,
		&order.ShippingPrice,
		&order.TaxPrice,
		&order.TotalPrice,
		&order.AppliedCoupon,
		&order.IsPaid,
		&order.PaidAt,
		&order.PaymentRef,
		&order.IsDelivered,
		&order.DeliveredAt,
		&order.RefundAmount,
		&order.RefundProcessed,
		&order.IsRefunded,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

// GetByID retrieves an order by its ID with its items populated.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id), &order)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.itemsForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *orderRepository) itemsForOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity, selected_size, customization
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.SelectedSize,
			&item.Customization,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser retrieves a user's orders, newest first. Items are not
// populated; listings only need the order headline.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user orders")
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := scanOrder(rows, &order); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// MarkPaid flips an unpaid order to paid. The unpaid guard lives in
// the WHERE clause so a duplicate payment callback cannot apply twice.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef *string) (bool, error) {
	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = NOW(), payment_ref = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_paid
	`

	tag, err := r.pool.Exec(ctx, query, id, paymentRef)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkDelivered flips an undelivered order to delivered.
func (r *orderRepository) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND NOT is_delivered
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order delivered")
		return false, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Delete removes an order and its items within the provided transaction.
func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order items")
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().Str("order_id", id.String()).Msg("order deleted")

	return nil
}

// UpdateRefund records cumulative refund progress within the provided
// transaction.
func (r *orderRepository) UpdateRefund(ctx context.Context, tx pgx.Tx, id uuid.UUID, refundAmount float64, isRefunded bool) error {
	query := `
		UPDATE orders
		SET refund_amount = $2, refund_processed = TRUE, is_refunded = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, refundAmount, isRefunded)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order refund")
		return fmt.Errorf("failed to update order refund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// CountPaidOrdersWithCoupon reports how many paid orders a user has
// placed with the given coupon code applied.
func (r *orderRepository) CountPaidOrdersWithCoupon(ctx context.Context, userID uuid.UUID, code string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE user_id = $1
		  AND is_paid
		  AND applied_coupon->>'code' = $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, code).Scan(&count)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("coupon_code", code).
			Msg("failed to count coupon usage")
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}

	return count, nil
}
