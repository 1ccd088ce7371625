package repository

import (
	"context"
	"errors"
	"fmt"

	"atelier-commerce/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by its normalised code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value,
		       minimum_purchase_amount, is_active, valid_from, valid_until,
		       usage_limit_per_coupon, usage_limit_per_user, times_used,
		       created_at, updated_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, model.NormalizeCouponCode(code)).Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinimumPurchaseAmount,
		&c.IsActive,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.UsageLimitPerCoupon,
		&c.UsageLimitPerUser,
		&c.TimesUsed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value,
			minimum_purchase_amount, is_active, valid_from, valid_until,
			usage_limit_per_coupon, usage_limit_per_user, times_used,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinimumPurchaseAmount,
		coupon.IsActive,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UsageLimitPerCoupon,
		coupon.UsageLimitPerUser,
		coupon.TimesUsed,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Debug().Str("coupon_code", coupon.Code).Msg("coupon code already exists")
			return model.ErrCouponExists
		}
		r.logger.Error().Err(err).Str("coupon_code", coupon.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	r.logger.Debug().Str("coupon_code", coupon.Code).Msg("coupon created")

	return nil
}

// IncrementUsage bumps the redemption counter, but only while the
// global limit has headroom. The guard runs in the database so two
// concurrent checkouts cannot both take the last redemption.
func (r *couponRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	query := `
		UPDATE coupons
		SET times_used = times_used + 1, updated_at = NOW()
		WHERE code = $1
		  AND (usage_limit_per_coupon IS NULL OR times_used < usage_limit_per_coupon)
	`

	tag, err := tx.Exec(ctx, query, code)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to increment coupon usage")
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
