package repository

import (
	"context"
	"errors"
	"fmt"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// returnRepository implements the ReturnRepository interface using PostgreSQL.
//
// Embedded collections (items, status history, quality check, refund
// info) are stored as JSONB: they are always read and written with the
// parent return and never queried independently.
type returnRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReturnRepository creates a new PostgreSQL-backed return repository.
func NewReturnRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReturnRepository {
	return &returnRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "return").Logger(),
	}
}

// Create inserts a new return request, assigning its return number
// from a database sequence. A partial unique index on order_id over
// non-terminal statuses enforces one active return per order; the
// resulting unique violation surfaces as model.ErrReturnExists.
func (r *returnRepository) Create(ctx context.Context, ret *model.Return) error {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('return_number_seq')`).Scan(&seq); err != nil {
		r.logger.Error().Err(err).Msg("failed to allocate return number")
		return fmt.Errorf("failed to allocate return number: %w", err)
	}
	ret.ReturnNumber = fmt.Sprintf("RET%06d", seq)

	query := `
		INSERT INTO returns (
			id, return_number, order_id, user_id, status, items, reason,
			detailed_reason, customer_notes, total_refund_amount, return_date,
			status_history, quality_check, refund_info, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		ret.ID,
		ret.ReturnNumber,
		ret.OrderID,
		ret.UserID,
		ret.Status,
		ret.Items,
		ret.Reason,
		ret.DetailedReason,
		ret.CustomerNotes,
		ret.TotalRefundAmount,
		ret.ReturnDate,
		ret.StatusHistory,
		ret.QualityCheck,
		ret.RefundInfo,
		ret.CreatedAt,
		ret.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Debug().
				Str("order_id", ret.OrderID.String()).
				Msg("active return already exists for order")
			return model.ErrReturnExists
		}
		r.logger.Error().
			Err(err).
			Str("order_id", ret.OrderID.String()).
			Msg("failed to create return")
		return fmt.Errorf("failed to create return: %w", err)
	}

	r.logger.Debug().
		Str("return_id", ret.ID.String()).
		Str("return_number", ret.ReturnNumber).
		Msg("return created successfully")

	return nil
}

const returnColumns = `
	id, return_number, order_id, user_id, status, items, reason,
	detailed_reason, customer_notes, total_refund_amount, return_date,
	status_history, quality_check, refund_info, created_at, updated_at
`

func scanReturn(row pgx.Row, ret *model.Return) error {
	return row.Scan(
		&ret.ID,
		&ret.ReturnNumber,
		&ret.OrderID,
		&ret.UserID,
		&ret.Status,
		&ret.Items,
		&ret.Reason,
		&ret.DetailedReason,
		&ret.CustomerNotes,
		&ret.TotalRefundAmount,
		&ret.ReturnDate,
		&ret.StatusHistory,
		&ret.QualityCheck,
		&ret.RefundInfo,
		&ret.CreatedAt,
		&ret.UpdatedAt,
	)
}

// GetByID retrieves a return by its ID.
func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`

	var ret model.Return
	err := scanReturn(r.pool.QueryRow(ctx, query, id), &ret)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("return_id", id.String()).Msg("return not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("return_id", id.String()).Msg("failed to query return")
		return nil, fmt.Errorf("failed to query return: %w", err)
	}

	return &ret, nil
}

// ListByUser retrieves a user's returns, newest first.
func (r *returnRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user returns")
		return nil, fmt.Errorf("failed to query user returns: %w", err)
	}
	defer rows.Close()

	return r.scanReturns(rows)
}

// List retrieves returns for back-office review, optionally filtered
// by status, newest first.
func (r *returnRepository) List(ctx context.Context, status *model.ReturnStatus, limit, offset int) ([]model.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns`
	args := []any{}

	if status != nil {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query returns")
		return nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	return r.scanReturns(rows)
}

func (r *returnRepository) scanReturns(rows pgx.Rows) ([]model.Return, error) {
	var returns []model.Return
	for rows.Next() {
		var ret model.Return
		if err := scanReturn(rows, &ret); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan return row")
			return nil, fmt.Errorf("failed to scan return: %w", err)
		}
		returns = append(returns, ret)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating return rows")
		return nil, fmt.Errorf("error iterating returns: %w", err)
	}

	return returns, nil
}

const updateStateQuery = `
	UPDATE returns
	SET status = $3, items = $4, total_refund_amount = $5, return_date = $6,
	    status_history = $7, quality_check = $8, refund_info = $9,
	    updated_at = NOW()
	WHERE id = $1 AND status = $2
`

// UpdateState persists a return's mutable fields, guarded by the
// status the caller read. A false result means another writer moved
// the return first and the caller must re-read before retrying.
func (r *returnRepository) UpdateState(ctx context.Context, ret *model.Return, expected model.ReturnStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateStateQuery, r.updateStateArgs(ret, expected)...)
	if err != nil {
		r.logger.Error().Err(err).Str("return_id", ret.ID.String()).Msg("failed to update return")
		return false, fmt.Errorf("failed to update return: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStateTx is UpdateState within the provided transaction.
func (r *returnRepository) UpdateStateTx(ctx context.Context, tx pgx.Tx, ret *model.Return, expected model.ReturnStatus) (bool, error) {
	tag, err := tx.Exec(ctx, updateStateQuery, r.updateStateArgs(ret, expected)...)
	if err != nil {
		r.logger.Error().Err(err).Str("return_id", ret.ID.String()).Msg("failed to update return")
		return false, fmt.Errorf("failed to update return: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *returnRepository) updateStateArgs(ret *model.Return, expected model.ReturnStatus) []any {
	return []any{
		ret.ID,
		expected,
		ret.Status,
		ret.Items,
		ret.TotalRefundAmount,
		ret.ReturnDate,
		ret.StatusHistory,
		ret.QualityCheck,
		ret.RefundInfo,
	}
}
