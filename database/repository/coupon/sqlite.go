package couponRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"diaglab/database"
	"diaglab/models"
	"diaglab/utils"

	"github.com/mattn/go-sqlite3"
)

type SQLiteCouponRepo struct {
	db *sql.DB
}

func NewSQLiteCouponRepo(db *sql.DB) CouponRepository {
	return &SQLiteCouponRepo{db: db}
}

func (r *SQLiteCouponRepo) Get(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var (
		c                    models.Coupon
		discountType         string
		validFrom, validTo   sql.NullString
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT code, discount_type, discount_value, min_order_amount,
			max_discount_amount, is_active, valid_from, valid_until, usage_limit, used_count,
			created_at, updated_at
		FROM coupons WHERE code = ?`, models.NormalizeCouponCode(code)).Scan(
		&c.Code, &discountType, &c.DiscountValue, &c.MinOrderAmount,
		&c.MaxDiscountAmount, &c.IsActive, &validFrom, &validTo, &c.UsageLimit, &c.UsedCount,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon %s: %w", code, err)
	}

	c.DiscountType = models.DiscountType(discountType)
	if c.ValidFrom, err = parseNullTime(validFrom); err != nil {
		return nil, err
	}
	if c.ValidUntil, err = parseNullTime(validTo); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteCouponRepo) Create(ctx context.Context, c *models.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	c.Code = models.NormalizeCouponCode(c.Code)
	_, err := r.db.ExecContext(ctx, `INSERT INTO coupons (code, discount_type, discount_value,
			min_order_amount, max_discount_amount, is_active, valid_from, valid_until,
			usage_limit, used_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Code, string(c.DiscountType), c.DiscountValue,
		c.MinOrderAmount, c.MaxDiscountAmount, c.IsActive, formatNullTime(c.ValidFrom), formatNullTime(c.ValidUntil),
		c.UsageLimit, c.UsedCount, database.FormatTime(c.CreatedAt), database.FormatTime(c.UpdatedAt),
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create coupon %s: %w", c.Code, err)
	}
	return nil
}

func (r *SQLiteCouponRepo) Deactivate(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET is_active = 0, used_count = used_count + 1, updated_at = ? WHERE code = ?`,
		database.FormatTime(time.Now()), models.NormalizeCouponCode(code))
	if err != nil {
		return fmt.Errorf("failed to deactivate coupon %s: %w", code, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: database.FormatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := database.ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
