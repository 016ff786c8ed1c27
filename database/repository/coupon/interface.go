package couponRepo

import (
	"context"
	"errors"

	"diaglab/models"
)

var (
	ErrNotFound  = errors.New("coupon not found")
	ErrDuplicate = errors.New("coupon code already exists")
)

// CouponRepository stores discount coupons keyed by normalized code.
type CouponRepository interface {
	Get(ctx context.Context, code string) (*models.Coupon, error)
	// Create seeds a coupon. No HTTP route issues coupons; tests and
	// operator seeding call it directly.
	Create(ctx context.Context, c *models.Coupon) error
	// Deactivate marks the coupon inactive and counts one use.
	Deactivate(ctx context.Context, code string) error
}
