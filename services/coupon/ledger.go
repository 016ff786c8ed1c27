package coupon

import (
	"context"
	"errors"
	"fmt"
	"math"

	couponRepo "diaglab/database/repository/coupon"
	"diaglab/models"
	"diaglab/utils"
)

var (
	ErrNotFound       = couponRepo.ErrNotFound
	ErrInactive       = errors.New("coupon is no longer active")
	ErrNotYetValid    = errors.New("coupon is not valid yet")
	ErrExpired        = errors.New("coupon has expired")
	ErrUsageExhausted = errors.New("coupon usage limit reached")
	ErrBelowMinimum   = errors.New("order amount is below the coupon minimum")
)

// IsRejection reports whether err means the coupon exists but cannot be applied.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInactive) || errors.Is(err, ErrNotYetValid) ||
		errors.Is(err, ErrExpired) || errors.Is(err, ErrUsageExhausted) ||
		errors.Is(err, ErrBelowMinimum)
}

// Ledger prices coupons and records their use.
type Ledger struct {
	Repo  couponRepo.CouponRepository
	Clock utils.Clock
}

func NewLedger(repo couponRepo.CouponRepository, clock utils.Clock) *Ledger {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Ledger{Repo: repo, Clock: clock}
}

// Quote returns the discount code would give on orderAmount.
func (l *Ledger) Quote(ctx context.Context, code string, orderAmount float64) (models.DiscountBreakdown, error) {
	if orderAmount < 0 || math.IsNaN(orderAmount) {
		return models.DiscountBreakdown{}, models.NewValidationError("orderAmount", "must not be negative")
	}
	c, err := l.Repo.Get(ctx, code)
	if err != nil {
		return models.DiscountBreakdown{}, err
	}
	if err := l.usable(c, orderAmount); err != nil {
		return models.DiscountBreakdown{}, err
	}
	return Apply(c, orderAmount), nil
}

func (l *Ledger) usable(c *models.Coupon, orderAmount float64) error {
	now := l.Clock.Now()
	switch {
	case !c.IsActive:
		return ErrInactive
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return ErrNotYetValid
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return ErrExpired
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return ErrUsageExhausted
	case orderAmount < c.MinOrderAmount:
		return fmt.Errorf("%w (minimum %.2f)", ErrBelowMinimum, c.MinOrderAmount)
	}
	return nil
}

// Apply computes the breakdown without checking eligibility.
func Apply(c *models.Coupon, orderAmount float64) models.DiscountBreakdown {
	var discount float64
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount * c.DiscountValue / 100
		if c.MaxDiscountAmount > 0 && discount > c.MaxDiscountAmount {
			discount = c.MaxDiscountAmount
		}
	case models.DiscountFixed:
		discount = c.DiscountValue
	}
	discount = utils.RoundMoney(utils.ClampMoney(discount, orderAmount))
	return models.DiscountBreakdown{
		OriginalAmount: utils.RoundMoney(orderAmount),
		DiscountAmount: discount,
		FinalAmount:    utils.RoundMoney(orderAmount - discount),
	}
}

// Deactivate retires a coupon once the booking that used it completes.
func (l *Ledger) Deactivate(ctx context.Context, code string) error {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return models.NewValidationError("couponCode", "is required")
	}
	return l.Repo.Deactivate(ctx, code)
}
