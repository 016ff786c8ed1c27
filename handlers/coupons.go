package handlers

import (
	"context"
	"net/http"

	"diaglab/models"

	"github.com/gin-gonic/gin"
)

// CouponQuoter prices a coupon against an order total.
type CouponQuoter interface {
	Quote(ctx context.Context, code string, orderAmount float64) (models.DiscountBreakdown, error)
}

type CouponHandler struct {
	Ledger CouponQuoter
}

func NewCouponHandler(ledger CouponQuoter) *CouponHandler {
	return &CouponHandler{Ledger: ledger}
}

// ValidateCouponHandler returns the discount a coupon would give without consuming it.
func (h *CouponHandler) ValidateCouponHandler(c *gin.Context) {
	var req models.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	breakdown, err := h.Ledger.Quote(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"couponCode": models.NormalizeCouponCode(req.Code),
		"pricing":    breakdown,
	})
}
