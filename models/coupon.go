package models

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code. Codes are stored upper-cased.
type Coupon struct {
	Code              string       `bson:"code" json:"code"`
	DiscountType      DiscountType `bson:"discountType" json:"discountType"`
	DiscountValue     float64      `bson:"discountValue" json:"discountValue"`
	MinOrderAmount    float64      `bson:"minOrderAmount" json:"minOrderAmount"`
	MaxDiscountAmount float64      `bson:"maxDiscountAmount,omitempty" json:"maxDiscountAmount,omitempty"`
	IsActive          bool         `bson:"isActive" json:"isActive"`
	ValidFrom         *time.Time   `bson:"validFrom,omitempty" json:"validFrom,omitempty"`
	ValidUntil        *time.Time   `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
	UsageLimit        int          `bson:"usageLimit,omitempty" json:"usageLimit,omitempty"`
	UsedCount         int          `bson:"usedCount" json:"usedCount"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time    `bson:"updatedAt" json:"updatedAt"`
}
