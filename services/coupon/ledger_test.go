package coupon

import (
	"context"
	"testing"
	"time"

	"diaglab/database"
	couponRepo "diaglab/database/repository/coupon"
	"diaglab/models"
	"diaglab/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, coupons ...*models.Coupon) *Ledger {
	t.Helper()
	db, err := database.OpenSQLite(database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := couponRepo.NewSQLiteCouponRepo(db)
	for _, c := range coupons {
		c.CreatedAt, c.UpdatedAt = now, now
		require.NoError(t, repo.Create(context.Background(), c))
	}
	return NewLedger(repo, utils.NewManualClock(now))
}

func ptr(t time.Time) *time.Time { return &t }

func TestQuote(t *testing.T) {
	ledger := newLedger(t,
		&models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10, IsActive: true},
		&models.Coupon{Code: "CAP", DiscountType: models.DiscountPercentage, DiscountValue: 50, MaxDiscountAmount: 100, IsActive: true},
		&models.Coupon{Code: "FLAT500", DiscountType: models.DiscountFixed, DiscountValue: 500, IsActive: true},
		&models.Coupon{Code: "MIN", DiscountType: models.DiscountFixed, DiscountValue: 50, MinOrderAmount: 1000, IsActive: true},
		&models.Coupon{Code: "OFF", DiscountType: models.DiscountFixed, DiscountValue: 50},
		&models.Coupon{Code: "OLD", DiscountType: models.DiscountFixed, DiscountValue: 50, IsActive: true, ValidUntil: ptr(now.Add(-time.Hour))},
		&models.Coupon{Code: "SOON", DiscountType: models.DiscountFixed, DiscountValue: 50, IsActive: true, ValidFrom: ptr(now.Add(time.Hour))},
		&models.Coupon{Code: "USED", DiscountType: models.DiscountFixed, DiscountValue: 50, IsActive: true, UsageLimit: 1, UsedCount: 1},
	)
	ctx := context.Background()

	tests := []struct {
		name    string
		code    string
		amount  float64
		want    models.DiscountBreakdown
		wantErr error
	}{
		{name: "percentage", code: "save10", amount: 800, want: models.DiscountBreakdown{OriginalAmount: 800, DiscountAmount: 80, FinalAmount: 720}},
		{name: "percentage capped", code: "CAP", amount: 1000, want: models.DiscountBreakdown{OriginalAmount: 1000, DiscountAmount: 100, FinalAmount: 900}},
		{name: "fixed never exceeds order", code: "FLAT500", amount: 300, want: models.DiscountBreakdown{OriginalAmount: 300, DiscountAmount: 300, FinalAmount: 0}},
		{name: "below minimum", code: "MIN", amount: 999, wantErr: ErrBelowMinimum},
		{name: "inactive", code: "OFF", amount: 100, wantErr: ErrInactive},
		{name: "expired", code: "OLD", amount: 100, wantErr: ErrExpired},
		{name: "not yet valid", code: "SOON", amount: 100, wantErr: ErrNotYetValid},
		{name: "usage exhausted", code: "USED", amount: 100, wantErr: ErrUsageExhausted},
		{name: "unknown", code: "NOPE", amount: 100, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.Quote(ctx, tt.code, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejectionClassification(t *testing.T) {
	assert.True(t, IsRejection(ErrExpired))
	assert.False(t, IsRejection(ErrNotFound))
}

func TestDeactivate(t *testing.T) {
	ledger := newLedger(t, &models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10, IsActive: true})
	ctx := context.Background()

	require.NoError(t, ledger.Deactivate(ctx, "save10"))
	_, err := ledger.Quote(ctx, "SAVE10", 100)
	assert.ErrorIs(t, err, ErrInactive)

	assert.ErrorIs(t, ledger.Deactivate(ctx, "GHOST"), ErrNotFound)
}
