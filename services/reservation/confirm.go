package reservation

import (
	"context"
	"errors"
	"math"

	bookingRepo "diaglab/database/repository/booking"
	"diaglab/metrics"
	"diaglab/models"
	"diaglab/utils"

	"go.uber.org/zap"
)

// ConfirmBooking persists b for requesterID. The slot must be free of active
// bookings and of locks held by anyone else; the store's unique index settles races.
func (e *DefaultReservationEngine) ConfirmBooking(ctx context.Context, requesterID string, b *models.Booking) (*models.Booking, error) {
	if err := prepareNew(b); err != nil {
		return nil, err
	}
	key := b.SlotKey
	log := e.Logger.With(zap.String("bookingId", b.BookingID), zap.String("slot", key.String()))

	booked, err := e.Bookings.HasActive(ctx, key)
	if err != nil {
		return nil, storageErr("check booking", err)
	}
	if booked {
		metrics.IncBookingConfirm("slot_booked")
		return nil, ErrSlotAlreadyBooked
	}

	lock, err := e.Locks.Get(ctx, key)
	if err != nil {
		return nil, storageErr("read lock", err)
	}
	if lock != nil && lock.OwnerID != requesterID {
		metrics.IncBookingConfirm("slot_locked")
		return nil, ErrSlotLockedByOther
	}

	if b.UserID == "" && e.Users != nil {
		if u, err := e.Users.GetByPhone(ctx, b.Phone); err != nil {
			metrics.IncSideEffectFailure("user_lookup")
			log.Warn("User lookup by phone failed", zap.Error(err))
		} else if u != nil {
			b.UserID = u.ID
		}
	}

	now := e.Clock.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := e.Bookings.Create(ctx, b); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			metrics.IncBookingConfirm("slot_booked")
			return nil, ErrSlotAlreadyBooked
		case errors.Is(err, bookingRepo.ErrDuplicateID):
			metrics.IncBookingConfirm("duplicate_id")
			return nil, ErrBookingExists
		}
		metrics.IncBookingConfirm("error")
		return nil, storageErr("create booking", err)
	}
	metrics.IncBookingConfirm("confirmed")

	if requesterID != "" {
		if _, err := e.Locks.Release(ctx, key, requesterID); err != nil {
			metrics.IncSideEffectFailure("lock_release")
			log.Warn("Failed to release slot lock after booking; it will expire", zap.Error(err))
		}
	}

	if e.Notifier != nil {
		if err := e.Notifier.BookingConfirmed(ctx, b); err != nil {
			metrics.IncSideEffectFailure("notify_confirmed")
			log.Warn("Failed to queue booking confirmation", zap.Error(err))
		}
	}

	log.Info("Booking confirmed", zap.String("status", string(b.Status)), zap.String("userId", b.UserID))
	return b, nil
}

// prepareNew applies creation defaults and validates b.
func prepareNew(b *models.Booking) error {
	if b == nil {
		return models.NewValidationError("booking", "is required")
	}
	if b.Status == "" {
		b.Status = models.StatusConfirmed
	}
	if !b.Status.HoldsSlot() {
		return models.NewValidationError("status", "a new booking must be Confirmed or Pending")
	}
	id, err := models.ParseBookingID(b.BookingID)
	if err != nil {
		return err
	}
	b.BookingID = string(id)
	b.CouponCode = models.NormalizeCouponCode(b.CouponCode)
	if err := b.Validate(); err != nil {
		return err
	}
	return fillPricing(b)
}

// fillPricing derives missing totals from the line items and rejects a
// breakdown whose final amount is not original minus discount.
func fillPricing(b *models.Booking) error {
	p := &b.DiscountBreakdown
	if p.OriginalAmount == 0 {
		for _, it := range b.Items {
			p.OriginalAmount += it.Price
		}
		p.OriginalAmount = utils.RoundMoney(p.OriginalAmount)
	}
	if p.DiscountAmount < 0 || p.DiscountAmount > p.OriginalAmount {
		return models.NewValidationError("pricing.discountAmount", "must be between 0 and originalAmount")
	}

	want := utils.RoundMoney(p.OriginalAmount - p.DiscountAmount)
	if p.FinalAmount == 0 {
		p.FinalAmount = want
		return nil
	}
	if math.Abs(p.FinalAmount-want) > 0.005 {
		return models.NewValidationError("pricing.finalAmount", "must equal originalAmount minus discountAmount")
	}
	return nil
}
