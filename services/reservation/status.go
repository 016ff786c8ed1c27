package reservation

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "diaglab/database/repository/booking"
	couponRepo "diaglab/database/repository/coupon"
	"diaglab/metrics"
	"diaglab/models"

	"go.uber.org/zap"
)

func (e *DefaultReservationEngine) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	id, err := models.ParseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	b, err := e.Bookings.GetByID(ctx, string(id))
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get booking", err)
	}
	return b, nil
}

// UpdateBooking applies upd to the stored booking. Status changes follow the
// lifecycle; Completed retires the coupon and Cancelled notifies the patient.
func (e *DefaultReservationEngine) UpdateBooking(ctx context.Context, upd models.BookingUpdate) (*models.Booking, error) {
	current, err := e.GetBooking(ctx, upd.BookingID)
	if err != nil {
		return nil, err
	}

	next := *current
	next.Items = append([]models.LineItem(nil), current.Items...)
	if err := applyUpdate(&next, upd); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	moved := next.SlotKey != current.SlotKey && next.Status.HoldsSlot()
	if moved {
		if err := e.checkMoveTarget(ctx, next.SlotKey, next.UserID); err != nil {
			return nil, err
		}
	}

	next.UpdatedAt = e.Clock.Now()
	if err := e.Bookings.Update(ctx, &next, current.Status); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			return nil, ErrSlotAlreadyBooked
		case errors.Is(err, bookingRepo.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, bookingRepo.ErrStatusChanged):
			e.Logger.Info("Booking changed before update was written",
				zap.String("bookingId", next.BookingID), zap.String("readStatus", string(current.Status)))
			return nil, ErrBookingConflict
		}
		return nil, storageErr("update booking", err)
	}

	if moved && next.UserID != "" {
		if _, err := e.Locks.Release(ctx, next.SlotKey, next.UserID); err != nil {
			metrics.IncSideEffectFailure("lock_release")
			e.Logger.Warn("Failed to release slot lock after moving booking; it will expire",
				zap.String("bookingId", next.BookingID), zap.Error(err))
		}
	}

	if next.Status != current.Status {
		metrics.IncBookingTransition(string(next.Status))
		e.afterTransition(ctx, &next)
	}
	return &next, nil
}

// checkMoveTarget applies the confirm-time guards to a slot a booking is moving
// onto: no other active booking, and no live lock unless ownerID holds it.
func (e *DefaultReservationEngine) checkMoveTarget(ctx context.Context, key models.SlotKey, ownerID string) error {
	booked, err := e.Bookings.HasActive(ctx, key)
	if err != nil {
		return storageErr("check booking", err)
	}
	if booked {
		return ErrSlotAlreadyBooked
	}

	lock, err := e.Locks.Get(ctx, key)
	if err != nil {
		return storageErr("read lock", err)
	}
	if lock != nil && lock.OwnerID != ownerID {
		return ErrSlotLockedByOther
	}
	return nil
}

func applyUpdate(b *models.Booking, upd models.BookingUpdate) error {
	if upd.Status != nil {
		to, err := models.ParseBookingStatus(string(*upd.Status))
		if err != nil {
			return err
		}
		if !b.Status.CanMoveTo(to) {
			return models.NewValidationError("status", fmt.Sprintf("cannot change status from %s to %s", b.Status, to))
		}
		b.Status = to
	}
	if upd.LabName != nil {
		b.LabName = *upd.LabName
	}
	if upd.AppointmentDate != nil {
		b.AppointmentDate = *upd.AppointmentDate
	}
	if upd.AppointmentTime != nil {
		b.AppointmentTime = *upd.AppointmentTime
	}
	if upd.PatientName != nil {
		b.PatientName = *upd.PatientName
	}
	if upd.Phone != nil {
		b.Phone = *upd.Phone
	}
	if upd.Email != nil {
		b.Email = *upd.Email
	}
	if upd.Items != nil {
		b.Items = append([]models.LineItem(nil), (*upd.Items)...)
	}
	if upd.CouponCode != nil {
		b.CouponCode = models.NormalizeCouponCode(*upd.CouponCode)
	}
	if upd.Pricing != nil {
		b.DiscountBreakdown = *upd.Pricing
		if err := fillPricing(b); err != nil {
			return err
		}
	}
	if upd.UserID != nil {
		b.UserID = *upd.UserID
	}
	return nil
}

// afterTransition runs the best-effort side effects of a status change.
func (e *DefaultReservationEngine) afterTransition(ctx context.Context, b *models.Booking) {
	log := e.Logger.With(zap.String("bookingId", b.BookingID), zap.String("status", string(b.Status)))

	switch b.Status {
	case models.StatusCompleted:
		if b.CouponCode == "" || e.Coupons == nil {
			return
		}
		err := e.Coupons.Deactivate(ctx, b.CouponCode)
		switch {
		case errors.Is(err, couponRepo.ErrNotFound):
			log.Info("Coupon on completed booking does not exist", zap.String("coupon", b.CouponCode))
		case err != nil:
			metrics.IncSideEffectFailure("coupon_deactivate")
			log.Warn("Failed to deactivate coupon", zap.String("coupon", b.CouponCode), zap.Error(err))
		}

	case models.StatusCancelled:
		if e.Notifier == nil {
			return
		}
		if err := e.Notifier.BookingCancelled(ctx, b); err != nil {
			metrics.IncSideEffectFailure("notify_cancelled")
			log.Warn("Failed to queue cancellation notice", zap.Error(err))
		}
	}
}

// DeleteBooking hard-deletes a booking record.
func (e *DefaultReservationEngine) DeleteBooking(ctx context.Context, bookingID string) error {
	id, err := models.ParseBookingID(bookingID)
	if err != nil {
		return err
	}
	err = e.Bookings.Delete(ctx, string(id))
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("delete booking", err)
	}
	e.Logger.Info("Booking deleted", zap.String("bookingId", string(id)))
	return nil
}
