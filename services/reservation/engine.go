package reservation

import (
	"context"
	"time"

	bookingRepo "diaglab/database/repository/booking"
	slotLockRepo "diaglab/database/repository/slotlock"
	userRepo "diaglab/database/repository/user"
	"diaglab/models"
	"diaglab/services/notification"
	"diaglab/utils"

	"go.uber.org/zap"
)

// ReservationEngine arbitrates slot locks and booking lifecycle.
type ReservationEngine interface {
	CheckAndLock(ctx context.Context, key models.SlotKey, requesterID string) (LockResult, error)
	Peek(ctx context.Context, key models.SlotKey, requesterID string) (SlotView, error)
	Release(ctx context.Context, key models.SlotKey, requesterID string) (bool, error)
	ListUnavailableSlots(ctx context.Context, labName, date string) ([]string, error)

	ConfirmBooking(ctx context.Context, requesterID string, b *models.Booking) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, upd models.BookingUpdate) (*models.Booking, error)
	DeleteBooking(ctx context.Context, bookingID string) error
}

// CouponDeactivator retires a coupon when a booking completes.
type CouponDeactivator interface {
	Deactivate(ctx context.Context, code string) error
}

// LockResult is the state a slot ended in after CheckAndLock.
// Lock is set for LOCKED_BY_REQUESTER and LOCKED_BY_OTHER.
type LockResult struct {
	State models.SlotState
	Lock  *models.SlotLock
}

// SlotView is a read-only snapshot of a slot for one requester.
type SlotView struct {
	State   models.SlotState
	Booking *models.Booking
	Lock    *models.SlotLock
}

// DefaultReservationEngine implements ReservationEngine.
type DefaultReservationEngine struct {
	Locks        slotLockRepo.SlotLockRepository
	Bookings     bookingRepo.BookingRepository
	Users        userRepo.UserRepository
	Coupons      CouponDeactivator
	Notifier     notification.Notifier
	Clock        utils.Clock
	HoldDuration time.Duration
	Logger       *zap.Logger
}

// NewReservationEngine fills defaults for the optional collaborators.
// Users, Coupons and Notifier may be nil; their side effects are then skipped.
func NewReservationEngine(
	locks slotLockRepo.SlotLockRepository,
	bookings bookingRepo.BookingRepository,
	users userRepo.UserRepository,
	coupons CouponDeactivator,
	notifier notification.Notifier,
	clock utils.Clock,
	hold time.Duration,
) *DefaultReservationEngine {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if hold <= 0 {
		hold = utils.DefaultSlotHold
	}
	return &DefaultReservationEngine{
		Locks:        locks,
		Bookings:     bookings,
		Users:        users,
		Coupons:      coupons,
		Notifier:     notifier,
		Clock:        clock,
		HoldDuration: hold,
		Logger:       utils.GetLogger(),
	}
}
