// File: diaglab/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Slot endpoints
	CheckAvailabilityHandler gin.HandlerFunc
	LockSlotHandler          gin.HandlerFunc
	ReleaseSlotHandler       gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc
	UpdateBookingHandler gin.HandlerFunc
	DeleteBookingHandler gin.HandlerFunc

	// Coupon endpoints
	ValidateCouponHandler gin.HandlerFunc

	// Ops
	HealthHandler  gin.HandlerFunc
	MetricsHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle.
func NewHandlerBundle(slots *SlotHandler, bookings *BookingHandler, coupons *CouponHandler, metrics gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		CheckAvailabilityHandler: slots.CheckAvailabilityHandler,
		LockSlotHandler:          slots.LockSlotHandler,
		ReleaseSlotHandler:       slots.ReleaseSlotHandler,
		CreateBookingHandler:     bookings.CreateBookingHandler,
		GetBookingHandler:        bookings.GetBookingHandler,
		UpdateBookingHandler:     bookings.UpdateBookingHandler,
		DeleteBookingHandler:     bookings.DeleteBookingHandler,
		ValidateCouponHandler:    coupons.ValidateCouponHandler,
		HealthHandler:            HealthHandler,
		MetricsHandler:           metrics,
	}
}
