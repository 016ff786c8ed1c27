package handlers

import (
	"net/http"

	"diaglab/models"
	"diaglab/services/reservation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	Engine reservation.ReservationEngine
}

func NewBookingHandler(engine reservation.ReservationEngine) *BookingHandler {
	return &BookingHandler{Engine: engine}
}

// CreateBookingHandler confirms a booking on behalf of userId, who should hold the slot lock.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	b, err := h.Engine.ConfirmBooking(c.Request.Context(), req.UserID, req.ToBooking())
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking created", zap.String("bookingId", b.BookingID))
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Engine.GetBooking(c.Request.Context(), c.Query("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// UpdateBookingHandler applies a partial update; status changes follow the booking lifecycle.
func (h *BookingHandler) UpdateBookingHandler(c *gin.Context) {
	var req models.BookingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	b, err := h.Engine.UpdateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

func (h *BookingHandler) DeleteBookingHandler(c *gin.Context) {
	id := c.Query("bookingId")
	if err := h.Engine.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking deleted"})
}
