package handlers

import (
	"net/http"

	"diaglab/models"
	"diaglab/services/reservation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SlotHandler serves the slot availability and lock endpoints.
type SlotHandler struct {
	Engine reservation.ReservationEngine
}

func NewSlotHandler(engine reservation.ReservationEngine) *SlotHandler {
	return &SlotHandler{Engine: engine}
}

// CheckAvailabilityHandler reports one slot's state, or every unavailable time
// of the day when getAllSlots is set. It never takes a lock.
func (h *SlotHandler) CheckAvailabilityHandler(c *gin.Context) {
	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()

	if req.GetAllSlots {
		times, err := h.Engine.ListUnavailableSlots(ctx, req.LabName, req.AppointmentDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookedSlots": times})
		return
	}

	key := models.SlotKey{LabName: req.LabName, AppointmentDate: req.AppointmentDate, AppointmentTime: req.AppointmentTime}
	view, err := h.Engine.Peek(ctx, key, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	lockedByCurrentUser := view.Lock != nil && req.UserID != "" && view.Lock.OwnerID == req.UserID
	c.JSON(http.StatusOK, gin.H{
		"available":           view.State == models.SlotAvailable || view.State == models.SlotLockedByRequester,
		"booking":             view.Booking,
		"locked":              view.Lock != nil,
		"lockedByCurrentUser": lockedByCurrentUser,
	})
}

// LockSlotHandler answers 200 for every engine outcome; failures are in the body.
func (h *SlotHandler) LockSlotHandler(c *gin.Context) {
	var req models.SlotLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	key := models.SlotKey{LabName: req.LabName, AppointmentDate: req.AppointmentDate, AppointmentTime: req.AppointmentTime}
	res, err := h.Engine.CheckAndLock(c.Request.Context(), key, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	switch res.State {
	case models.SlotBooked:
		c.JSON(http.StatusOK, gin.H{"success": false, "code": CodeSlotBooked, "message": "This slot is already booked"})
	case models.SlotLockedByOther:
		c.JSON(http.StatusOK, gin.H{
			"success":     false,
			"code":        CodeSlotLocked,
			"message":     "This slot is temporarily held by another user",
			"lockedUntil": res.Lock.ExpiresAt,
		})
	default:
		getLogger(c).Debug("Slot locked", zap.String("slot", key.String()), zap.String("userId", req.UserID))
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Slot locked",
			"expiresAt": res.Lock.ExpiresAt,
		})
	}
}

// ReleaseSlotHandler drops the caller's lock, if it holds one.
func (h *SlotHandler) ReleaseSlotHandler(c *gin.Context) {
	var req models.SlotLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	key := models.SlotKey{LabName: req.LabName, AppointmentDate: req.AppointmentDate, AppointmentTime: req.AppointmentTime}
	released, err := h.Engine.Release(c.Request.Context(), key, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "released": released})
}
