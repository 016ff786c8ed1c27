package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"diaglab/models"
	"diaglab/services/coupon"
	"diaglab/services/reservation"
	"diaglab/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	// Report JSON field names instead of Go struct field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Error codes carried in conflict responses.
const (
	CodeSlotBooked      = "SLOT_BOOKED"
	CodeSlotLocked      = "SLOT_LOCKED"
	CodeBookingExists   = "BOOKING_EXISTS"
	CodeBookingConflict = "BOOKING_CONFLICT"
)

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "datetime":
		return fmt.Sprintf("must match the layout %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return fmt.Sprintf("failed the %s check", fe.Tag())
}

// fieldPath drops the request type name, e.g. "items[0].testName".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// respondBindError writes a 400 for a request body that failed to bind.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		utils.JSONValidation(c, "invalid request", fields)
		return
	}
	utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
}

// respondError maps engine and ledger errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONValidation(c, "invalid request", map[string]string{verr.Field: verr.Message})
	case errors.Is(err, reservation.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse{Message: "booking not found"})
	case errors.Is(err, coupon.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse{Message: "coupon not found"})
	case coupon.IsRejection(err):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: err.Error()})
	case errors.Is(err, reservation.ErrBookingExists):
		utils.JSONConflict(c, http.StatusConflict, CodeBookingExists, "a booking with this id already exists")
	case errors.Is(err, reservation.ErrBookingConflict):
		utils.JSONConflict(c, http.StatusConflict, CodeBookingConflict, "the booking was changed by another request, reload and retry")
	case errors.Is(err, reservation.ErrSlotAlreadyBooked):
		utils.JSONConflict(c, http.StatusConflict, CodeSlotBooked, "this slot is already booked")
	case errors.Is(err, reservation.ErrSlotLockedByOther):
		utils.JSONConflict(c, http.StatusConflict, CodeSlotLocked, "this slot is being booked by someone else")
	default:
		getLogger(c).Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Message: "Internal Server Error"})
	}
}
