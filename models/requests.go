package models

// CheckAvailabilityRequest is the body of POST /api/slots/check-availability.
type CheckAvailabilityRequest struct {
	LabName         string `json:"labName" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointmentTime"`
	GetAllSlots     bool   `json:"getAllSlots"`
	UserID          string `json:"userId"`
}

// SlotLockRequest is the body of POST /api/slots/lock and /api/slots/release.
type SlotLockRequest struct {
	LabName         string `json:"labName" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointmentTime" binding:"required,datetime=15:04"`
	UserID          string `json:"userId" binding:"required"`
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	BookingID       string            `json:"bookingId" binding:"required,max=64"`
	LabName         string            `json:"labName" binding:"required"`
	AppointmentDate string            `json:"appointmentDate" binding:"required,datetime=2006-01-02"`
	AppointmentTime string            `json:"appointmentTime" binding:"required,datetime=15:04"`
	PatientName     string            `json:"patientName" binding:"required"`
	Phone           string            `json:"phone" binding:"required"`
	Email           string            `json:"email" binding:"omitempty,email"`
	Items           []LineItem        `json:"items" binding:"required,min=1,dive"`
	Status          BookingStatus     `json:"status" binding:"omitempty,oneof=Confirmed Pending"`
	CouponCode      string            `json:"couponCode"`
	Pricing         DiscountBreakdown `json:"pricing"`
	UserID          string            `json:"userId"`
}

// ToBooking maps the request onto a new booking record.
func (r CreateBookingRequest) ToBooking() *Booking {
	return &Booking{
		BookingID: r.BookingID,
		SlotKey: SlotKey{
			LabName:         r.LabName,
			AppointmentDate: r.AppointmentDate,
			AppointmentTime: r.AppointmentTime,
		},
		PatientName:       r.PatientName,
		Phone:             r.Phone,
		Email:             r.Email,
		Items:             r.Items,
		Status:            r.Status,
		CouponCode:        r.CouponCode,
		DiscountBreakdown: r.Pricing,
		UserID:            r.UserID,
	}
}

// BookingUpdate carries the fields PUT /api/bookings may change.
// Nil pointers leave the stored value untouched.
type BookingUpdate struct {
	BookingID       string             `json:"bookingId" binding:"required"`
	Status          *BookingStatus     `json:"status,omitempty"`
	LabName         *string            `json:"labName,omitempty"`
	AppointmentDate *string            `json:"appointmentDate,omitempty"`
	AppointmentTime *string            `json:"appointmentTime,omitempty"`
	PatientName     *string            `json:"patientName,omitempty"`
	Phone           *string            `json:"phone,omitempty"`
	Email           *string            `json:"email,omitempty"`
	Items           *[]LineItem        `json:"items,omitempty"`
	CouponCode      *string            `json:"couponCode,omitempty"`
	Pricing         *DiscountBreakdown `json:"pricing,omitempty"`
	UserID          *string            `json:"userId,omitempty"`
}

// ValidateCouponRequest is the body of POST /api/coupons/validate.
type ValidateCouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"orderAmount" binding:"gte=0"`
}
