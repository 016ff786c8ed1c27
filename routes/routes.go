package routes

import (
	"time"

	"diaglab/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSlotRoutes registers slot availability and lock endpoints.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/slots")
	{
		api.POST("/check-availability", hb.CheckAvailabilityHandler)
		api.POST("/lock", hb.LockSlotHandler)
		api.POST("/release", hb.ReleaseSlotHandler)
	}
}

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.POST("", hb.CreateBookingHandler)
		bookingGroup.GET("", hb.GetBookingHandler)
		bookingGroup.PUT("", hb.UpdateBookingHandler)
		bookingGroup.DELETE("", hb.DeleteBookingHandler)
	}
}

// RegisterCouponRoutes registers coupon endpoints.
func RegisterCouponRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/coupons")
	{
		api.POST("/validate", hb.ValidateCouponHandler)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	if hb.MetricsHandler != nil {
		r.GET("/metrics", hb.MetricsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterSlotRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterCouponRoutes(r, hb)
}
