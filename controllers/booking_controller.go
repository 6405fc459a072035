package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// CreateBookingRequest represents a new booking. quote_id makes the booking
// quote-backed; otherwise package_id prices it.
type CreateBookingRequest struct {
	ServiceID   uint      `json:"service_id"`
	PackageID   *uint     `json:"package_id"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	QuoteID     *uint     `json:"quote_id"`
}

// CreateBooking handles POST /api/v1/bookings (buyers only)
func CreateBooking(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleBuyer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only buyers can request bookings")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.QuoteID == nil && req.ServiceID == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Either quote_id or service_id is required")
		return
	}

	booking, err := services.NewBookingService(config.GetDB()).CreateBooking(services.CreateBookingInput{
		BuyerID:     user.ID,
		ServiceID:   req.ServiceID,
		PackageID:   req.PackageID,
		ScheduledAt: req.ScheduledAt,
		QuoteID:     req.QuoteID,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    booking,
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func GetBooking(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Booking")
	if !ok {
		return
	}

	booking, err := services.NewBookingService(config.GetDB()).Get(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if user.Role != models.RoleAdmin && booking.BuyerID != user.ID && booking.SellerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not a party to this booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"booking":     booking,
			"next_states": workflow.NextStates(workflow.EntityBooking, string(booking.Status), user.Role),
		},
	})
}

// ListBookings handles GET /api/v1/bookings
func ListBookings(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	bookings, err := services.NewBookingService(config.GetDB()).ListForUser(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

func bookingAction(c *gin.Context, action workflow.Action) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Booking")
	if !ok {
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityBooking, id, action, user.ID, user.Role, workflow.Payload{})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	broadcastResult(result)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ConfirmBooking handles POST /api/v1/bookings/:id/confirm. Confirmation
// auto-advances the booking to pending_payment in the same transaction.
func ConfirmBooking(c *gin.Context) { bookingAction(c, workflow.ActionConfirm) }

// StartBooking handles POST /api/v1/bookings/:id/start
func StartBooking(c *gin.Context) { bookingAction(c, workflow.ActionStart) }

// CompleteBooking handles POST /api/v1/bookings/:id/complete
func CompleteBooking(c *gin.Context) { bookingAction(c, workflow.ActionComplete) }

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func CancelBooking(c *gin.Context) { bookingAction(c, workflow.ActionCancel) }
