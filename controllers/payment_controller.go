package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// PaymentCallbackRequest is the gateway's webhook body. referenceId encodes
// the entity as "order-N", "booking-N", or "boost-N".
type PaymentCallbackRequest struct {
	ReferenceID    string `json:"reference_id" binding:"required"`
	Outcome        string `json:"outcome" binding:"required,oneof=success failure"`
	TransactionRef string `json:"transaction_ref"`
}

// PaymentCallback handles POST /api/v1/payments/callback. The gateway acts
// with admin authority: success applies the pay action for the referenced
// entity, failure fails a boost purchase and leaves orders and bookings in
// pending_payment for retry.
func PaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entity, id, err := parsePaymentReference(req.ReferenceID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if req.Outcome != "success" {
		result, err := handlePaymentFailure(entity, id, req)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    result,
		})
		return
	}

	var payload workflow.Payload
	if entity == workflow.EntityBoostPurchase && req.TransactionRef != "" {
		payload.PaymentReference = &req.TransactionRef
	}

	result, err := getEngine().ApplyTransition(entity, id, workflow.ActionPay, 0, models.RoleAdmin, payload)
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

// handlePaymentFailure fails boost purchases outright; orders and bookings
// stay in pending_payment so the buyer can retry.
func handlePaymentFailure(entity workflow.EntityType, id uint, req PaymentCallbackRequest) (interface{}, error) {
	if entity == workflow.EntityBoostPurchase {
		return getEngine().ApplyTransition(entity, id, workflow.ActionFail, 0, models.RoleAdmin, workflow.Payload{})
	}
	log.Printf("payment failed for %s %d (ref %s); awaiting retry", entity, id, req.ReferenceID)
	return gin.H{
		"entity_type": entity,
		"entity_id":   id,
		"status":      "payment_failed",
	}, nil
}

func parsePaymentReference(ref string) (workflow.EntityType, uint, error) {
	prefix, rawID, found := strings.Cut(ref, "-")
	if !found {
		return "", 0, fmt.Errorf("malformed payment reference %q", ref)
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("malformed payment reference %q", ref)
	}

	switch prefix {
	case "order":
		return workflow.EntityOrder, uint(id), nil
	case "booking":
		return workflow.EntityBooking, uint(id), nil
	case "boost":
		return workflow.EntityBoostPurchase, uint(id), nil
	}
	return "", 0, fmt.Errorf("unknown payment reference prefix %q", prefix)
}
