package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// ListBoostPackages handles GET /api/v1/boosts/packages
func ListBoostPackages(c *gin.Context) {
	packages, err := services.NewBoostService(config.GetDB()).ListPackages()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch boost packages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    packages,
	})
}

// PurchaseBoostRequest represents a seller buying promotion for a listing
type PurchaseBoostRequest struct {
	PackageID      uint                      `json:"package_id" binding:"required"`
	ItemID         uint                      `json:"item_id" binding:"required"`
	ItemType       models.BoostItemType      `json:"item_type" binding:"required,oneof=product service"`
	PaymentMethod  models.BoostPaymentMethod `json:"payment_method" binding:"required,oneof=ipg bank_transfer"`
	PaymentSlipURL *string                   `json:"payment_slip_url"`
}

// PurchaseBoost handles POST /api/v1/boosts (sellers only). The purchase
// starts pending; activation happens when payment is confirmed.
func PurchaseBoost(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleSeller {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only sellers can purchase boosts")
		return
	}

	var req PurchaseBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	purchase, err := services.NewBoostService(config.GetDB()).PurchaseBoost(services.PurchaseBoostInput{
		SellerID:       user.ID,
		PackageID:      req.PackageID,
		ItemID:         req.ItemID,
		ItemType:       req.ItemType,
		PaymentMethod:  req.PaymentMethod,
		PaymentSlipURL: req.PaymentSlipURL,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    purchase,
	})
}

// AttachSlipRequest carries the uploaded bank-transfer slip reference
type AttachSlipRequest struct {
	PaymentSlipURL string `json:"payment_slip_url" binding:"required"`
}

// AttachBoostSlip handles POST /api/v1/boosts/:id/slip. Storing the slip and
// moving the purchase to processing are separate steps in one handler so the
// status change still goes through the workflow engine.
func AttachBoostSlip(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Boost purchase")
	if !ok {
		return
	}

	var req AttachSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := services.NewBoostService(config.GetDB()).AttachPaymentSlip(id, user.ID, req.PaymentSlipURL); err != nil {
		respondWorkflowError(c, err)
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityBoostPurchase, id, workflow.ActionMarkProcessing, user.ID, user.Role, workflow.Payload{})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func boostAction(c *gin.Context, action workflow.Action) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Boost purchase")
	if !ok {
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityBoostPurchase, id, action, user.ID, user.Role, workflow.Payload{})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ConfirmBoost handles POST /api/v1/boosts/:id/confirm (admin, bank
// transfer verification). Activation re-checks the single-active invariant
// inside the transaction: an existing active window is extended, a lapsed
// one is replaced.
func ConfirmBoost(c *gin.Context) { boostAction(c, workflow.ActionConfirm) }

// FailBoost handles POST /api/v1/boosts/:id/fail (admin)
func FailBoost(c *gin.Context) { boostAction(c, workflow.ActionFail) }

// CancelBoost handles POST /api/v1/boosts/:id/cancel
func CancelBoost(c *gin.Context) { boostAction(c, workflow.ActionCancel) }

// GetActiveBoost handles GET /api/v1/boosts/active?item_id=&item_type=
func GetActiveBoost(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	var filter struct {
		ItemID   uint                 `form:"item_id" binding:"required"`
		ItemType models.BoostItemType `form:"item_type" binding:"required,oneof=product service"`
	}
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	boost, err := services.NewBoostService(config.GetDB()).ActiveBoost(filter.ItemID, filter.ItemType)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch boost")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    boost,
	})
}
