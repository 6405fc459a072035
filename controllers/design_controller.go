package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// SubmitDesignRequest represents a buyer's design approval submission
type SubmitDesignRequest struct {
	ConversationID   uint                       `json:"conversation_id" binding:"required"`
	ProductID        *uint                      `json:"product_id"`
	ServiceID        *uint                      `json:"service_id"`
	ProductVariantID *uint                      `json:"product_variant_id"`
	ServicePackageID *uint                      `json:"service_package_id"`
	Files            []services.DesignFileInput `json:"files" binding:"required,min=1,dive"`
}

// SubmitDesign handles POST /api/v1/designs (buyers only). Resubmission is
// allowed only after the prior submission ended in changes_requested or
// rejected.
func SubmitDesign(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleBuyer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only buyers can submit designs")
		return
	}

	var req SubmitDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	convSvc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, convSvc, req.ConversationID, user) {
		return
	}

	approval, err := services.NewDesignService(config.GetDB()).Submit(services.SubmitInput{
		ConversationID:   req.ConversationID,
		BuyerID:          user.ID,
		ProductID:        req.ProductID,
		ServiceID:        req.ServiceID,
		ProductVariantID: req.ProductVariantID,
		ServicePackageID: req.ServicePackageID,
		Files:            req.Files,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    approval,
	})
}

// GetDesign handles GET /api/v1/designs/:id
func GetDesign(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Design approval")
	if !ok {
		return
	}

	approval, err := services.NewDesignService(config.GetDB()).Get(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	convSvc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, convSvc, approval.ConversationID, user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    approval,
	})
}

// DesignDecisionRequest carries optional seller notes on a decision
type DesignDecisionRequest struct {
	SellerNotes *string `json:"seller_notes"`
}

func designAction(c *gin.Context, action workflow.Action) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Design approval")
	if !ok {
		return
	}

	var req DesignDecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	result, err := getEngine().ApplyTransition(workflow.EntityDesignApproval, id, action, user.ID, user.Role, workflow.Payload{
		SellerNotes: req.SellerNotes,
	})
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

// ApproveDesign handles POST /api/v1/designs/:id/approve (owning seller)
func ApproveDesign(c *gin.Context) { designAction(c, workflow.ActionApprove) }

// RejectDesign handles POST /api/v1/designs/:id/reject (owning seller)
func RejectDesign(c *gin.Context) { designAction(c, workflow.ActionReject) }

// RequestDesignChanges handles POST /api/v1/designs/:id/request-changes
func RequestDesignChanges(c *gin.Context) { designAction(c, workflow.ActionRequestChanges) }
