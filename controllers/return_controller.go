package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

func newReturnService() *services.ReturnService {
	max := 3
	if cfg := config.GetConfig(); cfg != nil {
		max = cfg.MaxReturnAttempts
	}
	return services.NewReturnService(config.GetDB(), max)
}

// FileReturnRequest represents one return/refund attempt
type FileReturnRequest struct {
	OrderID               *uint                    `json:"order_id"`
	BookingID             *uint                    `json:"booking_id"`
	Reason                models.ReturnReason      `json:"reason" binding:"required"`
	Description           string                   `json:"description" binding:"required"`
	RequestedRefundAmount float64                  `json:"requested_refund_amount" binding:"required,gt=0"`
	Evidence              []services.EvidenceInput `json:"evidence" binding:"dive"`
}

// FileReturn handles POST /api/v1/returns (buyers only). A new attempt is
// allowed only after the previous one reached a terminal state, up to the
// configured maximum.
func FileReturn(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleBuyer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only buyers can file returns")
		return
	}

	var req FileReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	attempt, err := newReturnService().FileReturn(services.FileReturnInput{
		OrderID:               req.OrderID,
		BookingID:             req.BookingID,
		BuyerID:               user.ID,
		Reason:                req.Reason,
		Description:           req.Description,
		RequestedRefundAmount: req.RequestedRefundAmount,
		Evidence:              req.Evidence,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    attempt,
	})
}

// ListReturnHistory handles GET /api/v1/returns?order_id=&booking_id=,
// returning every attempt for the disputed purchase in filing order
func ListReturnHistory(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	var filter struct {
		OrderID   *uint `form:"order_id"`
		BookingID *uint `form:"booking_id"`
	}
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if (filter.OrderID == nil) == (filter.BookingID == nil) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Exactly one of order_id or booking_id is required")
		return
	}

	attempts, err := newReturnService().History(filter.OrderID, filter.BookingID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch return history")
		return
	}
	if user.Role != models.RoleAdmin {
		for _, a := range attempts {
			if a.BuyerID != user.ID && a.SellerID != user.ID {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not a party to this dispute")
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    attempts,
	})
}

// SellerReturnResponse carries the seller's answer, optionally countering
// with a different refund amount
type SellerReturnResponse struct {
	SellerResponse             *string  `json:"seller_response"`
	SellerProposedRefundAmount *float64 `json:"seller_proposed_refund_amount"`
}

func returnAction(c *gin.Context, action workflow.Action, payload workflow.Payload) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Return request")
	if !ok {
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityReturnRequest, id, action, user.ID, user.Role, payload)
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

func sellerReturnAction(c *gin.Context, action workflow.Action) {
	var req SellerReturnResponse
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}
	returnAction(c, action, workflow.Payload{
		SellerResponse:             req.SellerResponse,
		SellerProposedRefundAmount: req.SellerProposedRefundAmount,
	})
}

// ReviewReturn handles POST /api/v1/returns/:id/review (seller)
func ReviewReturn(c *gin.Context) { returnAction(c, workflow.ActionReview, workflow.Payload{}) }

// SellerApproveReturn handles POST /api/v1/returns/:id/seller-approve
func SellerApproveReturn(c *gin.Context) { sellerReturnAction(c, workflow.ActionSellerApprove) }

// SellerRejectReturn handles POST /api/v1/returns/:id/seller-reject
func SellerRejectReturn(c *gin.Context) { sellerReturnAction(c, workflow.ActionSellerReject) }

// AdminApproveReturn handles POST /api/v1/returns/:id/admin-approve
func AdminApproveReturn(c *gin.Context) {
	returnAction(c, workflow.ActionAdminApprove, workflow.Payload{})
}

// AdminRejectReturn handles POST /api/v1/returns/:id/admin-reject
func AdminRejectReturn(c *gin.Context) {
	returnAction(c, workflow.ActionAdminReject, workflow.Payload{})
}

// RefundReturn handles POST /api/v1/returns/:id/refund. Refunding reverses
// the purchase's commission entry in the same transaction.
func RefundReturn(c *gin.Context) { returnAction(c, workflow.ActionRefund, workflow.Payload{}) }

// CompleteReturn handles POST /api/v1/returns/:id/complete, closing an
// approved return resolved without a monetary refund
func CompleteReturn(c *gin.Context) { returnAction(c, workflow.ActionComplete, workflow.Payload{}) }
