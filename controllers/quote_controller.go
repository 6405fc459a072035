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

func newQuoteService() *services.QuoteService {
	ttl := 72
	if cfg := config.GetConfig(); cfg != nil {
		ttl = cfg.QuoteTTLHours
	}
	return services.NewQuoteService(config.GetDB(), ttl)
}

// RequestQuoteRequest represents a buyer's ask for a custom price
type RequestQuoteRequest struct {
	ConversationID   uint  `json:"conversation_id" binding:"required"`
	ProductID        *uint `json:"product_id"`
	ServiceID        *uint `json:"service_id"`
	ProductVariantID *uint `json:"product_variant_id"`
	ServicePackageID *uint `json:"service_package_id"`
	Quantity         int   `json:"quantity"`
}

// RequestQuote handles POST /api/v1/quotes/request (buyers only)
func RequestQuote(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleBuyer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only buyers can request quotes")
		return
	}

	var req RequestQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	convSvc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, convSvc, req.ConversationID, user) {
		return
	}

	quote, err := newQuoteService().RequestQuote(req.ConversationID, req.ProductID, req.ServiceID, req.ProductVariantID, req.ServicePackageID, req.Quantity)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    quote,
	})
}

// SendQuoteRequest represents a seller's priced quote
type SendQuoteRequest struct {
	ConversationID   uint    `json:"conversation_id" binding:"required"`
	ProductID        *uint   `json:"product_id"`
	ServiceID        *uint   `json:"service_id"`
	ProductVariantID *uint   `json:"product_variant_id"`
	ServicePackageID *uint   `json:"service_package_id"`
	QuotedPrice      float64 `json:"quoted_price" binding:"required,gt=0"`
	Quantity         int     `json:"quantity"`
	ExpiresInHours   *int    `json:"expires_in_hours"`
}

// SendQuote handles POST /api/v1/quotes (sellers only). Any prior active
// quote in the conversation becomes superseded.
func SendQuote(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleSeller {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only sellers can send quotes")
		return
	}

	var req SendQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	convSvc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, convSvc, req.ConversationID, user) {
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInHours != nil {
		deadline := time.Now().Add(time.Duration(*req.ExpiresInHours) * time.Hour)
		expiresAt = &deadline
	}

	quote, superseded, err := newQuoteService().SendQuote(req.ConversationID, req.ProductID, req.ServiceID, req.ProductVariantID, req.ServicePackageID, req.QuotedPrice, req.Quantity, expiresAt)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"quote":      quote,
			"superseded": superseded,
		},
	})
}

// quoteAction applies a workflow action to a quote and broadcasts the result
func quoteAction(c *gin.Context, action workflow.Action) {
	user := requireUser(c)
	if user == nil {
		return
	}

	id, ok := idParam(c, "Quote")
	if !ok {
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityQuote, id, action, user.ID, user.Role, workflow.Payload{})
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

// AcceptQuote handles POST /api/v1/quotes/:id/accept. Expired quotes are
// not acceptable: expiry is checked authoritatively here, flipping the
// quote to expired before the accept is rejected.
func AcceptQuote(c *gin.Context) { quoteAction(c, workflow.ActionAccept) }

// RejectQuote handles POST /api/v1/quotes/:id/reject
func RejectQuote(c *gin.Context) { quoteAction(c, workflow.ActionReject) }

// AcknowledgeQuote handles POST /api/v1/quotes/:id/acknowledge
func AcknowledgeQuote(c *gin.Context) { quoteAction(c, workflow.ActionAcknowledge) }

// GetActiveQuote handles GET /api/v1/conversations/:id/quote, applying
// lazy expiry on read
func GetActiveQuote(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	convSvc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, convSvc, conversationID, user) {
		return
	}

	quote, err := newQuoteService().ActiveQuote(conversationID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch quote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}
