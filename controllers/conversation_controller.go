package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
)

// CreateConversationRequest represents the request body for opening a thread
type CreateConversationRequest struct {
	Type      models.ConversationType `json:"type" binding:"required"`
	Subject   string                  `json:"subject" binding:"required"`
	SellerID  uint                    `json:"seller_id" binding:"required"`
	ProductID *uint                   `json:"product_id"`
	ServiceID *uint                   `json:"service_id"`
	OrderID   *uint                   `json:"order_id"`
	BookingID *uint                   `json:"booking_id"`
}

// CreateConversation handles POST /api/v1/conversations
func CreateConversation(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	svc := services.NewConversationService(config.GetDB())
	conv, err := svc.CreateConversation(services.CreateConversationInput{
		Type:      req.Type,
		Subject:   req.Subject,
		BuyerID:   user.ID,
		SellerID:  req.SellerID,
		ProductID: req.ProductID,
		ServiceID: req.ServiceID,
		OrderID:   req.OrderID,
		BookingID: req.BookingID,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    conv,
	})
}

// ListConversations handles GET /api/v1/conversations
func ListConversations(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	svc := services.NewConversationService(config.GetDB())
	conversations, err := svc.ListForUser(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversations,
	})
}

// conversationParam parses the :id URL parameter
func conversationParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Conversation ID is required")
		return 0, false
	}
	return uint(id), true
}

// requireParticipant verifies thread membership (admins always pass)
func requireParticipant(c *gin.Context, svc *services.ConversationService, conversationID uint, user *models.User) bool {
	if user.Role == models.RoleAdmin {
		return true
	}
	ok, err := svc.IsParticipant(conversationID, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check membership")
		return false
	}
	if !ok {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		return false
	}
	return true
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content     string                     `json:"content" binding:"required"`
	Attachments []services.AttachmentInput `json:"attachments"`
}

// SendMessage handles POST /api/v1/conversations/:id/messages
func SendMessage(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	svc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, svc, conversationID, user) {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	message, err := svc.AppendMessage(conversationID, user.ID, user.Role, req.Content, req.Attachments)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	// Push to live subscribers; offline participants rely on backfill
	if hub := GetHub(); hub != nil {
		hub.Publish(conversationID, message)
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/v1/conversations/:id/messages.
// An optional after_seq query parameter returns only newer messages,
// which reconnecting clients use for backfill.
func ListMessages(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	svc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, svc, conversationID, user) {
		return
	}

	afterSeq, _ := strconv.ParseUint(c.DefaultQuery("after_seq", "0"), 10, 64)
	messages, err := svc.History(conversationID, afterSeq)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch messages")
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// MarkConversationRead handles POST /api/v1/conversations/:id/read
func MarkConversationRead(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	svc := services.NewConversationService(config.GetDB())
	if !requireParticipant(c, svc, conversationID, user) {
		return
	}

	if err := svc.MarkRead(conversationID, user.ID); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// UpdateConversationStatusRequest carries the requested status move
type UpdateConversationStatusRequest struct {
	Status models.ConversationStatus `json:"status" binding:"required"`
}

// UpdateConversationStatus handles PATCH /api/v1/conversations/:id/status.
// Only admin may move status; buyers and sellers request resolution out of
// band and an admin applies it.
func UpdateConversationStatus(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	var req UpdateConversationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	svc := services.NewConversationService(config.GetDB())
	conv, err := svc.UpdateStatus(conversationID, req.Status, user.Role)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conv,
	})
}

// JoinConversationAsAdmin handles POST /api/v1/conversations/:id/admin
func JoinConversationAsAdmin(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only admins may join on demand")
		return
	}
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	svc := services.NewConversationService(config.GetDB())
	if err := svc.AddAdmin(conversationID, user.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to join conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
