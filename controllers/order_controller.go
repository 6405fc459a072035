package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// CreateOrderRequest represents a new order. quote_id makes the order
// quote-backed; otherwise product_id and quantity are required.
type CreateOrderRequest struct {
	ProductID        uint    `json:"product_id"`
	ProductVariantID *uint   `json:"product_variant_id"`
	Quantity         int     `json:"quantity"`
	ShippingCost     float64 `json:"shipping_cost"`
	ShippingAddress  string  `json:"shipping_address" binding:"required"`
	QuoteID          *uint   `json:"quote_id"`
	DesignApprovalID *uint   `json:"design_approval_id"`
}

// CreateOrder handles POST /api/v1/orders (buyers only)
func CreateOrder(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleBuyer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only buyers can place orders")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.QuoteID == nil && req.ProductID == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Either quote_id or product_id is required")
		return
	}

	order, err := services.NewOrderService(config.GetDB()).CreateOrder(services.CreateOrderInput{
		BuyerID:          user.ID,
		ProductID:        req.ProductID,
		ProductVariantID: req.ProductVariantID,
		Quantity:         req.Quantity,
		ShippingCost:     req.ShippingCost,
		ShippingAddress:  req.ShippingAddress,
		QuoteID:          req.QuoteID,
		DesignApprovalID: req.DesignApprovalID,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Order")
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).Get(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if user.Role != models.RoleAdmin && order.BuyerID != user.ID && order.SellerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not a party to this order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":       order,
			"next_states": workflow.NextStates(workflow.EntityOrder, string(order.Status), user.Role),
		},
	})
}

// ListOrders handles GET /api/v1/orders
func ListOrders(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	orders, err := services.NewOrderService(config.GetDB()).ListForUser(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// ListReadyToShip handles GET /api/v1/orders/ready-to-ship (admin only),
// the consolidation queue for outbound shipments
func ListReadyToShip(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	orders, err := services.NewOrderService(config.GetDB()).ReadyToShipQueue()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

func orderAction(c *gin.Context, action workflow.Action, payload workflow.Payload) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Order")
	if !ok {
		return
	}

	result, err := getEngine().ApplyTransition(workflow.EntityOrder, id, action, user.ID, user.Role, payload)
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

// ProcessOrder handles POST /api/v1/orders/:id/process
func ProcessOrder(c *gin.Context) { orderAction(c, workflow.ActionProcess, workflow.Payload{}) }

// MarkOrderReadyToShip handles POST /api/v1/orders/:id/ready-to-ship.
// The order stays in processing; only the flag flips.
func MarkOrderReadyToShip(c *gin.Context) {
	orderAction(c, workflow.ActionReadyToShip, workflow.Payload{})
}

// ShipOrderRequest carries the shipment details admin records at dispatch
type ShipOrderRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// ShipOrder handles POST /api/v1/orders/:id/ship (admin consolidation)
func ShipOrder(c *gin.Context) {
	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	orderAction(c, workflow.ActionShip, workflow.Payload{
		Carrier:        &req.Carrier,
		TrackingNumber: &req.TrackingNumber,
	})
}

// DeliverOrder handles POST /api/v1/orders/:id/deliver
func DeliverOrder(c *gin.Context) { orderAction(c, workflow.ActionDeliver, workflow.Payload{}) }

// CancelOrder handles POST /api/v1/orders/:id/cancel
func CancelOrder(c *gin.Context) { orderAction(c, workflow.ActionCancel, workflow.Payload{}) }

// idParam parses the :id path segment
func idParam(c *gin.Context, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", label+" ID is required")
		return 0, false
	}
	return uint(id), true
}
