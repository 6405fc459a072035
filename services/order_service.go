package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

// OrderService creates and lists product orders. State changes after
// creation go through the workflow engine, not through this service.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateOrderInput carries everything needed to open an order. When QuoteID
// is set the item, price, and quantity come from the accepted quote and the
// direct-purchase fields are ignored.
type CreateOrderInput struct {
	BuyerID          uint
	ProductID        uint
	ProductVariantID *uint
	Quantity         int
	ShippingCost     float64
	ShippingAddress  string
	QuoteID          *uint
	DesignApprovalID *uint
}

// CreateOrder opens an order in pending_payment. Quote-backed orders consume
// an accepted quote; direct orders price from the variant or product base.
func (s *OrderService) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	order := models.Order{
		BuyerID:         in.BuyerID,
		ShippingCost:    in.ShippingCost,
		ShippingAddress: in.ShippingAddress,
		Status:          models.OrderPendingPayment,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.QuoteID != nil {
			if err := s.priceFromQuote(tx, *in.QuoteID, in.BuyerID, &order); err != nil {
				return err
			}
		} else {
			if err := s.priceDirect(tx, in, &order); err != nil {
				return err
			}
		}

		if in.DesignApprovalID != nil {
			if err := s.verifyDesignApproval(tx, *in.DesignApprovalID, in.BuyerID); err != nil {
				return err
			}
			order.DesignApprovalID = in.DesignApprovalID
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// priceFromQuote consumes an accepted product quote: item, unit price, and
// quantity are taken from the quote, and the order inherits its conversation.
func (s *OrderService) priceFromQuote(tx *gorm.DB, quoteID, buyerID uint, order *models.Order) error {
	var quote models.Quote
	if err := tx.First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.EntityNotFoundError{Entity: workflow.EntityQuote, EntityID: quoteID}
		}
		return err
	}
	if quote.Status != models.QuoteAccepted {
		return &workflow.InvalidTransitionError{
			Entity:       workflow.EntityQuote,
			EntityID:     quoteID,
			CurrentState: string(quote.Status),
			Action:       "consume",
		}
	}
	if quote.ProductID == nil {
		return fmt.Errorf("quote %d is not a product quote", quoteID)
	}

	var membership models.ConversationParticipant
	err := tx.Where("conversation_id = ? AND user_id = ?", quote.ConversationID, buyerID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.ActorNotAuthorizedError{
				Entity:   workflow.EntityQuote,
				EntityID: quoteID,
				ActorID:  buyerID,
				Role:     models.RoleBuyer,
			}
		}
		return err
	}

	var product models.Product
	if err := tx.First(&product, *quote.ProductID).Error; err != nil {
		return err
	}

	order.ProductID = *quote.ProductID
	order.ProductVariantID = quote.ProductVariantID
	order.SellerID = product.SellerID
	order.UnitPrice = quote.QuotedPrice
	order.Quantity = quote.Quantity
	order.QuoteID = &quote.ID
	order.ConversationID = &quote.ConversationID
	return nil
}

func (s *OrderService) priceDirect(tx *gorm.DB, in CreateOrderInput, order *models.Order) error {
	if in.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	var product models.Product
	if err := tx.First(&product, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d not found", in.ProductID)
		}
		return err
	}
	if !product.IsActive {
		return fmt.Errorf("product %d is not available", in.ProductID)
	}

	price := product.BasePrice
	if in.ProductVariantID != nil {
		var variant models.ProductVariant
		if err := tx.First(&variant, *in.ProductVariantID).Error; err != nil {
			return fmt.Errorf("product variant %d not found", *in.ProductVariantID)
		}
		if variant.ProductID != product.ID {
			return fmt.Errorf("variant %d does not belong to product %d", variant.ID, product.ID)
		}
		price = variant.Price
	}

	order.ProductID = product.ID
	order.ProductVariantID = in.ProductVariantID
	order.SellerID = product.SellerID
	order.UnitPrice = price
	order.Quantity = in.Quantity
	return nil
}

func (s *OrderService) verifyDesignApproval(tx *gorm.DB, approvalID, buyerID uint) error {
	var approval models.DesignApproval
	if err := tx.First(&approval, approvalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.EntityNotFoundError{Entity: workflow.EntityDesignApproval, EntityID: approvalID}
		}
		return err
	}
	if approval.BuyerID != buyerID {
		return &workflow.ActorNotAuthorizedError{
			Entity:   workflow.EntityDesignApproval,
			EntityID: approvalID,
			ActorID:  buyerID,
			Role:     models.RoleBuyer,
		}
	}
	if approval.Status != models.DesignApproved {
		return &workflow.InvalidTransitionError{
			Entity:       workflow.EntityDesignApproval,
			EntityID:     approvalID,
			CurrentState: string(approval.Status),
			Action:       "consume",
		}
	}
	return nil
}

// Get loads an order with its buyer preloaded
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Buyer").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &workflow.EntityNotFoundError{Entity: workflow.EntityOrder, EntityID: orderID}
		}
		return nil, err
	}
	return &order, nil
}

// ListForUser returns the orders visible to the user: their own purchases
// for buyers, their incoming orders for sellers, everything for admins.
func (s *OrderService) ListForUser(user *models.User) ([]models.Order, error) {
	q := s.db.Order("created_at DESC")
	switch user.Role {
	case models.RoleBuyer:
		q = q.Where("buyer_id = ?", user.ID)
	case models.RoleSeller:
		q = q.Where("seller_id = ?", user.ID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ReadyToShipQueue lists processing orders flagged ready, oldest first.
// Admin uses this to consolidate shipments.
func (s *OrderService) ReadyToShipQueue() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Where("status = ? AND ready_to_ship = ?", models.OrderProcessing, true).
		Order("updated_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
