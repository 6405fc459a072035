package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

func seedAcceptedProductQuote(t *testing.T, db *gorm.DB, buyerID, sellerID, productID uint) models.Quote {
	t.Helper()
	conv := models.Conversation{
		Type:    models.ConversationPrePurchaseProduct,
		Subject: "Custom piece",
		Status:  models.ConversationActive,
	}
	if err := db.Create(&conv).Error; err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: buyerID, Role: models.RoleBuyer})
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: sellerID, Role: models.RoleSeller})

	quote := models.Quote{
		ConversationID: conv.ID,
		ProductID:      &productID,
		QuotedPrice:    45,
		Quantity:       3,
		Status:         models.QuoteAccepted,
	}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("Failed to create quote: %v", err)
	}
	return quote
}

func TestCreateOrderDirect(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	svc := NewOrderService(db)

	order, err := svc.CreateOrder(CreateOrderInput{
		BuyerID:         buyer.ID,
		ProductID:       product.ID,
		Quantity:        2,
		ShippingCost:    8,
		ShippingAddress: "5 Lake Rd, Colombo",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPendingPayment, order.Status)
	assert.Equal(t, seller.ID, order.SellerID)
	assert.Equal(t, product.BasePrice, order.UnitPrice)
	assert.InDelta(t, 78.0, order.Total(), 0.001)
}

func TestCreateOrderVariantPricing(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	variant := models.ProductVariant{ProductID: product.ID, Name: "Large", Price: 55}
	db.Create(&variant)
	other := seedProduct(t, db, seller.ID)
	strayVariant := models.ProductVariant{ProductID: other.ID, Name: "Stray", Price: 5}
	db.Create(&strayVariant)
	svc := NewOrderService(db)

	order, err := svc.CreateOrder(CreateOrderInput{
		BuyerID:          buyer.ID,
		ProductID:        product.ID,
		ProductVariantID: &variant.ID,
		Quantity:         1,
		ShippingAddress:  "5 Lake Rd, Colombo",
	})
	assert.NoError(t, err)
	assert.Equal(t, 55.0, order.UnitPrice, "variant price overrides the base price")

	// A variant from a different product is rejected
	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID:          buyer.ID,
		ProductID:        product.ID,
		ProductVariantID: &strayVariant.ID,
		Quantity:         1,
		ShippingAddress:  "5 Lake Rd, Colombo",
	})
	assert.Error(t, err)
}

func TestCreateOrderDirectValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	svc := NewOrderService(db)

	_, err := svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ProductID: product.ID, Quantity: 0,
		ShippingAddress: "x",
	})
	assert.Error(t, err, "zero quantity")

	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ProductID: 404, Quantity: 1,
		ShippingAddress: "x",
	})
	assert.Error(t, err, "unknown product")

	retired := models.Product{SellerID: seller.ID, Name: "Retired", BasePrice: 10}
	db.Create(&retired)
	db.Model(&retired).Update("is_active", false)
	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ProductID: retired.ID, Quantity: 1,
		ShippingAddress: "x",
	})
	assert.Error(t, err, "inactive product")
}

func TestCreateOrderFromQuote(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	quote := seedAcceptedProductQuote(t, db, buyer.ID, seller.ID, product.ID)
	svc := NewOrderService(db)

	order, err := svc.CreateOrder(CreateOrderInput{
		BuyerID:         buyer.ID,
		ShippingCost:    10,
		ShippingAddress: "5 Lake Rd, Colombo",
		QuoteID:         &quote.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, quote.QuotedPrice, order.UnitPrice)
	assert.Equal(t, quote.Quantity, order.Quantity)
	assert.Equal(t, product.ID, order.ProductID)
	assert.Equal(t, seller.ID, order.SellerID)
	assert.Equal(t, quote.ConversationID, *order.ConversationID, "order joins the quote's thread")
}

func TestCreateOrderFromQuoteGuards(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	quote := seedAcceptedProductQuote(t, db, buyer.ID, seller.ID, product.ID)
	svc := NewOrderService(db)

	// Only a conversation participant can consume the quote
	stranger := models.User{Auth0ID: "auth0|stranger", Name: "Stranger", Email: "s@example.com", Role: models.RoleBuyer}
	db.Create(&stranger)
	_, err := svc.CreateOrder(CreateOrderInput{
		BuyerID: stranger.ID, ShippingAddress: "x", QuoteID: &quote.ID,
	})
	var denied *workflow.ActorNotAuthorizedError
	assert.ErrorAs(t, err, &denied)

	// Only accepted quotes are consumable
	db.Model(&models.Quote{}).Where("id = ?", quote.ID).
		Update("status", models.QuoteSent)
	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ShippingAddress: "x", QuoteID: &quote.ID,
	})
	var invalid *workflow.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	missing := uint(404)
	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ShippingAddress: "x", QuoteID: &missing,
	})
	var notFound *workflow.EntityNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateOrderWithDesignApproval(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	product := seedProduct(t, db, seller.ID)
	conv := models.Conversation{Type: models.ConversationPrePurchaseProduct, Subject: "x", Status: models.ConversationActive}
	db.Create(&conv)
	approval := models.DesignApproval{
		ConversationID: conv.ID,
		ProductID:      &product.ID,
		BuyerID:        buyer.ID,
		Status:         models.DesignApproved,
	}
	db.Create(&approval)
	svc := NewOrderService(db)

	order, err := svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ProductID: product.ID, Quantity: 1,
		ShippingAddress:  "x",
		DesignApprovalID: &approval.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, approval.ID, *order.DesignApprovalID)

	// An unapproved design cannot back an order
	pending := models.DesignApproval{
		ConversationID: conv.ID,
		ProductID:      &product.ID,
		BuyerID:        buyer.ID,
		Status:         models.DesignPending,
	}
	db.Create(&pending)
	_, err = svc.CreateOrder(CreateOrderInput{
		BuyerID: buyer.ID, ProductID: product.ID, Quantity: 1,
		ShippingAddress:  "x",
		DesignApprovalID: &pending.ID,
	})
	var invalid *workflow.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestListOrdersForUser(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)
	admin := models.User{Auth0ID: "auth0|admin", Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	db.Create(&admin)
	otherBuyer := models.User{Auth0ID: "auth0|b2", Name: "B2", Email: "b2@example.com", Role: models.RoleBuyer}
	db.Create(&otherBuyer)

	db.Create(&models.Order{BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1, UnitPrice: 10, Quantity: 1, Status: models.OrderPaid})
	db.Create(&models.Order{BuyerID: otherBuyer.ID, SellerID: seller.ID, ProductID: 1, UnitPrice: 10, Quantity: 1, Status: models.OrderPaid})
	svc := NewOrderService(db)

	orders, err := svc.ListForUser(&buyer)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = svc.ListForUser(&seller)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = svc.ListForUser(&admin)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestReadyToShipQueue(t *testing.T) {
	db := setupServiceTestDB(t)
	buyer, seller := seedBuyerSeller(t, db)

	flagged := models.Order{BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1, UnitPrice: 10, Quantity: 1, Status: models.OrderProcessing, ReadyToShip: true}
	db.Create(&flagged)
	db.Create(&models.Order{BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1, UnitPrice: 10, Quantity: 1, Status: models.OrderProcessing})
	db.Create(&models.Order{BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1, UnitPrice: 10, Quantity: 1, Status: models.OrderPaid})
	svc := NewOrderService(db)

	queue, err := svc.ReadyToShipQueue()
	assert.NoError(t, err)
	assert.Len(t, queue, 1)
	assert.Equal(t, flagged.ID, queue[0].ID)
}
