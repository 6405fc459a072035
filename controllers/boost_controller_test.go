package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
)

func seedWeeklyBoost(t *testing.T, db *gorm.DB) models.BoostPackage {
	t.Helper()
	pkg := models.BoostPackage{Name: "7-day spotlight", Price: 500, DurationDays: 7, IsActive: true}
	assert.NoError(t, db.Create(&pkg).Error)
	return pkg
}

func TestPurchaseBoostEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, seller, _ := seedConversationUsers(t, db)
	pkg := seedWeeklyBoost(t, db)
	product := models.Product{SellerID: seller.ID, Name: "Bead set", BasePrice: 20, IsActive: true}
	db.Create(&product)

	router := setupTestRouter()
	router.POST("/boosts", mockAuthMiddleware(seller.Auth0ID), PurchaseBoost)

	w := performJSON(router, http.MethodPost, "/boosts", map[string]interface{}{
		"package_id":     pkg.ID,
		"item_id":        product.ID,
		"item_type":      "product",
		"payment_method": "bank_transfer",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(500), data["amount"])
	purchaseID := uint(data["id"].(float64))

	// Buyers cannot boost listings
	buyerRouter := setupTestRouter()
	buyerRouter.POST("/boosts", mockAuthMiddleware(buyer.Auth0ID), PurchaseBoost)
	w = performJSON(buyerRouter, http.MethodPost, "/boosts", map[string]interface{}{
		"package_id":     pkg.ID,
		"item_id":        product.ID,
		"item_type":      "product",
		"payment_method": "ipg",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown payment method fails binding
	w = performJSON(router, http.MethodPost, "/boosts", map[string]interface{}{
		"package_id":     pkg.ID,
		"item_id":        product.ID,
		"item_type":      "product",
		"payment_method": "cheque",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Slip upload moves the purchase into manual verification
	slipRouter := setupTestRouter()
	slipRouter.POST("/boosts/:id/slip", mockAuthMiddleware(seller.Auth0ID), AttachBoostSlip)
	w = performJSON(slipRouter, http.MethodPost, fmt.Sprintf("/boosts/%d/slip", purchaseID), map[string]interface{}{
		"payment_slip_url": "https://cdn.example.com/slip.pdf",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	assert.Equal(t, "processing", response["data"].(map[string]interface{})["to_state"])
}

func TestBoostVerificationOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	_, seller, admin := seedConversationUsers(t, db)
	pkg := seedWeeklyBoost(t, db)
	product := models.Product{SellerID: seller.ID, Name: "Bead set", BasePrice: 20, IsActive: true}
	db.Create(&product)

	purchase := models.BoostPurchase{
		SellerID: seller.ID, PackageID: pkg.ID,
		ItemID: product.ID, ItemType: models.BoostItemProduct,
		PaymentMethod: models.BoostPaymentBankTransfer,
		Amount:        500, Status: models.BoostProcessing,
	}
	db.Create(&purchase)

	// Sellers cannot self-verify
	sellerConfirm := setupTestRouter()
	sellerConfirm.POST("/boosts/:id/confirm", mockAuthMiddleware(seller.Auth0ID), ConfirmBoost)
	w := performJSON(sellerConfirm, http.MethodPost, fmt.Sprintf("/boosts/%d/confirm", purchase.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	confirmRouter := setupTestRouter()
	confirmRouter.POST("/boosts/:id/confirm", mockAuthMiddleware(admin.Auth0ID), ConfirmBoost)
	w = performJSON(confirmRouter, http.MethodPost, fmt.Sprintf("/boosts/%d/confirm", purchase.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "paid", response["data"].(map[string]interface{})["to_state"])

	// Confirmation opens the promotion window
	var boosted models.BoostedItem
	assert.NoError(t, db.Where("item_id = ? AND item_type = ?", product.ID, models.BoostItemProduct).First(&boosted).Error)
	assert.True(t, boosted.IsActive)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), boosted.EndDate, 5*time.Second)

	lookupRouter := setupTestRouter()
	lookupRouter.GET("/boosts/active", mockAuthMiddleware(seller.Auth0ID), GetActiveBoost)
	w = performJSON(lookupRouter, http.MethodGet, fmt.Sprintf("/boosts/active?item_id=%d&item_type=product", product.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	assert.NotNil(t, response["data"])
}

func TestListBoostPackagesEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, _, _ := seedConversationUsers(t, db)
	seedWeeklyBoost(t, db)

	retired := models.BoostPackage{Name: "Old plan", Price: 100, DurationDays: 3}
	db.Create(&retired)
	// The zero value would be skipped on insert; retire it explicitly
	db.Model(&retired).Update("is_active", false)

	router := setupTestRouter()
	router.GET("/boosts/packages", mockAuthMiddleware(buyer.Auth0ID), ListBoostPackages)
	w := performJSON(router, http.MethodGet, "/boosts/packages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	packages := response["data"].([]interface{})
	if assert.Len(t, packages, 1) {
		assert.Equal(t, "7-day spotlight", packages[0].(map[string]interface{})["name"])
	}
}
