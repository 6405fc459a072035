package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
)

func TestPaymentCallbackValidation(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})

	router := setupTestRouter()
	router.POST("/payments/callback", PaymentCallback)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Fail without reference id",
			requestBody:    map[string]interface{}{"outcome": "success"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with unknown outcome",
			requestBody: map[string]interface{}{
				"reference_id": "order-1", "outcome": "maybe",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with malformed reference",
			requestBody: map[string]interface{}{
				"reference_id": "order1", "outcome": "success",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
		{
			name: "Fail with unknown reference prefix",
			requestBody: map[string]interface{}{
				"reference_id": "invoice-7", "outcome": "success",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
		{
			name: "Fail for a missing order",
			requestBody: map[string]interface{}{
				"reference_id": "order-4242", "outcome": "success",
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "ENTITY_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost, "/payments/callback", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeBody(t, w)
			errorData := response["error"].(map[string]interface{})
			assert.Equal(t, tt.expectedError, errorData["code"])
		})
	}
}

func TestPaymentCallbackOrderSuccess(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, seller, _ := seedConversationUsers(t, db)

	order := models.Order{
		BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1,
		UnitPrice: 40, Quantity: 1, Status: models.OrderPendingPayment,
	}
	db.Create(&order)

	router := setupTestRouter()
	router.POST("/payments/callback", PaymentCallback)
	w := performJSON(router, http.MethodPost, "/payments/callback", map[string]interface{}{
		"reference_id": fmt.Sprintf("order-%d", order.ID),
		"outcome":      "success",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "paid", data["to_state"])

	// A gateway retry is an idempotent no-op
	w = performJSON(router, http.MethodPost, "/payments/callback", map[string]interface{}{
		"reference_id": fmt.Sprintf("order-%d", order.ID),
		"outcome":      "success",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "paid", data["from_state"])
	assert.Equal(t, "paid", data["to_state"])
}

func TestPaymentCallbackOrderFailureKeepsPending(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, seller, _ := seedConversationUsers(t, db)

	order := models.Order{
		BuyerID: buyer.ID, SellerID: seller.ID, ProductID: 1,
		UnitPrice: 40, Quantity: 1, Status: models.OrderPendingPayment,
	}
	db.Create(&order)

	router := setupTestRouter()
	router.POST("/payments/callback", PaymentCallback)
	w := performJSON(router, http.MethodPost, "/payments/callback", map[string]interface{}{
		"reference_id": fmt.Sprintf("order-%d", order.ID),
		"outcome":      "failure",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "payment_failed", data["status"])

	// The order is left alone so the buyer can retry
	var reloaded models.Order
	db.First(&reloaded, order.ID)
	assert.Equal(t, models.OrderPendingPayment, reloaded.Status)
}

func TestPaymentCallbackBoost(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	_, seller, _ := seedConversationUsers(t, db)

	pkg := models.BoostPackage{Name: "Weekly", Price: 15, DurationDays: 7, IsActive: true}
	db.Create(&pkg)
	purchase := models.BoostPurchase{
		SellerID: seller.ID, PackageID: pkg.ID, ItemID: 1,
		ItemType: models.BoostItemProduct, PaymentMethod: models.BoostPaymentIPG,
		Amount: pkg.Price, Status: models.BoostPending,
	}
	db.Create(&purchase)

	router := setupTestRouter()
	router.POST("/payments/callback", PaymentCallback)

	// Success pays the purchase and activates the boost window
	w := performJSON(router, http.MethodPost, "/payments/callback", map[string]interface{}{
		"reference_id":    fmt.Sprintf("boost-%d", purchase.ID),
		"outcome":         "success",
		"transaction_ref": "TXN-889",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.BoostPurchase
	db.First(&reloaded, purchase.ID)
	assert.Equal(t, models.BoostPaid, reloaded.Status)
	assert.Equal(t, "TXN-889", *reloaded.PaymentReference)

	var item models.BoostedItem
	err := db.Where("item_id = ? AND item_type = ? AND is_active = ?", 1, models.BoostItemProduct, true).
		First(&item).Error
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), item.EndDate, time.Minute)

	// A failed charge fails the purchase outright
	second := models.BoostPurchase{
		SellerID: seller.ID, PackageID: pkg.ID, ItemID: 1,
		ItemType: models.BoostItemProduct, PaymentMethod: models.BoostPaymentIPG,
		Amount: pkg.Price, Status: models.BoostPending,
	}
	db.Create(&second)
	w = performJSON(router, http.MethodPost, "/payments/callback", map[string]interface{}{
		"reference_id": fmt.Sprintf("boost-%d", second.ID),
		"outcome":      "failure",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var reloadedSecond models.BoostPurchase
	db.First(&reloadedSecond, second.ID)
	assert.Equal(t, models.BoostFailed, reloadedSecond.Status)
}
